package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const labOrderColumns = `id, patient_id, doctor_id, test_name, price, priority, status, payment_status, invoice_id, results, normal_range, result_at, created_at, updated_at`

const prescriptionColumns = `id, patient_id, doctor_id, medications, dosage, cost, is_dispensed, payment_status, invoice_id, dispensed_by, dispensed_at, created_at, updated_at`

func scanLabOrder(row pgx.Row) (*LabOrder, error) {
	var o LabOrder

	err := row.Scan(
		&o.ID,
		&o.PatientID,
		&o.DoctorID,
		&o.TestName,
		&o.Price,
		&o.Priority,
		&o.Status,
		&o.PaymentStatus,
		&o.InvoiceID,
		&o.Results,
		&o.NormalRange,
		&o.ResultAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLabOrderNotFound
		}
		return nil, err
	}

	return &o, nil
}

func scanPrescription(row pgx.Row) (*PrescriptionOrder, error) {
	var o PrescriptionOrder

	err := row.Scan(
		&o.ID,
		&o.PatientID,
		&o.DoctorID,
		&o.Medications,
		&o.Dosage,
		&o.Cost,
		&o.IsDispensed,
		&o.PaymentStatus,
		&o.InvoiceID,
		&o.DispensedBy,
		&o.DispensedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}

	return &o, nil
}

// Interface methods

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PgRepository) CreateLabOrder(ctx context.Context, o *LabOrder) (*LabOrder, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lab_orders (id, patient_id, doctor_id, test_name, price, priority, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', 'pending_payment', now(), now())
		RETURNING `+labOrderColumns+`
	`, id, o.PatientID, o.DoctorID, o.TestName, o.Price, o.Priority)

	return scanLabOrder(row)
}

func (r *PgRepository) GetLabOrderByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+labOrderColumns+`
		FROM lab_orders
		WHERE id = $1
	`, id)
	return scanLabOrder(row)
}

func (r *PgRepository) SetLabResult(ctx context.Context, id uuid.UUID, results, normalRange string, at time.Time) (*LabOrder, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE lab_orders
		SET results = $2,
		    normal_range = $3,
		    result_at = $4,
		    status = 'completed',
		    updated_at = now()
		WHERE id = $1
		RETURNING `+labOrderColumns+`
	`, id, results, normalRange, at)

	return scanLabOrder(row)
}

func (r *PgRepository) CreatePrescription(ctx context.Context, o *PrescriptionOrder) (*PrescriptionOrder, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescription_orders (id, patient_id, doctor_id, medications, dosage, cost, is_dispensed, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, 'unbilled', now(), now())
		RETURNING `+prescriptionColumns+`
	`, id, o.PatientID, o.DoctorID, o.Medications, o.Dosage, o.Cost)

	return scanPrescription(row)
}

func (r *PgRepository) GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*PrescriptionOrder, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescription_orders
		WHERE id = $1
	`, id)
	return scanPrescription(row)
}

func (r *PgRepository) MarkDispensed(ctx context.Context, id uuid.UUID, dispensedBy string, at time.Time) (*PrescriptionOrder, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE prescription_orders
		SET is_dispensed = TRUE,
		    dispensed_by = $2,
		    dispensed_at = $3,
		    updated_at = now()
		WHERE id = $1
		  AND is_dispensed = FALSE
		RETURNING `+prescriptionColumns+`
	`, id, dispensedBy, at)

	o, err := scanPrescription(row)
	if err != nil {
		if errors.Is(err, ErrPrescriptionNotFound) {
			// Either the id is unknown or a concurrent dispense won; re-read
			// to tell the two apart.
			existing, getErr := r.GetPrescriptionByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			if existing.IsDispensed {
				return nil, ErrAlreadyDispensed
			}
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}

	return o, nil
}
