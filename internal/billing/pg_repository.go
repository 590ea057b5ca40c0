package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgPool is the querying subset of *pgxpool.Pool the repository needs.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgRepository struct {
	pool pgPool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// CreateInvoice runs the whole settlement in one transaction: invoice row,
// line items, then a conditional claim of every referenced order. A claim
// only succeeds while the order has no invoice yet, so two invoices can never
// settle the same order; losing the claim rolls the whole settlement back.
func (r *PgRepository) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (id, number, patient_id, issued_on, subtotal, tax, total, paid_amount, balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING created_at
	`, id, inv.Number, inv.PatientID, inv.IssuedOn.Format("2006-01-02"), inv.Subtotal, inv.Tax, inv.Total, inv.PaidAmount, inv.Balance, inv.Status).Scan(&inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInvoiceNumber
		}
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	inv.ID = id

	for i := range inv.Items {
		item := &inv.Items[i]
		item.ID = uuid.New()
		item.InvoiceID = id

		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, kind, description, quantity, unit_price, lab_order_id, prescription_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, id, item.Kind, item.Description, item.Quantity, item.UnitPrice, item.LabOrderID, item.PrescriptionID)
		if err != nil {
			return nil, fmt.Errorf("insert invoice item: %w", err)
		}
	}

	labIDs, rxIDs := inv.referencedOrders()

	for _, orderID := range labIDs {
		tag, err := tx.Exec(ctx, `
			UPDATE lab_orders
			SET payment_status = 'paid',
			    invoice_id = $1,
			    updated_at = now()
			WHERE id = $2
			  AND invoice_id IS NULL
		`, id, orderID)
		if err != nil {
			return nil, &PropagationError{InvoiceID: id, Step: "claim_lab_orders", LabOrderIDs: labIDs, PrescriptionIDs: rxIDs, Err: err}
		}
		if tag.RowsAffected() == 0 {
			return nil, r.claimFailure(ctx, tx, "lab_orders", orderID, ErrLabOrderNotFound)
		}
	}

	for _, orderID := range rxIDs {
		tag, err := tx.Exec(ctx, `
			UPDATE prescription_orders
			SET payment_status = 'paid',
			    invoice_id = $1,
			    updated_at = now()
			WHERE id = $2
			  AND invoice_id IS NULL
		`, id, orderID)
		if err != nil {
			return nil, &PropagationError{InvoiceID: id, Step: "claim_prescriptions", LabOrderIDs: labIDs, PrescriptionIDs: rxIDs, Err: err}
		}
		if tag.RowsAffected() == 0 {
			return nil, r.claimFailure(ctx, tx, "prescription_orders", orderID, ErrPrescriptionNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &PropagationError{InvoiceID: id, Step: "commit", LabOrderIDs: labIDs, PrescriptionIDs: rxIDs, Err: err}
	}

	return inv, nil
}

// claimFailure distinguishes "order does not exist" from "order already
// carries an invoice reference".
func (r *PgRepository) claimFailure(ctx context.Context, tx pgx.Tx, table string, orderID uuid.UUID, notFound error) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("inspect failed claim on %s: %w", orderID, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", orderID, notFound)
	}
	return fmt.Errorf("%s: %w", orderID, ErrOrderAlreadyBilled)
}

func (inv *Invoice) referencedOrders() (labIDs, rxIDs []uuid.UUID) {
	for _, item := range inv.Items {
		if item.LabOrderID != nil {
			labIDs = append(labIDs, *item.LabOrderID)
		}
		if item.PrescriptionID != nil {
			rxIDs = append(rxIDs, *item.PrescriptionID)
		}
	}
	return labIDs, rxIDs
}

func (r *PgRepository) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice

	err := r.pool.QueryRow(ctx, `
		SELECT id, number, patient_id, issued_on, subtotal, tax, total, paid_amount, balance, status, created_at
		FROM invoices
		WHERE id = $1
	`, id).Scan(
		&inv.ID,
		&inv.Number,
		&inv.PatientID,
		&inv.IssuedOn,
		&inv.Subtotal,
		&inv.Tax,
		&inv.Total,
		&inv.PaidAmount,
		&inv.Balance,
		&inv.Status,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, kind, description, quantity, unit_price, lab_order_id, prescription_id
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItem
		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.Kind,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.LabOrderID,
			&item.PrescriptionID,
		)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &inv, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
