package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const recordColumns = `id, staff_id, work_date, check_in, check_out, status, hours_worked, created_at, updated_at`

// work_date parameters go over the wire as yyyy-mm-dd text; casting a
// timestamptz to date instead would resolve the day in the DB session
// timezone, not the institution's.
const dateLayout = "2006-01-02"

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record

	err := row.Scan(
		&r.ID,
		&r.StaffID,
		&r.WorkDate,
		&r.CheckIn,
		&r.CheckOut,
		&r.Status,
		&r.HoursWorked,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (r *PgRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	var s Staff

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, role, duty_start, created_at, updated_at
		FROM staff
		WHERE id = $1
	`, id).Scan(
		&s.ID,
		&s.Name,
		&s.Role,
		&s.DutyStart,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetRecordForDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE staff_id = $1
		  AND work_date = $2::date
	`, staffID, date.Format(dateLayout))
	return scanRecord(row)
}

func (r *PgRepository) InsertRecord(ctx context.Context, rec *Record) (*Record, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO attendance_records (id, staff_id, work_date, check_in, check_out, status, hours_worked, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, NULL, $5, NULL, now(), now())
		RETURNING `+recordColumns+`
	`, id, rec.StaffID, rec.WorkDate.Format(dateLayout), rec.CheckIn, rec.Status)

	created, err := scanRecord(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRecord
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) SetCheckOut(ctx context.Context, id uuid.UUID, at time.Time, hours decimal.Decimal) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE attendance_records
		SET check_out = $2,
		    hours_worked = $3,
		    updated_at = now()
		WHERE id = $1
		  AND check_in IS NOT NULL
		  AND check_out IS NULL
		RETURNING `+recordColumns+`
	`, id, at, hours)

	return scanRecord(row)
}

func (r *PgRepository) ListStaffWithoutRecord(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id
		FROM staff s
		WHERE NOT EXISTS (
			SELECT 1 FROM attendance_records ar
			WHERE ar.staff_id = s.id
			  AND ar.work_date = $1::date
		)
	`, date.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
