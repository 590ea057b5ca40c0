package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrStaffNotFound   = errors.New("staff member not found")
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrDuplicateRecord = errors.New("attendance record already exists for this date")
)

// Repository contains all DB interactions needed by the service. The
// (staff_id, work_date) pair is unique at the storage layer; InsertRecord
// must surface a violation as ErrDuplicateRecord so check-in races resolve to
// the surviving row.
type Repository interface {
	GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error)

	GetRecordForDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*Record, error)
	InsertRecord(ctx context.Context, rec *Record) (*Record, error)
	SetCheckOut(ctx context.Context, id uuid.UUID, at time.Time, hours decimal.Decimal) (*Record, error)

	ListStaffWithoutRecord(ctx context.Context, date time.Time) ([]uuid.UUID, error)
}
