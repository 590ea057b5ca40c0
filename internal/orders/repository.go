package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrLabOrderNotFound     = errors.New("lab order not found")
	ErrPrescriptionNotFound = errors.New("prescription order not found")
	ErrAlreadyDispensed     = errors.New("prescription already dispensed")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)

	CreateLabOrder(ctx context.Context, o *LabOrder) (*LabOrder, error)
	GetLabOrderByID(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	SetLabResult(ctx context.Context, id uuid.UUID, results, normalRange string, at time.Time) (*LabOrder, error)

	CreatePrescription(ctx context.Context, o *PrescriptionOrder) (*PrescriptionOrder, error)
	GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*PrescriptionOrder, error)
	// MarkDispensed must be conditional on is_dispensed = false and return
	// ErrAlreadyDispensed when the order was already handed out.
	MarkDispensed(ctx context.Context, id uuid.UUID, dispensedBy string, at time.Time) (*PrescriptionOrder, error)
}
