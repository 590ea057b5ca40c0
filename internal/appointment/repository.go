package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Queue sequencing: the count feeding the next position must come from
	// the same store the insert goes to.
	CountScheduledOnDate(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error)

	CreateScheduled(ctx context.Context, appt *Appointment) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDoctorOnDate(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error)
}
