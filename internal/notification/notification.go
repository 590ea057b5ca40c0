package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification is a mailbox entry addressed to a doctor or a user. The write
// side is fire-and-forget; only the read side reports errors to callers.
type Notification struct {
	ID            uuid.UUID
	DoctorID      *uuid.UUID
	UserID        *uuid.UUID
	Title         string
	Message       string
	AppointmentID *uuid.UUID
	Read          bool
	CreatedAt     time.Time
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllReadForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
	MarkAllReadForUser(ctx context.Context, userID uuid.UUID) (int, error)
}
