package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// NotifyDoctor appends a mailbox entry for a doctor. It satisfies the
// appointment package's Notifier; delivery failures are the caller's to log,
// never to act on.
func (s *Service) NotifyDoctor(ctx context.Context, doctorID uuid.UUID, title, message string, appointmentID *uuid.UUID) error {
	n := &Notification{
		DoctorID:      &doctorID,
		Title:         title,
		Message:       message,
		AppointmentID: appointmentID,
	}
	return s.repo.Insert(ctx, n)
}

// MarkRead flags a single notification as read. Re-marking an already read
// entry is a no-op.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return err
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every unread entry for either a doctor or a user mailbox.
// Exactly one of the two ids must be set; that is validated by the handler.
func (s *Service) MarkAllRead(ctx context.Context, doctorID, userID *uuid.UUID) (int, error) {
	switch {
	case doctorID != nil:
		n, err := s.repo.MarkAllReadForDoctor(ctx, *doctorID)
		if err != nil {
			return 0, fmt.Errorf("mark doctor mailbox read: %w", err)
		}
		return n, nil
	case userID != nil:
		n, err := s.repo.MarkAllReadForUser(ctx, *userID)
		if err != nil {
			return 0, fmt.Errorf("mark user mailbox read: %w", err)
		}
		return n, nil
	default:
		return 0, errors.New("either doctor_id or user_id is required")
	}
}
