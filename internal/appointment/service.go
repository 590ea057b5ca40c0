package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/caresuite/clinical-workflow/internal/redis"
)

var (
	ErrInvalidStatus = errors.New("invalid appointment status")
	ErrMissingReason = errors.New("appointment reason is required")
)

// Notifier appends a mailbox entry for a doctor. Failures must not roll back
// the appointment write that triggered them.
type Notifier interface {
	NotifyDoctor(ctx context.Context, doctorID uuid.UUID, title, message string, appointmentID *uuid.UUID) error
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	log      zerolog.Logger
	tz       *time.Location
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, log zerolog.Logger, tz *time.Location) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
		tz:       tz,
	}
}

// Book creates a scheduled appointment and stamps its queue position: one
// more than the number of scheduled appointments the doctor already has on
// that calendar day. Count and insert run under a per (doctor, date) lock so
// concurrent bookings cannot compute the same position.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, departmentID *uuid.UUID, scheduledAt time.Time, reason string) (*Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	day := scheduledAt.In(s.tz)
	key := fmt.Sprintf("lock:queue:%s:%s", doctorID, day.Format("2006-01-02"))

	var created *Appointment
	booked := false

	book := func(bookCtx context.Context) error {
		booked = true
		n, err := s.repo.CountScheduledOnDate(bookCtx, doctorID, day)
		if err != nil {
			return fmt.Errorf("count scheduled appointments: %w", err)
		}

		pos := n + 1
		appt := &Appointment{
			PatientID:     patientID,
			DoctorID:      doctorID,
			DepartmentID:  departmentID,
			ScheduledAt:   scheduledAt,
			Reason:        reason,
			Status:        StatusScheduled,
			QueuePosition: &pos,
		}

		created, err = s.repo.CreateScheduled(bookCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	}

	err = s.locker.WithLock(ctx, key, book)
	if err != nil && !booked {
		// The lock never opened, whether contended or with Redis unreachable;
		// degrade to an unserialized count-then-insert. A duplicated display
		// position is cosmetic, a failed booking is not.
		s.log.Warn().Err(err).Str("key", key).Msg("queue lock unavailable, assigning position without lock")
		err = book(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.notifyBooked(ctx, doctor, created)

	return created, nil
}

func (s *Service) notifyBooked(ctx context.Context, doctor *Doctor, appt *Appointment) {
	title := "New appointment"
	msg := fmt.Sprintf("A patient has booked an appointment with you on %s (queue #%d).",
		appt.ScheduledAt.In(s.tz).Format("Mon 2 Jan 15:04"), *appt.QueuePosition)

	if err := s.notifier.NotifyDoctor(ctx, doctor.ID, title, msg, &appt.ID); err != nil {
		s.log.Warn().Err(err).
			Str("doctor_id", doctor.ID.String()).
			Str("appointment_id", appt.ID.String()).
			Msg("appointment notification not delivered")
	}
}

// UpdateStatus moves an appointment to a new status. Transitions are
// last-write-wins; the queue position is never touched.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return updated, nil
}

// Get retrieves an appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListQueue returns a doctor's appointments for a calendar day ordered by
// queue position.
func (s *Service) ListQueue(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListByDoctorOnDate(ctx, doctorID, day.In(s.tz))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}
