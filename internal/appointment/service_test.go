package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	redisclient "github.com/caresuite/clinical-workflow/internal/redis"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Patient), args.Error(1)
}

func (m *MockRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Doctor), args.Error(1)
}

func (m *MockRepository) CountScheduledOnDate(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	args := m.Called(ctx, doctorID, day)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CreateScheduled(ctx context.Context, appt *Appointment) (*Appointment, error) {
	args := m.Called(ctx, appt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) ListByDoctorOnDate(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error) {
	args := m.Called(ctx, doctorID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDoctor(ctx context.Context, doctorID uuid.UUID, title, message string, appointmentID *uuid.UUID) error {
	args := m.Called(ctx, doctorID, title, message, appointmentID)
	return args.Error(0)
}

// passthroughLocker runs the critical section directly.
type passthroughLocker struct{}

func (passthroughLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// contentedLocker always reports the lock as held elsewhere.
type contendedLocker struct{}

func (contendedLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// unreachableLocker fails acquisition the way a dead Redis does.
type unreachableLocker struct{}

func (unreachableLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return errors.New("acquire lock: dial tcp 127.0.0.1:6379: connect: connection refused")
}

func newTestService(repo Repository, locker redisclient.Locker, notifier Notifier) *Service {
	return NewService(repo, locker, notifier, zerolog.Nop(), time.UTC)
}

func withPosition(want int) any {
	return mock.MatchedBy(func(a *Appointment) bool {
		return a.QueuePosition != nil && *a.QueuePosition == want && a.Status == StatusScheduled
	})
}

func TestBookAssignsNextQueuePosition(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()
	scheduledAt := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

	for _, tc := range []struct {
		name     string
		existing int
		wantPos  int
	}{
		{"first booking of the day", 0, 1},
		{"third booking of the day", 2, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			notifier := new(MockNotifier)

			repo.On("GetPatientByID", mock.Anything, patientID).Return(&Patient{ID: patientID}, nil)
			repo.On("GetDoctorByID", mock.Anything, doctorID).Return(&Doctor{ID: doctorID, Name: "Dr. Chen"}, nil)
			repo.On("CountScheduledOnDate", mock.Anything, doctorID, mock.Anything).Return(tc.existing, nil)

			pos := tc.wantPos
			created := &Appointment{
				ID:            uuid.New(),
				PatientID:     patientID,
				DoctorID:      doctorID,
				ScheduledAt:   scheduledAt,
				Status:        StatusScheduled,
				QueuePosition: &pos,
			}
			repo.On("CreateScheduled", mock.Anything, withPosition(tc.wantPos)).Return(created, nil)
			notifier.On("NotifyDoctor", mock.Anything, doctorID, mock.Anything, mock.Anything, mock.Anything).Return(nil)

			svc := newTestService(repo, passthroughLocker{}, notifier)

			appt, err := svc.Book(context.Background(), patientID, doctorID, nil, scheduledAt, "chest pain")
			require.NoError(t, err)
			require.NotNil(t, appt.QueuePosition)
			assert.Equal(t, tc.wantPos, *appt.QueuePosition)

			repo.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}

func TestBookSurvivesNotifierFailure(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()
	scheduledAt := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

	repo := new(MockRepository)
	notifier := new(MockNotifier)

	repo.On("GetPatientByID", mock.Anything, patientID).Return(&Patient{ID: patientID}, nil)
	repo.On("GetDoctorByID", mock.Anything, doctorID).Return(&Doctor{ID: doctorID}, nil)
	repo.On("CountScheduledOnDate", mock.Anything, doctorID, mock.Anything).Return(0, nil)

	pos := 1
	created := &Appointment{ID: uuid.New(), QueuePosition: &pos, ScheduledAt: scheduledAt, Status: StatusScheduled}
	repo.On("CreateScheduled", mock.Anything, mock.Anything).Return(created, nil)
	notifier.On("NotifyDoctor", mock.Anything, doctorID, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mailbox unavailable"))

	svc := newTestService(repo, passthroughLocker{}, notifier)

	appt, err := svc.Book(context.Background(), patientID, doctorID, nil, scheduledAt, "follow-up")
	require.NoError(t, err)
	assert.Equal(t, created.ID, appt.ID)
}

func TestBookFallsBackWhenLockContended(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()
	scheduledAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	notifier := new(MockNotifier)

	repo.On("GetPatientByID", mock.Anything, patientID).Return(&Patient{ID: patientID}, nil)
	repo.On("GetDoctorByID", mock.Anything, doctorID).Return(&Doctor{ID: doctorID}, nil)
	repo.On("CountScheduledOnDate", mock.Anything, doctorID, mock.Anything).Return(4, nil)

	pos := 5
	created := &Appointment{ID: uuid.New(), QueuePosition: &pos, ScheduledAt: scheduledAt, Status: StatusScheduled}
	repo.On("CreateScheduled", mock.Anything, withPosition(5)).Return(created, nil)
	notifier.On("NotifyDoctor", mock.Anything, doctorID, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, contendedLocker{}, notifier)

	appt, err := svc.Book(context.Background(), patientID, doctorID, nil, scheduledAt, "vaccination")
	require.NoError(t, err)
	assert.Equal(t, 5, *appt.QueuePosition)
}

func TestBookDegradesWhenLockBackendDown(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()
	scheduledAt := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	notifier := new(MockNotifier)

	repo.On("GetPatientByID", mock.Anything, patientID).Return(&Patient{ID: patientID}, nil)
	repo.On("GetDoctorByID", mock.Anything, doctorID).Return(&Doctor{ID: doctorID}, nil)
	repo.On("CountScheduledOnDate", mock.Anything, doctorID, mock.Anything).Return(2, nil)

	pos := 3
	created := &Appointment{ID: uuid.New(), QueuePosition: &pos, ScheduledAt: scheduledAt, Status: StatusScheduled}
	repo.On("CreateScheduled", mock.Anything, withPosition(3)).Return(created, nil)
	notifier.On("NotifyDoctor", mock.Anything, doctorID, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, unreachableLocker{}, notifier)

	appt, err := svc.Book(context.Background(), patientID, doctorID, nil, scheduledAt, "dizziness")
	require.NoError(t, err)
	assert.Equal(t, 3, *appt.QueuePosition)
}

func TestBookDoesNotRetryAfterInsertFailure(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()

	repo := new(MockRepository)
	repo.On("GetPatientByID", mock.Anything, patientID).Return(&Patient{ID: patientID}, nil)
	repo.On("GetDoctorByID", mock.Anything, doctorID).Return(&Doctor{ID: doctorID}, nil)
	repo.On("CountScheduledOnDate", mock.Anything, doctorID, mock.Anything).Return(0, nil)
	repo.On("CreateScheduled", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed")).Once()

	svc := newTestService(repo, passthroughLocker{}, new(MockNotifier))

	_, err := svc.Book(context.Background(), patientID, doctorID, nil, time.Now(), "checkup")
	require.Error(t, err)
	repo.AssertNumberOfCalls(t, "CreateScheduled", 1)
}

func TestBookRejectsMissingReason(t *testing.T) {
	svc := newTestService(new(MockRepository), passthroughLocker{}, new(MockNotifier))

	_, err := svc.Book(context.Background(), uuid.New(), uuid.New(), nil, time.Now(), "   ")
	assert.ErrorIs(t, err, ErrMissingReason)
}

func TestBookRejectsUnknownPatient(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetPatientByID", mock.Anything, mock.Anything).Return(nil, ErrPatientNotFound)

	svc := newTestService(repo, passthroughLocker{}, new(MockNotifier))

	_, err := svc.Book(context.Background(), uuid.New(), uuid.New(), nil, time.Now(), "checkup")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestUpdateStatusValidatesTarget(t *testing.T) {
	svc := newTestService(new(MockRepository), passthroughLocker{}, new(MockNotifier))

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusPassesThrough(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	repo.On("UpdateStatus", mock.Anything, id, StatusCompleted).
		Return(&Appointment{ID: id, Status: StatusCompleted}, nil)

	svc := newTestService(repo, passthroughLocker{}, new(MockNotifier))

	appt, err := svc.UpdateStatus(context.Background(), id, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, appt.Status)
}
