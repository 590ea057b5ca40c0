package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrBadDutyStart = errors.New("staff duty start is not HH:MM")

type Service struct {
	repo Repository
	log  zerolog.Logger
	tz   *time.Location
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger, tz *time.Location) *Service {
	return &Service{
		repo: repo,
		log:  log,
		tz:   tz,
		now:  time.Now,
	}
}

// CheckIn opens today's attendance record for a staff member. A second
// check-in on the same day is a no-op returning the existing record. Lateness
// is judged against the staff member's configured duty start in institution
// time.
func (s *Service) CheckIn(ctx context.Context, staffID uuid.UUID) (*Record, error) {
	now := s.now().In(s.tz)
	today := dateOf(now)

	existing, err := s.repo.GetRecordForDate(ctx, staffID, today)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("load attendance record: %w", err)
	}

	staff, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load staff: %w", err)
	}

	dutyStart, err := dutyStartOn(staff.DutyStart, now, s.tz)
	if err != nil {
		return nil, err
	}

	status := StatusPresent
	if now.After(dutyStart) {
		status = StatusLate
	}

	checkIn := now
	rec := &Record{
		StaffID:  staffID,
		WorkDate: today,
		CheckIn:  &checkIn,
		Status:   status,
	}

	created, err := s.repo.InsertRecord(ctx, rec)
	if errors.Is(err, ErrDuplicateRecord) {
		// Lost a check-in race; the row that won is the record for today.
		return s.repo.GetRecordForDate(ctx, staffID, today)
	}
	if err != nil {
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}

	return created, nil
}

// CheckOut closes today's record and computes hours worked. When there is no
// open record the result is (nil, nil): nothing to check out is not an error.
// A record that is already closed comes back unchanged.
func (s *Service) CheckOut(ctx context.Context, staffID uuid.UUID) (*Record, error) {
	now := s.now().In(s.tz)
	today := dateOf(now)

	rec, err := s.repo.GetRecordForDate(ctx, staffID, today)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load attendance record: %w", err)
	}

	if rec.CheckIn == nil {
		return nil, nil
	}
	if rec.CheckOut != nil {
		return rec, nil
	}

	hours := decimal.NewFromFloat(now.Sub(*rec.CheckIn).Hours()).Round(2)

	updated, err := s.repo.SetCheckOut(ctx, rec.ID, now, hours)
	if err != nil {
		return nil, fmt.Errorf("set check-out: %w", err)
	}
	return updated, nil
}

// MarkAbsentees inserts absent records for every staff member with no
// attendance row on the given date. Called by the attendance worker after
// close of day.
func (s *Service) MarkAbsentees(ctx context.Context, date time.Time) (int, error) {
	date = dateOf(date.In(s.tz))

	staffIDs, err := s.repo.ListStaffWithoutRecord(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("list staff without record: %w", err)
	}

	marked := 0
	for _, staffID := range staffIDs {
		rec := &Record{
			StaffID:  staffID,
			WorkDate: date,
			Status:   StatusAbsent,
		}
		if _, err := s.repo.InsertRecord(ctx, rec); err != nil {
			if errors.Is(err, ErrDuplicateRecord) {
				continue
			}
			s.log.Warn().Err(err).
				Str("staff_id", staffID.String()).
				Str("date", date.Format("2006-01-02")).
				Msg("could not mark staff absent")
			continue
		}
		marked++
	}

	return marked, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dutyStartOn(hhmm string, day time.Time, tz *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", hhmm, ErrBadDutyStart)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, tz), nil
}
