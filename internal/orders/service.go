package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentRequired is the gate rejection. It is deliberately distinct
	// from validation and not-found so callers can tell the actor to collect
	// payment first.
	ErrPaymentRequired = errors.New("payment required before fulfillment")

	ErrUnknownTest        = errors.New("unknown lab test")
	ErrMissingMedications = errors.New("medications text is required")
	ErrMissingDispenser   = errors.New("dispensed_by is required")
	ErrNegativeCost       = errors.New("cost must not be negative")
	ErrInvalidPriority    = errors.New("invalid lab priority")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// CreateLabOrder opens a lab order priced from the fixed test table. New
// orders always start unpaid.
func (s *Service) CreateLabOrder(ctx context.Context, patientID uuid.UUID, doctorID *uuid.UUID, testName string, priority LabPriority) (*LabOrder, error) {
	price, ok := LookupTestPrice(testName)
	if !ok {
		return nil, fmt.Errorf("%q: %w", testName, ErrUnknownTest)
	}

	if priority == "" {
		priority = PriorityRoutine
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}
	if doctorID != nil {
		if err := s.checkDoctor(ctx, *doctorID); err != nil {
			return nil, err
		}
	}

	order := &LabOrder{
		PatientID:     patientID,
		DoctorID:      doctorID,
		TestName:      strings.TrimSpace(testName),
		Price:         price,
		Priority:      priority,
		Status:        LabPending,
		PaymentStatus: LabPaymentPending,
	}

	created, err := s.repo.CreateLabOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create lab order: %w", err)
	}
	return created, nil
}

// UploadLabResult releases results for a lab order. The payment gate is
// enforced here regardless of what the UI allowed.
func (s *Service) UploadLabResult(ctx context.Context, id uuid.UUID, results, normalRange string) (*LabOrder, error) {
	order, err := s.repo.GetLabOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrLabOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load lab order: %w", err)
	}

	if !CanRelease(order) {
		return nil, fmt.Errorf("lab order %s is %s: %w", order.ID, order.PaymentStatus, ErrPaymentRequired)
	}

	updated, err := s.repo.SetLabResult(ctx, id, results, normalRange, s.now())
	if err != nil {
		return nil, fmt.Errorf("set lab result: %w", err)
	}
	return updated, nil
}

// CreatePrescription opens a prescription order. The cost is whatever the
// clinician entered; billing picks it up later, so it starts unbilled.
func (s *Service) CreatePrescription(ctx context.Context, patientID, doctorID uuid.UUID, medications, dosage string, cost decimal.Decimal) (*PrescriptionOrder, error) {
	if strings.TrimSpace(medications) == "" {
		return nil, ErrMissingMedications
	}
	if cost.IsNegative() {
		return nil, ErrNegativeCost
	}

	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}
	if err := s.checkDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	order := &PrescriptionOrder{
		PatientID:     patientID,
		DoctorID:      doctorID,
		Medications:   medications,
		Dosage:        dosage,
		Cost:          cost,
		PaymentStatus: RxPaymentUnbilled,
	}

	created, err := s.repo.CreatePrescription(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return created, nil
}

// Dispense hands out a prescription. Only a paid order passes the gate; a
// waiver never unlocks dispensing here.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID, dispensedBy string) (*PrescriptionOrder, error) {
	if strings.TrimSpace(dispensedBy) == "" {
		return nil, ErrMissingDispenser
	}

	order, err := s.repo.GetPrescriptionByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPrescriptionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load prescription: %w", err)
	}

	if !CanDispense(order) {
		return nil, fmt.Errorf("prescription %s is %s: %w", order.ID, order.PaymentStatus, ErrPaymentRequired)
	}
	if order.IsDispensed {
		return nil, ErrAlreadyDispensed
	}

	updated, err := s.repo.MarkDispensed(ctx, id, dispensedBy, s.now())
	if err != nil {
		if errors.Is(err, ErrAlreadyDispensed) {
			return nil, err
		}
		return nil, fmt.Errorf("mark dispensed: %w", err)
	}
	return updated, nil
}

// GetLabOrder retrieves a lab order by ID.
func (s *Service) GetLabOrder(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	order, err := s.repo.GetLabOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrLabOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get lab order: %w", err)
	}
	return order, nil
}

// GetPrescription retrieves a prescription order by ID.
func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*PrescriptionOrder, error) {
	order, err := s.repo.GetPrescriptionByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPrescriptionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return order, nil
}

func (s *Service) checkPatient(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.PatientExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

func (s *Service) checkDoctor(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.DoctorExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check doctor: %w", err)
	}
	if !ok {
		return ErrDoctorNotFound
	}
	return nil
}
