package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CreateLabOrder(ctx context.Context, o *LabOrder) (*LabOrder, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LabOrder), args.Error(1)
}

func (m *MockRepository) GetLabOrderByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LabOrder), args.Error(1)
}

func (m *MockRepository) SetLabResult(ctx context.Context, id uuid.UUID, results, normalRange string, at time.Time) (*LabOrder, error) {
	args := m.Called(ctx, id, results, normalRange, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LabOrder), args.Error(1)
}

func (m *MockRepository) CreatePrescription(ctx context.Context, o *PrescriptionOrder) (*PrescriptionOrder, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PrescriptionOrder), args.Error(1)
}

func (m *MockRepository) GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*PrescriptionOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PrescriptionOrder), args.Error(1)
}

func (m *MockRepository) MarkDispensed(ctx context.Context, id uuid.UUID, dispensedBy string, at time.Time) (*PrescriptionOrder, error) {
	args := m.Called(ctx, id, dispensedBy, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PrescriptionOrder), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}

func TestGatePredicates(t *testing.T) {
	for _, tc := range []struct {
		payment LabPayment
		want    bool
	}{
		{LabPaymentPending, false},
		{LabPaymentPaid, true},
		{LabPaymentWaived, true},
	} {
		assert.Equal(t, tc.want, CanRelease(&LabOrder{PaymentStatus: tc.payment}), "lab %s", tc.payment)
	}

	for _, tc := range []struct {
		payment RxPayment
		want    bool
	}{
		{RxPaymentUnbilled, false},
		{RxPaymentPending, false},
		{RxPaymentPaid, true},
	} {
		assert.Equal(t, tc.want, CanDispense(&PrescriptionOrder{PaymentStatus: tc.payment}), "rx %s", tc.payment)
	}
}

func TestCreateLabOrderPricesFromTable(t *testing.T) {
	patientID := uuid.New()

	repo := new(MockRepository)
	repo.On("PatientExists", mock.Anything, patientID).Return(true, nil)
	repo.On("CreateLabOrder", mock.Anything, mock.MatchedBy(func(o *LabOrder) bool {
		return o.Price.Equal(decimal.NewFromInt(45)) && o.PaymentStatus == LabPaymentPending
	})).Return(&LabOrder{
		ID:            uuid.New(),
		TestName:      "Lipid Panel",
		Price:         decimal.NewFromInt(45),
		Status:        LabPending,
		PaymentStatus: LabPaymentPending,
	}, nil)

	svc := newTestService(repo)

	order, err := svc.CreateLabOrder(context.Background(), patientID, nil, "Lipid Panel", "")
	require.NoError(t, err)
	assert.Equal(t, LabPaymentPending, order.PaymentStatus)
	assert.True(t, order.Price.Equal(decimal.NewFromInt(45)))

	repo.AssertExpectations(t)
}

func TestCreateLabOrderRejectsUnknownTest(t *testing.T) {
	svc := newTestService(new(MockRepository))

	_, err := svc.CreateLabOrder(context.Background(), uuid.New(), nil, "phrenology consult", "")
	assert.ErrorIs(t, err, ErrUnknownTest)
}

func TestUploadLabResultBlockedUntilPaid(t *testing.T) {
	id := uuid.New()

	repo := new(MockRepository)
	repo.On("GetLabOrderByID", mock.Anything, id).Return(&LabOrder{
		ID:            id,
		PaymentStatus: LabPaymentPending,
	}, nil)

	svc := newTestService(repo)

	_, err := svc.UploadLabResult(context.Background(), id, "WBC 9.1", "4.0-11.0")
	assert.ErrorIs(t, err, ErrPaymentRequired)
	repo.AssertNotCalled(t, "SetLabResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadLabResultAcceptsPaidAndWaived(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	for _, payment := range []LabPayment{LabPaymentPaid, LabPaymentWaived} {
		t.Run(string(payment), func(t *testing.T) {
			id := uuid.New()
			results := "WBC 9.1"

			repo := new(MockRepository)
			repo.On("GetLabOrderByID", mock.Anything, id).Return(&LabOrder{
				ID:            id,
				PaymentStatus: payment,
			}, nil)
			repo.On("SetLabResult", mock.Anything, id, results, "4.0-11.0", now).Return(&LabOrder{
				ID:            id,
				Status:        LabCompleted,
				PaymentStatus: payment,
				Results:       &results,
			}, nil)

			svc := newTestService(repo)
			svc.now = func() time.Time { return now }

			order, err := svc.UploadLabResult(context.Background(), id, results, "4.0-11.0")
			require.NoError(t, err)
			assert.Equal(t, LabCompleted, order.Status)
		})
	}
}

func TestDispenseBlockedUntilPaid(t *testing.T) {
	for _, payment := range []RxPayment{RxPaymentUnbilled, RxPaymentPending} {
		t.Run(string(payment), func(t *testing.T) {
			id := uuid.New()

			repo := new(MockRepository)
			repo.On("GetPrescriptionByID", mock.Anything, id).Return(&PrescriptionOrder{
				ID:            id,
				PaymentStatus: payment,
			}, nil)

			svc := newTestService(repo)

			_, err := svc.Dispense(context.Background(), id, "J. Okafor")
			assert.ErrorIs(t, err, ErrPaymentRequired)
			repo.AssertNotCalled(t, "MarkDispensed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDispensePaidOrder(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 3, 10, 16, 45, 0, 0, time.UTC)
	by := "J. Okafor"

	repo := new(MockRepository)
	repo.On("GetPrescriptionByID", mock.Anything, id).Return(&PrescriptionOrder{
		ID:            id,
		PaymentStatus: RxPaymentPaid,
	}, nil)
	repo.On("MarkDispensed", mock.Anything, id, by, now).Return(&PrescriptionOrder{
		ID:            id,
		PaymentStatus: RxPaymentPaid,
		IsDispensed:   true,
		DispensedBy:   &by,
		DispensedAt:   &now,
	}, nil)

	svc := newTestService(repo)
	svc.now = func() time.Time { return now }

	order, err := svc.Dispense(context.Background(), id, by)
	require.NoError(t, err)
	assert.True(t, order.IsDispensed)
	assert.Equal(t, &by, order.DispensedBy)

	repo.AssertExpectations(t)
}

func TestDispenseTwiceConflicts(t *testing.T) {
	id := uuid.New()

	repo := new(MockRepository)
	repo.On("GetPrescriptionByID", mock.Anything, id).Return(&PrescriptionOrder{
		ID:            id,
		PaymentStatus: RxPaymentPaid,
		IsDispensed:   true,
	}, nil)

	svc := newTestService(repo)

	_, err := svc.Dispense(context.Background(), id, "J. Okafor")
	assert.ErrorIs(t, err, ErrAlreadyDispensed)
}

func TestCreatePrescriptionStartsUnbilled(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()

	repo := new(MockRepository)
	repo.On("PatientExists", mock.Anything, patientID).Return(true, nil)
	repo.On("DoctorExists", mock.Anything, doctorID).Return(true, nil)
	repo.On("CreatePrescription", mock.Anything, mock.MatchedBy(func(o *PrescriptionOrder) bool {
		return o.PaymentStatus == RxPaymentUnbilled && !o.IsDispensed
	})).Return(&PrescriptionOrder{ID: uuid.New(), PaymentStatus: RxPaymentUnbilled}, nil)

	svc := newTestService(repo)

	order, err := svc.CreatePrescription(context.Background(), patientID, doctorID, "Amoxicillin 500mg", "3x daily", decimal.NewFromInt(12))
	require.NoError(t, err)
	assert.Equal(t, RxPaymentUnbilled, order.PaymentStatus)
}

func TestCreatePrescriptionRejectsNegativeCost(t *testing.T) {
	svc := newTestService(new(MockRepository))

	_, err := svc.CreatePrescription(context.Background(), uuid.New(), uuid.New(), "Ibuprofen", "", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrNegativeCost)
}
