package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LabStatus string

const (
	LabPending    LabStatus = "pending"
	LabProcessing LabStatus = "processing"
	LabCompleted  LabStatus = "completed"
	LabVerified   LabStatus = "verified"
)

type LabPayment string

const (
	LabPaymentPending LabPayment = "pending_payment"
	LabPaymentPaid    LabPayment = "paid"
	LabPaymentWaived  LabPayment = "waived"
)

type RxPayment string

const (
	RxPaymentUnbilled RxPayment = "unbilled"
	RxPaymentPending  RxPayment = "pending"
	RxPaymentPaid     RxPayment = "paid"
)

type LabPriority string

const (
	PriorityRoutine LabPriority = "routine"
	PriorityUrgent  LabPriority = "urgent"
	PriorityStat    LabPriority = "stat"
)

func (p LabPriority) Valid() bool {
	switch p {
	case PriorityRoutine, PriorityUrgent, PriorityStat:
		return true
	default:
		return false
	}
}

type LabOrder struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      *uuid.UUID
	TestName      string
	Price         decimal.Decimal
	Priority      LabPriority
	Status        LabStatus
	PaymentStatus LabPayment
	InvoiceID     *uuid.UUID
	Results       *string
	NormalRange   *string
	ResultAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PrescriptionOrder struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	Medications   string
	Dosage        string
	Cost          decimal.Decimal
	IsDispensed   bool
	PaymentStatus RxPayment
	InvoiceID     *uuid.UUID
	DispensedBy   *string
	DispensedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
