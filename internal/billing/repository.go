package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound        = errors.New("patient not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrOrderAlreadyBilled     = errors.New("order is already billed on another invoice")
	ErrLabOrderNotFound       = errors.New("referenced lab order not found")
	ErrPrescriptionNotFound   = errors.New("referenced prescription order not found")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
)

// PropagationError reports a settlement that failed after the invoice write
// began. When the store could not roll everything back, the payment state of
// the referenced orders no longer matches the invoice and someone has to
// reconcile by hand; callers must log it with full context.
type PropagationError struct {
	InvoiceID       uuid.UUID
	Step            string
	LabOrderIDs     []uuid.UUID
	PrescriptionIDs []uuid.UUID
	Err             error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("invoice %s settlement failed at step %s: %v", e.InvoiceID, e.Step, e.Err)
}

func (e *PropagationError) Unwrap() error { return e.Err }

// Repository contains all DB interactions needed by the service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)

	// CreateInvoice persists the invoice, its items, and the paid-state
	// propagation onto every referenced order as one logical transaction.
	// Claiming an order must be conditional on it not being linked to any
	// invoice yet; a lost claim surfaces as ErrOrderAlreadyBilled and undoes
	// the whole settlement.
	CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)

	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
}
