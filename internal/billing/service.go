package billing

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
	ErrNoLineItems       = errors.New("invoice needs at least one line item")
	ErrInvalidQuantity   = errors.New("line item quantity must be at least 1")
	ErrInvalidUnitPrice  = errors.New("line item unit price must not be negative")
	ErrInvalidItemKind   = errors.New("invalid line item kind")
	ErrAmbiguousItemRef  = errors.New("line item may reference a lab order or a prescription, not both")
	ErrDuplicateOrderRef = errors.New("order referenced by more than one line item")

	// ErrSettlementFailed wraps a PropagationError after it has been logged
	// for manual reconciliation.
	ErrSettlementFailed = errors.New("invoice settlement failed")
)

type Service struct {
	repo    Repository
	log     zerolog.Logger
	taxRate decimal.Decimal
	prefix  string
}

func NewService(repo Repository, log zerolog.Logger, taxRate float64, prefix string) *Service {
	return &Service{
		repo:    repo,
		log:     log,
		taxRate: decimal.NewFromFloat(taxRate),
		prefix:  prefix,
	}
}

// CreateInvoice aggregates the given charges into a single invoice, records
// it as fully paid, and propagates the paid state onto every referenced lab
// and prescription order. The cashier flow has no partial-payment path.
func (s *Service) CreateInvoice(ctx context.Context, patientID uuid.UUID, issuedOn time.Time, items []LineItem) (*Invoice, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	ok, err := s.repo.PatientExists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total())
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax)

	inv := &Invoice{
		Number:     s.newInvoiceNumber(issuedOn),
		PatientID:  patientID,
		IssuedOn:   issuedOn,
		Items:      items,
		Subtotal:   subtotal,
		Tax:        tax,
		Total:      total,
		PaidAmount: total,
		Balance:    decimal.Zero,
		Status:     InvoicePaid,
	}

	created, err := s.repo.CreateInvoice(ctx, inv)
	if errors.Is(err, ErrDuplicateInvoiceNumber) {
		// Number collisions are rare; one regenerate-and-retry is enough.
		inv.Number = s.newInvoiceNumber(issuedOn)
		created, err = s.repo.CreateInvoice(ctx, inv)
	}
	if err != nil {
		var pe *PropagationError
		if errors.As(err, &pe) {
			s.logInconsistency(pe)
			return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		}
		if errors.Is(err, ErrOrderAlreadyBilled) ||
			errors.Is(err, ErrLabOrderNotFound) ||
			errors.Is(err, ErrPrescriptionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	return created, nil
}

// GetInvoice retrieves an invoice with its line items.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func validateItems(items []LineItem) error {
	if len(items) == 0 {
		return ErrNoLineItems
	}

	seen := make(map[uuid.UUID]bool)
	for i, item := range items {
		if !item.Kind.Valid() {
			return fmt.Errorf("item %d: %w", i, ErrInvalidItemKind)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: %w", i, ErrInvalidUnitPrice)
		}
		if item.LabOrderID != nil && item.PrescriptionID != nil {
			return fmt.Errorf("item %d: %w", i, ErrAmbiguousItemRef)
		}

		for _, ref := range []*uuid.UUID{item.LabOrderID, item.PrescriptionID} {
			if ref == nil {
				continue
			}
			if seen[*ref] {
				return fmt.Errorf("item %d (order %s): %w", i, *ref, ErrDuplicateOrderRef)
			}
			seen[*ref] = true
		}
	}

	return nil
}

// newInvoiceNumber builds <prefix>-<yyyymmdd>-<8 hex>. Uniqueness comes from
// the uuid suffix and a unique index, not from the date.
func (s *Service) newInvoiceNumber(on time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", s.prefix, on.Format("20060102"), suffix)
}

func (s *Service) logInconsistency(pe *PropagationError) {
	labIDs := make([]string, 0, len(pe.LabOrderIDs))
	for _, id := range pe.LabOrderIDs {
		labIDs = append(labIDs, id.String())
	}
	rxIDs := make([]string, 0, len(pe.PrescriptionIDs))
	for _, id := range pe.PrescriptionIDs {
		rxIDs = append(rxIDs, id.String())
	}

	s.log.Error().
		Err(pe.Err).
		Str("invoice_id", pe.InvoiceID.String()).
		Str("step", pe.Step).
		Strs("lab_order_ids", labIDs).
		Strs("prescription_ids", rxIDs).
		Msg("invoice settlement left inconsistent payment state, manual reconciliation required")
}
