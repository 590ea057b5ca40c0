package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoicePending       InvoiceStatus = "pending"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

type ItemKind string

const (
	KindConsultation ItemKind = "consultation"
	KindLab          ItemKind = "lab"
	KindMedicine     ItemKind = "medicine"
	KindRoom         ItemKind = "room"
	KindOther        ItemKind = "other"
)

func (k ItemKind) Valid() bool {
	switch k {
	case KindConsultation, KindLab, KindMedicine, KindRoom, KindOther:
		return true
	default:
		return false
	}
}

// LineItem is one charge on an invoice. At most one of LabOrderID and
// PrescriptionID may be set; an item with neither is a free-form charge.
type LineItem struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	Kind           ItemKind
	Description    string
	Quantity       int
	UnitPrice      decimal.Decimal
	LabOrderID     *uuid.UUID
	PrescriptionID *uuid.UUID
}

// Total is quantity x unit price, unrounded.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Invoice is immutable after settlement apart from status corrections. The
// cashier flow always records full payment at creation, so pending,
// partially_paid and overdue are representable but never produced here.
type Invoice struct {
	ID         uuid.UUID
	Number     string
	PatientID  uuid.UUID
	IssuedOn   time.Time
	Items      []LineItem
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	PaidAmount decimal.Decimal
	Balance    decimal.Decimal
	Status     InvoiceStatus
	CreatedAt  time.Time
}
