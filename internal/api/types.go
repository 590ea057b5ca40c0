package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caresuite/clinical-workflow/internal/appointment"
	"github.com/caresuite/clinical-workflow/internal/attendance"
	"github.com/caresuite/clinical-workflow/internal/billing"
	"github.com/caresuite/clinical-workflow/internal/orders"
)

// Appointments

type BookAppointmentRequest struct {
	PatientID    string    `json:"patient_id"`
	DoctorID     string    `json:"doctor_id"`
	DepartmentID string    `json:"department_id,omitempty"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Reason       string    `json:"reason"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	DepartmentID  *uuid.UUID `json:"department_id,omitempty"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	QueuePosition *int       `json:"queue_position,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		DepartmentID:  a.DepartmentID,
		ScheduledAt:   a.ScheduledAt,
		Reason:        a.Reason,
		Status:        string(a.Status),
		QueuePosition: a.QueuePosition,
	}
}

// Orders

type CreateLabOrderRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id,omitempty"`
	TestName  string `json:"test_name"`
	Priority  string `json:"priority,omitempty"`
}

type UploadLabResultRequest struct {
	Results     string `json:"results"`
	NormalRange string `json:"normal_range,omitempty"`
}

type LabOrderResponse struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	DoctorID      *uuid.UUID      `json:"doctor_id,omitempty"`
	TestName      string          `json:"test_name"`
	Price         decimal.Decimal `json:"price"`
	Priority      string          `json:"priority"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	InvoiceID     *uuid.UUID      `json:"invoice_id,omitempty"`
	Results       *string         `json:"results,omitempty"`
	NormalRange   *string         `json:"normal_range,omitempty"`
	ResultAt      *time.Time      `json:"result_at,omitempty"`
}

func toLabOrderResponse(o *orders.LabOrder) LabOrderResponse {
	return LabOrderResponse{
		ID:            o.ID,
		PatientID:     o.PatientID,
		DoctorID:      o.DoctorID,
		TestName:      o.TestName,
		Price:         o.Price,
		Priority:      string(o.Priority),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		InvoiceID:     o.InvoiceID,
		Results:       o.Results,
		NormalRange:   o.NormalRange,
		ResultAt:      o.ResultAt,
	}
}

type CreatePrescriptionRequest struct {
	PatientID   string          `json:"patient_id"`
	DoctorID    string          `json:"doctor_id"`
	Medications string          `json:"medications"`
	Dosage      string          `json:"dosage,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
}

type DispenseRequest struct {
	DispensedBy string `json:"dispensed_by"`
}

type PrescriptionResponse struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	DoctorID      uuid.UUID       `json:"doctor_id"`
	Medications   string          `json:"medications"`
	Dosage        string          `json:"dosage,omitempty"`
	Cost          decimal.Decimal `json:"cost"`
	IsDispensed   bool            `json:"is_dispensed"`
	PaymentStatus string          `json:"payment_status"`
	InvoiceID     *uuid.UUID      `json:"invoice_id,omitempty"`
	DispensedBy   *string         `json:"dispensed_by,omitempty"`
	DispensedAt   *time.Time      `json:"dispensed_at,omitempty"`
}

func toPrescriptionResponse(o *orders.PrescriptionOrder) PrescriptionResponse {
	return PrescriptionResponse{
		ID:            o.ID,
		PatientID:     o.PatientID,
		DoctorID:      o.DoctorID,
		Medications:   o.Medications,
		Dosage:        o.Dosage,
		Cost:          o.Cost,
		IsDispensed:   o.IsDispensed,
		PaymentStatus: string(o.PaymentStatus),
		InvoiceID:     o.InvoiceID,
		DispensedBy:   o.DispensedBy,
		DispensedAt:   o.DispensedAt,
	}
}

// Billing

type InvoiceItemRequest struct {
	Kind           string          `json:"kind"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LabOrderID     string          `json:"lab_order_id,omitempty"`
	PrescriptionID string          `json:"prescription_id,omitempty"`
}

type CreateInvoiceRequest struct {
	PatientID string               `json:"patient_id"`
	Date      string               `json:"date"` // YYYY-MM-DD, defaults to today
	Items     []InvoiceItemRequest `json:"items"`
}

type InvoiceItemResponse struct {
	Kind           string          `json:"kind"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LabOrderID     *uuid.UUID      `json:"lab_order_id,omitempty"`
	PrescriptionID *uuid.UUID      `json:"prescription_id,omitempty"`
}

type InvoiceResponse struct {
	ID         uuid.UUID             `json:"id"`
	Number     string                `json:"number"`
	PatientID  uuid.UUID             `json:"patient_id"`
	IssuedOn   string                `json:"issued_on"`
	Items      []InvoiceItemResponse `json:"items"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	Tax        decimal.Decimal       `json:"tax"`
	Total      decimal.Decimal       `json:"total"`
	PaidAmount decimal.Decimal       `json:"paid_amount"`
	Balance    decimal.Decimal       `json:"balance"`
	Status     string                `json:"status"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			Kind:           string(item.Kind),
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			LabOrderID:     item.LabOrderID,
			PrescriptionID: item.PrescriptionID,
		})
	}

	return InvoiceResponse{
		ID:         inv.ID,
		Number:     inv.Number,
		PatientID:  inv.PatientID,
		IssuedOn:   inv.IssuedOn.Format("2006-01-02"),
		Items:      items,
		Subtotal:   inv.Subtotal,
		Tax:        inv.Tax,
		Total:      inv.Total,
		PaidAmount: inv.PaidAmount,
		Balance:    inv.Balance,
		Status:     string(inv.Status),
	}
}

// Attendance

type CheckInRequest struct {
	StaffID string `json:"staff_id"`
}

type CheckOutRequest struct {
	StaffID string `json:"staff_id"`
}

type AttendanceResponse struct {
	ID          uuid.UUID        `json:"id"`
	StaffID     uuid.UUID        `json:"staff_id"`
	WorkDate    string           `json:"work_date"`
	CheckIn     *time.Time       `json:"check_in,omitempty"`
	CheckOut    *time.Time       `json:"check_out,omitempty"`
	Status      string           `json:"status"`
	HoursWorked *decimal.Decimal `json:"hours_worked,omitempty"`
}

func toAttendanceResponse(r *attendance.Record) AttendanceResponse {
	return AttendanceResponse{
		ID:          r.ID,
		StaffID:     r.StaffID,
		WorkDate:    r.WorkDate.Format("2006-01-02"),
		CheckIn:     r.CheckIn,
		CheckOut:    r.CheckOut,
		Status:      string(r.Status),
		HoursWorked: r.HoursWorked,
	}
}

// Notifications

type MarkAllReadRequest struct {
	DoctorID string `json:"doctor_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
