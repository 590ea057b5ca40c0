package orders

// The payment gate is the only enforcement point for fulfillment; the UI may
// disable buttons but the predicates below are re-checked on every call.

// CanRelease reports whether a lab order's results may be released. A waived
// order releases like a paid one.
func CanRelease(o *LabOrder) bool {
	return o.PaymentStatus == LabPaymentPaid || o.PaymentStatus == LabPaymentWaived
}

// CanDispense reports whether a prescription may be dispensed. Unlike lab
// releases, a waiver never unlocks dispensing.
func CanDispense(o *PrescriptionOrder) bool {
	return o.PaymentStatus == RxPaymentPaid
}
