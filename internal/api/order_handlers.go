package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caresuite/clinical-workflow/internal/orders"
)

func createLabOrderHandler(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateLabOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		var doctorID *uuid.UUID
		if req.DoctorID != "" {
			id, err := uuid.Parse(req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}

		order, err := svc.CreateLabOrder(r.Context(), patientID, doctorID, req.TestName, orders.LabPriority(req.Priority))
		if err != nil {
			handleOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toLabOrderResponse(order))
	}
}

func getLabOrderHandler(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_order_id", "id must be a valid UUID")
			return
		}

		order, err := svc.GetLabOrder(r.Context(), id)
		if err != nil {
			handleOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toLabOrderResponse(order))
	}
}

func uploadLabResultHandler(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_order_id", "id must be a valid UUID")
			return
		}

		var req UploadLabResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Results == "" {
			writeError(w, http.StatusBadRequest, "missing_results", "results text is required")
			return
		}

		order, err := svc.UploadLabResult(r.Context(), id, req.Results, req.NormalRange)
		if err != nil {
			handleOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toLabOrderResponse(order))
	}
}

func createPrescriptionHandler(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		order, err := svc.CreatePrescription(r.Context(), patientID, doctorID, req.Medications, req.Dosage, req.Cost)
		if err != nil {
			handleOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPrescriptionResponse(order))
	}
}

func getPrescriptionHandler(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_order_id", "id must be a valid UUID")
			return
		}

		order, err := svc.GetPrescription(r.Context(), id)
		if err != nil {
			handleOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(order))
	}
}

func dispensePrescriptionHandler(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_order_id", "id must be a valid UUID")
			return
		}

		var req DispenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		order, err := svc.Dispense(r.Context(), id, req.DispensedBy)
		if err != nil {
			handleOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(order))
	}
}

func handleOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrPaymentRequired):
		// The actor needs to know the fix is payment, not a different input.
		writeError(w, http.StatusPaymentRequired, "payment_required", err.Error())
	case errors.Is(err, orders.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, orders.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, orders.ErrLabOrderNotFound):
		writeError(w, http.StatusNotFound, "lab_order_not_found", err.Error())
	case errors.Is(err, orders.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, orders.ErrAlreadyDispensed):
		writeError(w, http.StatusConflict, "already_dispensed", err.Error())
	case errors.Is(err, orders.ErrUnknownTest),
		errors.Is(err, orders.ErrInvalidPriority),
		errors.Is(err, orders.ErrMissingMedications),
		errors.Is(err, orders.ErrMissingDispenser),
		errors.Is(err, orders.ErrNegativeCost):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
