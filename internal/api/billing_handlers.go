package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caresuite/clinical-workflow/internal/billing"
)

func createInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		issuedOn := time.Now()
		if req.Date != "" {
			issuedOn, err = time.Parse("2006-01-02", req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
		}

		items := make([]billing.LineItem, 0, len(req.Items))
		for i, reqItem := range req.Items {
			item := billing.LineItem{
				Kind:        billing.ItemKind(reqItem.Kind),
				Description: reqItem.Description,
				Quantity:    reqItem.Quantity,
				UnitPrice:   reqItem.UnitPrice,
			}

			if reqItem.LabOrderID != "" {
				id, err := uuid.Parse(reqItem.LabOrderID)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_lab_order_id", "items["+strconv.Itoa(i)+"].lab_order_id must be a valid UUID")
					return
				}
				item.LabOrderID = &id
			}
			if reqItem.PrescriptionID != "" {
				id, err := uuid.Parse(reqItem.PrescriptionID)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_prescription_id", "items["+strconv.Itoa(i)+"].prescription_id must be a valid UUID")
					return
				}
				item.PrescriptionID = &id
			}

			items = append(items, item)
		}

		inv, err := svc.CreateInvoice(r.Context(), patientID, issuedOn, items)
		if err != nil {
			handleBillingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
	}
}

func getInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		inv, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			handleBillingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func handleBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, billing.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, billing.ErrLabOrderNotFound):
		writeError(w, http.StatusNotFound, "lab_order_not_found", err.Error())
	case errors.Is(err, billing.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, billing.ErrOrderAlreadyBilled):
		writeError(w, http.StatusConflict, "order_already_billed", err.Error())
	case errors.Is(err, billing.ErrNoLineItems),
		errors.Is(err, billing.ErrInvalidQuantity),
		errors.Is(err, billing.ErrInvalidUnitPrice),
		errors.Is(err, billing.ErrInvalidItemKind),
		errors.Is(err, billing.ErrAmbiguousItemRef),
		errors.Is(err, billing.ErrDuplicateOrderRef):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
