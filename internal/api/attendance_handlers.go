package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/caresuite/clinical-workflow/internal/attendance"
)

func checkInHandler(svc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}

		rec, err := svc.CheckIn(r.Context(), staffID)
		if err != nil {
			handleAttendanceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAttendanceResponse(rec))
	}
}

func checkOutHandler(svc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckOutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}

		rec, err := svc.CheckOut(r.Context(), staffID)
		if err != nil {
			handleAttendanceError(w, err)
			return
		}

		// Nothing to check out is an empty result, not an error.
		if rec == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, toAttendanceResponse(rec))
	}
}

func handleAttendanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff_not_found", err.Error())
	case errors.Is(err, attendance.ErrBadDutyStart):
		writeError(w, http.StatusInternalServerError, "bad_duty_start", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
