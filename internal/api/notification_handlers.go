package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caresuite/clinical-workflow/internal/notification"
)

func markNotificationReadHandler(svc *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_notification_id", "id must be a valid UUID")
			return
		}

		if err := svc.MarkRead(r.Context(), id); err != nil {
			if errors.Is(err, notification.ErrNotificationNotFound) {
				writeError(w, http.StatusNotFound, "notification_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func markAllNotificationsReadHandler(svc *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MarkAllReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var doctorID, userID *uuid.UUID
		if req.DoctorID != "" {
			id, err := uuid.Parse(req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}
		if req.UserID != "" {
			id, err := uuid.Parse(req.UserID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a valid UUID")
				return
			}
			userID = &id
		}
		if doctorID == nil && userID == nil {
			writeError(w, http.StatusBadRequest, "missing_recipient", "either doctor_id or user_id is required")
			return
		}

		n, err := svc.MarkAllRead(r.Context(), doctorID, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, MarkAllReadResponse{Updated: n})
	}
}
