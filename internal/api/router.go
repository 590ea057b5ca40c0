package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/caresuite/clinical-workflow/internal/appointment"
	"github.com/caresuite/clinical-workflow/internal/attendance"
	"github.com/caresuite/clinical-workflow/internal/billing"
	"github.com/caresuite/clinical-workflow/internal/notification"
	"github.com/caresuite/clinical-workflow/internal/orders"
)

type RouterConfig struct {
	Appointments  *appointment.Service
	Orders        *orders.Service
	Billing       *billing.Service
	Attendance    *attendance.Service
	Notifications *notification.Service
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Logger        zerolog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointments
	r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
	r.Get("/appointments", listQueueHandler(cfg.Appointments))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/status", updateAppointmentStatusHandler(cfg.Appointments))

	// Lab orders
	r.Post("/lab-orders", createLabOrderHandler(cfg.Orders))
	r.Get("/lab-orders/{id}", getLabOrderHandler(cfg.Orders))
	r.Post("/lab-orders/{id}/results", uploadLabResultHandler(cfg.Orders))

	// Prescriptions
	r.Post("/prescriptions", createPrescriptionHandler(cfg.Orders))
	r.Get("/prescriptions/{id}", getPrescriptionHandler(cfg.Orders))
	r.Post("/prescriptions/{id}/dispense", dispensePrescriptionHandler(cfg.Orders))

	// Invoices
	r.Post("/invoices", createInvoiceHandler(cfg.Billing))
	r.Get("/invoices/{id}", getInvoiceHandler(cfg.Billing))

	// Attendance
	r.Post("/attendance/check-in", checkInHandler(cfg.Attendance))
	r.Post("/attendance/check-out", checkOutHandler(cfg.Attendance))

	// Notifications
	r.Post("/notifications/{id}/read", markNotificationReadHandler(cfg.Notifications))
	r.Post("/notifications/read-all", markAllNotificationsReadHandler(cfg.Notifications))

	return r
}
