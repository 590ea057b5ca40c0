package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caresuite/clinical-workflow/internal/api"
	"github.com/caresuite/clinical-workflow/internal/appointment"
	"github.com/caresuite/clinical-workflow/internal/attendance"
	"github.com/caresuite/clinical-workflow/internal/billing"
	"github.com/caresuite/clinical-workflow/internal/config"
	"github.com/caresuite/clinical-workflow/internal/db"
	"github.com/caresuite/clinical-workflow/internal/logging"
	"github.com/caresuite/clinical-workflow/internal/notification"
	"github.com/caresuite/clinical-workflow/internal/orders"
	redisclient "github.com/caresuite/clinical-workflow/internal/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "api-server")
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, "api-server")
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	locker := redisclient.NewRedisKeyLocker(rdb, cfg.LockTTL)

	notifySvc := notification.NewService(notification.NewPgRepository(pgPool), log)
	apptSvc := appointment.NewService(appointment.NewPgRepository(pgPool), locker, notifySvc, log, cfg.InstitutionTZ)
	orderSvc := orders.NewService(orders.NewPgRepository(pgPool), log)
	billingSvc := billing.NewService(billing.NewPgRepository(pgPool), log, cfg.TaxRate, cfg.InvoicePrefix)
	attendanceSvc := attendance.NewService(attendance.NewPgRepository(pgPool), log, cfg.InstitutionTZ)

	router := api.NewRouter(api.RouterConfig{
		Appointments:  apptSvc,
		Orders:        orderSvc,
		Billing:       billingSvc,
		Attendance:    attendanceSvc,
		Notifications: notifySvc,
		PgPool:        pgPool,
		Redis:         rdb,
		Logger:        log,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
