package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/caresuite/clinical-workflow/internal/attendance"
	"github.com/caresuite/clinical-workflow/internal/config"
	"github.com/caresuite/clinical-workflow/internal/db"
	"github.com/caresuite/clinical-workflow/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "attendance-worker")
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, "attendance-worker")
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("attendance worker starting up")

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

	svc := attendance.NewService(attendance.NewPgRepository(pgPool), log, cfg.InstitutionTZ)

	// Run once at startup
	runOnce(rootCtx, svc, log, cfg.InstitutionTZ)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping attendance worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log, cfg.InstitutionTZ)
		}
	}
}

// runOnce marks absentees for the previous institution-local day. Inserts are
// idempotent, so overlapping runs just skip already-marked staff.
func runOnce(ctx context.Context, svc *attendance.Service, log zerolog.Logger, tz *time.Location) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	yesterday := time.Now().In(tz).AddDate(0, 0, -1)

	start := time.Now()
	marked, err := svc.MarkAbsentees(runCtx, yesterday)
	if err != nil {
		log.Error().Err(err).Msg("absentee run error")
		return
	}
	log.Info().
		Int("marked", marked).
		Str("date", yesterday.Format("2006-01-02")).
		Dur("took", time.Since(start)).
		Msg("absentee run complete")
}
