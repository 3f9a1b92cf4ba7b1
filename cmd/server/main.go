package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "semear/internal/adapters/http"
	pg "semear/internal/adapters/postgres"
	"semear/internal/config"
	"semear/internal/ports"
	auditsvc "semear/internal/services/audit"
	conflictsvc "semear/internal/services/conflict"
	eligsvc "semear/internal/services/eligibility"
	scoringsvc "semear/internal/services/scoring"
	"semear/internal/workers/notifier"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config", "error", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required for Postgres adapters")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
		logger.Error("db migrate", "error", err)
		os.Exit(1)
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Wire repositories to services (ports)
	var _ ports.CompanyRepository = db
	var _ ports.EvaluationRepository = db
	var _ ports.PartnershipRepository = db
	var _ ports.AuditRepository = db
	var _ ports.AlertQueue = db

	sink := auditsvc.NewSink(db, db, logger)
	scorer := scoringsvc.New()
	gate := conflictsvc.New(db, db, sink)
	eligibility := eligsvc.New(db, db, db, db)

	srv := httpadapter.New(scorer, gate, eligibility, db, db, db, cfg.EvaluationTTL, cfg.RequestTimeout, logger)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// Optional background alert delivery
	if cfg.AlertWorkers > 0 {
		go notifier.Run(ctx, db, notifier.SlogDeliverer{Logger: logger}, cfg.AlertWorkers, 500*time.Millisecond)
		logger.Info("alert workers started", "count", cfg.AlertWorkers)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	logger.Info("listening", "addr", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
