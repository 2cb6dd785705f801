package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johncui/moodlens/pkg/config"
	"github.com/johncui/moodlens/pkg/model"
	"github.com/johncui/moodlens/pkg/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := config.Load(os.Getenv("MOODLENS_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := store.NewService(ctx, store.Options{
		DBPath:       cfg.DBPath,
		Location:     loc,
		LookbackDays: cfg.LookbackDays,
		DirtySize:    cfg.DirtyBufferSize,
		DirtyTTL:     cfg.DirtyBufferTTL,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("failed to init service: %v", err)
	}
	defer svc.Close()

	if n, err := svc.MarkActive(ctx); err != nil {
		logger.Error("mark active users failed", "err", err)
	} else {
		logger.Info("queued active users for refresh", "users", n)
	}
	go startRefreshLoop(ctx, svc, cfg.RefreshEvery, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(svc, loc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting moodlens server", "addr", cfg.ListenAddr, "db", cfg.DBPath,
		"timezone", loc.String(), "lookback_days", cfg.LookbackDays)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func startRefreshLoop(ctx context.Context, svc model.InsightService, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		every = 15 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := svc.Refresh(ctx); err != nil {
				logger.Error("insight refresh failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
