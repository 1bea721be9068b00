package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifesim/internal/api"
	"lifesim/internal/catalog"
	"lifesim/internal/clock"
	"lifesim/internal/config"
	"lifesim/internal/game"
	"lifesim/internal/hub"
	"lifesim/internal/logging"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cat, err := catalog.Load(cfg.Game.CatalogPath)
	if err != nil {
		logger.Fatal("load catalog", zap.Error(err))
	}
	rules, err := cfg.Game.Rules()
	if err != nil {
		logger.Fatal("rules", zap.Error(err))
	}
	engine, err := game.NewEngine(cat, rules, logger.Named("engine"), game.WithMaxSessions(cfg.Game.MaxSessions))
	if err != nil {
		logger.Fatal("engine init failed", zap.Error(err))
	}

	events := hub.New(logger.Named("hub"))
	turns := clock.New(engine, events, clock.Config{
		TurnDuration: cfg.TurnDuration,
		ResultDelay:  cfg.ResultDelay,
	}, logger.Named("clock"))
	defer turns.Close()

	server := api.New(engine, turns, events, logger.Named("api"))
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("lifesim api listening",
		zap.String("addr", cfg.Addr),
		zap.Duration("turn_duration", cfg.TurnDuration),
		zap.Int("max_days", rules.MaxDays))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}
