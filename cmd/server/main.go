package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/database"
	"github.com/xtding233/gacha-sim/internal/logger"
	"github.com/xtding233/gacha-sim/internal/server"
	"github.com/xtding233/gacha-sim/internal/stats"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(cfg.Log.Logger("gacha-stats"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open stats store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Stats store ready", "store", cfg.Store)

	srv := server.New(cfg, stats.NewService(store))
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
