package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/app"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/config"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/logging"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.New(cfg.LogFormat, cfg.LogLevel)

	a := app.New(cfg)
	srv, err := a.Server()
	if err != nil {
		slog.Error("Failed to build the dialog system", "error", err)
		a.Shutdown(context.Background())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx, cfg.AdminAddr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	a.Shutdown(shutdownCtx)

	if runErr != nil {
		slog.Error("Server stopped with error", "error", runErr)
		os.Exit(1)
	}
	slog.Info("Server exited properly")
}
