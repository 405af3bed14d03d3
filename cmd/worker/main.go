package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/mahosalu/estadisticas/internal/mail"
	"github.com/mahosalu/estadisticas/internal/tasks"
	"github.com/mahosalu/estadisticas/pkg/config"
	"github.com/mahosalu/estadisticas/pkg/queue"
	"github.com/mahosalu/estadisticas/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "worker")
	slog.SetDefault(logger)

	logger.Info("starting estadisticas worker")

	mailer, err := mail.NewMailer(&cfg.SMTP)
	if err != nil {
		logger.Error("failed to configure SMTP client", "error", err)
		os.Exit(1)
	}

	srv := queue.NewServer(&cfg.Redis, 5)

	handler := tasks.NewHandler(logger, mailer, cfg.Server.BaseURL)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	<-ctx.Done()

	logger.Info("worker stopped")
}
