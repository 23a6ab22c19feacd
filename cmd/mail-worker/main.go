package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-api/internal/config"
	"blog-api/internal/messaging"
	"blog-api/internal/observability"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting mail worker")

	rmqCtx, rmqCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer rmqCancel()

	rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
	if err != nil {
		slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rmq.Close()

	slog.Info("connected to rabbitmq")

	msgs, err := rmq.ConsumeEmails()
	if err != nil {
		slog.Error("failed to start consuming", slog.String("error", err.Error()))
		os.Exit(1)
	}

	worker := messaging.NewEmailWorker(messaging.NewLogMailer(slog.Default()), 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx, msgs)
	}()

	slog.Info("mail worker is ready", slog.String("queue", messaging.EmailQueue))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		slog.Info("shutting down mail worker")
	case <-done:
		slog.Warn("email consumer stopped unexpectedly")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		slog.Warn("timed out waiting for in-flight email")
	}
	slog.Info("mail worker stopped")
}
