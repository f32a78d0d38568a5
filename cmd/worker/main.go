package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"divai/internal/config"
	"divai/internal/util"
	"divai/pkg/mail"
	"divai/pkg/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)

	if cfg.AMQPURL == "" {
		slog.Error("amqp url is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer, err := mail.NewSESMailer(ctx, cfg.AWSRegion, cfg.MailFrom)
	if err != nil {
		slog.Error("failed to init mailer", "err", err)
		os.Exit(1)
	}

	handler := func(ctx context.Context, ev notify.Event) error {
		if ev.To == "" {
			ev.To = cfg.AdminEmail
		}
		if ev.To == "" {
			slog.Warn("notification without recipient dropped", "kind", ev.Kind)
			return nil
		}
		msg, err := mail.Render(ev)
		if err != nil {
			return err
		}
		if err := mailer.Send(ctx, msg); err != nil {
			// Courtesy email is at-most-once; log and ack rather than loop.
			slog.Warn("mail send failed", "kind", ev.Kind, "to", ev.To, "error", err)
		}
		return nil
	}

	consumer, err := notify.NewConsumer(cfg.AMQPURL, handler)
	if err != nil {
		slog.Error("failed to init consumer", "err", err)
		os.Exit(1)
	}

	slog.Info("notification worker started")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("notification worker stopped")
}
