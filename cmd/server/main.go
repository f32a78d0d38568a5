package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"divai/internal/app"
	"divai/internal/config"
	"divai/internal/ratelimit"
	"divai/internal/server"
	"divai/internal/util"
	"divai/pkg/ai"
	"divai/pkg/auth"
	"divai/pkg/notify"
	"divai/pkg/storage"
	"divai/pkg/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to init postgres store", err)
	}

	registry := ai.NewRegistry(cfg.DefaultProvider)
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			fatal("failed to init gemini provider", err)
		}
		registry.Register("gemini", gemini)
	}
	if cfg.GroqAPIKey != "" {
		groq, err := ai.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqModel)
		if err != nil {
			fatal("failed to init groq provider", err)
		}
		registry.Register("groq", groq)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, 7*24*time.Hour)
	if err != nil {
		fatal("failed to init token issuer", err)
	}

	var publisher notify.Publisher
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			fatal("failed to init notification publisher", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		slog.Warn("amqp url not set, notifications disabled")
	}

	var exports storage.ObjectStore
	if cfg.MinioConfig.Endpoint != "" {
		exports, err = storage.NewMinioStore(
			cfg.MinioConfig.Endpoint,
			cfg.MinioConfig.AccessKey,
			cfg.MinioConfig.SecretKey,
			cfg.MinioConfig.Bucket,
			cfg.MinioConfig.UseSSL,
		)
		if err != nil {
			fatal("failed to init export storage", err)
		}
	} else {
		slog.Warn("minio endpoint not set, admin exports disabled")
	}

	var authLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		authLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr,
			cfg.RedisPass,
			"divai:ratelimit",
			cfg.AuthRateLimit,
			time.Duration(cfg.AuthRateWindow)*time.Second,
		)
		if err != nil {
			fatal("failed to init auth rate limiter", err)
		}
	} else {
		slog.Warn("redis addr not set, auth rate limiting disabled")
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		fatal("failed to parse trusted proxies", err)
	}

	appCore, err := app.New(app.Config{
		Store:     dataStore,
		Providers: registry,
		Tokens:    tokens,
		Publisher: publisher,
		Exports:   exports,
		Cooldown: ratelimit.Cooldown{
			Window:   time.Duration(cfg.CooldownMS) * time.Millisecond,
			MaxChats: cfg.MaxChats,
		},
		HistoryWindow:     cfg.HistoryWindow,
		SystemPrompt:      cfg.SystemPrompt,
		AdminUsers:        cfg.AdminUsers,
		AdminEmail:        cfg.AdminEmail,
		NotifyAdminOnChat: cfg.NotifyAdminOnChat,
	})
	if err != nil {
		fatal("failed to init app", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		AuthLimiter:    authLimiter,
		TrustedProxies: trustedProxies,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("api server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal("server error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
