package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/clawdnet/clawdnet/internal/adapters/events/direct"
	natsevents "github.com/clawdnet/clawdnet/internal/adapters/events/nats"
	"github.com/clawdnet/clawdnet/internal/api"
	"github.com/clawdnet/clawdnet/internal/auth"
	"github.com/clawdnet/clawdnet/internal/config"
	"github.com/clawdnet/clawdnet/internal/effects"
	"github.com/clawdnet/clawdnet/internal/executor"
	"github.com/clawdnet/clawdnet/internal/forwarder"
	"github.com/clawdnet/clawdnet/internal/invoke"
	"github.com/clawdnet/clawdnet/internal/pkg/safehttp"
	"github.com/clawdnet/clawdnet/internal/server"
	"github.com/clawdnet/clawdnet/internal/storage"
	"github.com/clawdnet/clawdnet/internal/storage/memory"
	"github.com/clawdnet/clawdnet/internal/storage/sqlite"
	"github.com/clawdnet/clawdnet/internal/telemetry"
	"github.com/clawdnet/clawdnet/internal/x402"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("clawdnet", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store storage.Store
	switch cfg.Storage.Type {
	case "memory":
		store = memory.New()
	default:
		store, err = sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open storage: %v", err)
		}
	}
	defer store.Close()

	var publisher effects.Publisher
	if cfg.Events.Type == "nats" {
		publisher, err = natsevents.NewPublisher(cfg.Events.NATS.URL)
		if err != nil {
			log.Fatalf("Failed to connect event publisher: %v", err)
		}
	} else {
		publisher = direct.NewPublisher(logger)
	}
	defer publisher.Close()

	webhooks := effects.NewWebhookDispatcher(
		time.Duration(cfg.Webhooks.TimeoutSeconds)*time.Second,
		cfg.Webhooks.Retries,
	)
	sink := effects.NewSink(store, publisher, webhooks, logger)

	facilitator := x402.NewFacilitatorClient(
		cfg.Facilitator.URL,
		time.Duration(cfg.Facilitator.TimeoutSeconds)*time.Second,
		logger,
	)

	fwd := forwarder.New(
		&http.Client{Transport: safehttp.NewTransport()},
		time.Duration(cfg.Invoke.ForwardTimeoutSeconds)*time.Second,
	)

	orchestrator := invoke.New(store, facilitator, fwd, executor.NewMock(), sink, invoke.Policy{
		Network:         cfg.Invoke.Network,
		ForwardFallback: cfg.Invoke.ForwardFallback,
	}, logger)

	var authenticator *auth.Authenticator
	if len(cfg.Auth.APIKeyHashes) > 0 {
		authenticator = auth.NewAuthenticator(cfg.Auth.APIKeyHashes)
	}

	srv := server.New(cfg.Server.Port, logger)
	handler := api.NewHandler(store, orchestrator, cfg.Registry.Address, logger)
	handler.Mount(srv.Router, authenticator)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("clawdnet started",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Type),
		slog.String("facilitator", facilitator.BaseURL()),
		slog.String("network", cfg.Invoke.Network),
		slog.Bool("forward_fallback", cfg.Invoke.ForwardFallback),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	// Drain in-flight side effects before closing the store
	sink.Wait()

	logger.Info("clawdnet shutdown complete")
}
