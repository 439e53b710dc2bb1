package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/fedskywalker/four-in-a-row/internal/api"
	"github.com/fedskywalker/four-in-a-row/internal/room"
	"github.com/fedskywalker/four-in-a-row/internal/ws"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	logger := setupLogger(os.Getenv("LOG_FORMAT"))

	port := envString("PORT", "8080")
	roomTTL := envDuration(logger, "ROOM_TTL", time.Hour)
	sweepInterval := envDuration(logger, "SWEEP_INTERVAL", 10*time.Minute)

	registry := room.NewRegistry(logger)
	registry.StartSweeper(sweepInterval, roomTTL)

	wsHandler := ws.NewHandler(registry, logger)
	apiHandler := api.NewHandler(registry)

	r := mux.NewRouter()
	r.HandleFunc("/ws", wsHandler.Serve)
	r.HandleFunc("/healthz", apiHandler.Health).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           api.CORSMiddleware(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("relay server starting", "port", port, "room_ttl", roomTTL, "sweep_interval", sweepInterval)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	registry.Stop()
	logger.Info("server stopped")
}

func setupLogger(format string) *slog.Logger {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(logger *slog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
