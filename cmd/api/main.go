package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/room-engine/internal/config"
	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/internal/handlers"
	"github.com/jwebster45206/room-engine/internal/logger"
	"github.com/jwebster45206/room-engine/internal/middleware"
	"github.com/jwebster45206/room-engine/internal/storage"
	"github.com/jwebster45206/room-engine/pkg/action"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Room Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"strict_validation", cfg.StrictValidation)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.StrictValidation, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	processor := action.NewProcessor(cfg.StrictValidation)
	notifier := events.NewBroadcaster(store.Client(), log)
	hub := events.NewHub(log)

	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	relay := events.NewRelay(store.Client(), hub, log)
	go func() {
		if err := relay.Run(relayCtx); err != nil && relayCtx.Err() == nil {
			log.Error("Event relay stopped", "error", err)
		}
	}()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	actionHandler := handlers.NewActionHandler(store, processor, notifier, log)
	roomsHandler := handlers.NewRoomsHandler(store, log)
	mux.Handle("/v1/rooms", roomsHandler)
	mux.Handle("/v1/rooms/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/action") {
			actionHandler.ServeHTTP(w, r)
			return
		}
		roomsHandler.ServeHTTP(w, r)
	}))

	progressHandler := handlers.NewProgressHandler(store, notifier, log)
	mux.Handle("/v1/progress", progressHandler)
	mux.Handle("/v1/progress/", progressHandler)

	wsHandler := handlers.NewWSHandler(store, hub, log)
	mux.Handle("/v1/ws", wsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset so long-lived websocket connections
		// are not cut off.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	relayCancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
