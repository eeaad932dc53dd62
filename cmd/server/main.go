package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/EmadAlmahdi/WebSocketServer/hub"
	"github.com/EmadAlmahdi/WebSocketServer/internal/config"
	"github.com/EmadAlmahdi/WebSocketServer/internal/eventbus"
	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
	"github.com/EmadAlmahdi/WebSocketServer/registry"
	"github.com/EmadAlmahdi/WebSocketServer/relay"
	"github.com/EmadAlmahdi/WebSocketServer/router"
	"github.com/EmadAlmahdi/WebSocketServer/websocket"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (json or yaml)")
	flag.Parse()

	// optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load(config.LoadOptions{Path: configPath})
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	bus := eventbus.NewInMemoryBus(1024)
	collector := eventbus.NewCollector()
	collector.Attach(bus)
	bus.Start(ctx)

	relayHub := hub.New(hub.Options{
		Logger:        logger,
		EventBus:      bus,
		HistorySize:   cfg.Hub.HistorySize,
		HistoryReplay: cfg.Hub.HistoryReplay,
	})

	handlers := registry.NewHandlerRegistry()
	relay.RegisterHandlers(handlers, relayHub, logger)

	wsServer := websocket.NewServer(relayHub, router.NewRouter(handlers, logger), logger, websocket.ConnectionOptions{
		WriteTimeout:    cfg.Websocket.WriteTimeout,
		ReadTimeout:     cfg.Websocket.ReadTimeout,
		PingInterval:    cfg.Websocket.PingInterval,
		MaxMessageSize:  cfg.Websocket.MaxMessageSize,
		ReadBufferSize:  cfg.Websocket.ReadBufferSize,
		WriteBufferSize: cfg.Websocket.WriteBufferSize,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", wsServer.Handle)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"hub":    relayHub.Stats(),
			"events": collector.Counts(),
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	relayHub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	bus.Stop()
}
