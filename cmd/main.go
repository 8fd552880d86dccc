package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vasu1712/scenyx-collab/internal/api"
	"github.com/Vasu1712/scenyx-collab/internal/api/projects"
	"github.com/Vasu1712/scenyx-collab/internal/api/users"
	"github.com/Vasu1712/scenyx-collab/internal/collab"
	"github.com/Vasu1712/scenyx-collab/internal/config"
	"github.com/Vasu1712/scenyx-collab/internal/logging"
	"github.com/Vasu1712/scenyx-collab/internal/middleware"
	"github.com/Vasu1712/scenyx-collab/internal/presence"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/Vasu1712/scenyx-collab/internal/storage/memory"
	"github.com/Vasu1712/scenyx-collab/internal/storage/postgres"
	"github.com/Vasu1712/scenyx-collab/internal/storage/valkey"
	"github.com/Vasu1712/scenyx-collab/internal/ws"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scenes, userStore, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	hub := ws.NewHub(logger)
	registry := presence.NewRegistry(logger)
	coord := collab.NewCoordinator(scenes, userStore, registry, hub, logger)

	wsServer := ws.NewServer(ctx, hub,
		ws.SessionOpenerFunc(func(connID string) ws.Session { return coord.OpenSession(connID) }),
		ws.ClientConfig{
			SendBuffer:     cfg.WSSendBuffer,
			MaxMessageSize: cfg.WSMaxMessageSize,
			MessageRate:    rate.Limit(cfg.WSMessageRate),
			MessageBurst:   cfg.WSMessageBurst,
		},
		cfg.AllowedOrigins, logger)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.APIRate), cfg.APIBurst)
	go limiter.Run(ctx)

	r := mux.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins, logger))
	r.Use(middleware.RateLimit(limiter))
	projects.RegisterProjectRoutes(r, projects.NewProjectHandler(scenes, coord, logger))
	users.RegisterUserRoutes(r, users.NewUserHandler(userStore, logger))
	api.RegisterHealthRoute(r, registry, time.Now())
	r.Handle("/ws", wsServer)
	// Preflight requests must reach the CORS middleware even without a matching method.
	r.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", slog.String("addr", server.Addr), slog.String("backend", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited gracefully")
	return nil
}

// openStores builds the configured backend. The returned func releases its
// connections.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.SceneStore, storage.UserDirectory, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return postgres.NewSceneStore(db, logger), postgres.NewUserStore(db, logger), func() { db.Close() }, nil

	case config.BackendValkey:
		client, err := valkey.Open(ctx, valkey.Options{
			Addrs:    cfg.ValkeyAddrs,
			Password: cfg.ValkeyPassword,
			DB:       cfg.ValkeyDB,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return valkey.NewSceneStore(client, logger), valkey.NewUserStore(client, logger), client.Close, nil
	}

	logger.Warn("using in-memory storage, data is lost on restart")
	return memory.NewSceneStore(logger), memory.NewUserStore(logger), func() {}, nil
}
