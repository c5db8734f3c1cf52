package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/api"
	"github.com/legal-assistant/docclient/internal/api/handlers"
	"github.com/legal-assistant/docclient/internal/cache/redis"
	"github.com/legal-assistant/docclient/internal/metrics"
	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/internal/storage/sqlite"
	appLogger "github.com/legal-assistant/docclient/pkg/logger"
	"github.com/legal-assistant/docclient/pkg/retry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over HTTP and WebSocket",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	appLogger.Info("Starting docclient server")

	metrics.Init()
	gw := newGateway(cfg)

	waitForBackend(cmd.Context(), gw)

	var (
		recorder session.Recorder
		history  handlers.HistoryStore
		store    handlers.SnapshotStore
	)

	if cfg.SQLite.Enabled {
		sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("failed to create SQLite client: %w", err)
		}
		defer sqliteClient.Close()

		if err := sqliteClient.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		recorder = sqliteClient
		history = sqliteClient
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cmd.Context(),
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.TTL(),
		)
		if err != nil {
			return fmt.Errorf("failed to create Redis client: %w", err)
		}
		defer redisClient.Close()
		store = redisClient
	}

	registry := handlers.NewRegistry(cfg.Server.SessionTTL(), func(id string) *session.Session {
		return session.New(gw, sessionOptions(cfg, id, recorder))
	}, store)

	app := api.NewApp(cfg.Server, api.Deps{
		Registry: registry,
		History:  history,
		Health:   gw,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
	return nil
}

// waitForBackend polls the analysis service until it answers. The server
// starts either way; an unreachable backend surfaces as transport failures.
func waitForBackend(ctx context.Context, gw interface {
	Health(ctx context.Context) error
}) {
	pollCfg := retry.DefaultConfig()
	pollCfg.Logger = appLogger.GetLogger()

	if err := retry.Poll(ctx, pollCfg, "analysis-service", gw.Health); err != nil {
		appLogger.Warn("Analysis service not reachable, continuing", zap.Error(err))
	}
}
