package cmd

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/observability"
	"github.com/vzahanych/weather-page/internal/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the weather page server",
		Long:  `Start the HTTP server that renders the weather page and exposes the JSON API, health checks and metrics.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	zlog := log.Zap()

	zlog.Info("Starting weather page server",
		zap.String("config_path", configPath),
		zap.String("environment", cfg.Environment),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("cache_ttl", cfg.Cache.TTL))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := observability.NewMetrics()
	builder, err := newBuilder(cfg, metrics)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg.Server, builder, metrics, zlog, tele)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			zlog.Error("Server error", zap.Error(err))
		}
		return err
	case <-cmd.Context().Done():
		zlog.Info("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			zlog.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		zlog.Info("Server shutdown complete")
		return nil
	}
}
