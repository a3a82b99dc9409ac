package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/languages"
	"github.com/vzahanych/weather-page/internal/observability"
	"github.com/vzahanych/weather-page/internal/openweather"
	"github.com/vzahanych/weather-page/internal/page"
	"github.com/vzahanych/weather-page/pkg/logger"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	configPath string
	log        *logger.Logger
	tele       *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Weather forecast page backed by OpenWeatherMap",
		Long: `Serves a five day weather page for a city or the browser's location,
backed by a cached OpenWeatherMap client.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return shutdownServices()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(serverCmd())
	cmd.AddCommand(forecastCmd())

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			if log != nil {
				log.Zap().Info("Received shutdown signal", zap.String("signal", sig.String()))
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices(ctx context.Context) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Set config
	// Having config in atomic allows changing it during runtime
	config.SetConfig(cfg)

	// 3. Initialize logger
	log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 4. Telemetry is optional; a broken collector falls back to no-op spans.
	tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		log.Zap().Warn("Failed to initialize telemetry", zap.Error(err))
		tele = nil
	}

	return nil
}

func shutdownServices() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tele.Shutdown(ctx); err != nil && log != nil {
		log.Zap().Warn("Failed to shut down telemetry", zap.Error(err))
	}
	if log != nil {
		_ = log.Sync()
	}
	return nil
}

// newBuilder wires the OpenWeatherMap client and the language catalog into
// a page builder. metrics may be nil.
func newBuilder(cfg *config.Config, metrics *observability.Metrics) (*page.Builder, error) {
	opts := []openweather.Option{
		openweather.WithLogger(log.Zap()),
		openweather.WithTelemetry(tele),
	}
	if metrics != nil {
		opts = append(opts, openweather.WithMetrics(metrics))
	}

	client := openweather.NewClient(cfg.OpenWeather, time.Duration(cfg.Cache.TTL)*time.Second, opts...)

	catalog, err := languages.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load language catalog: %w", err)
	}

	return page.NewBuilder(client, catalog, log.Zap(), tele), nil
}
