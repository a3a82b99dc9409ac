package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/observability"
	"github.com/vzahanych/weather-page/internal/page"
	"github.com/vzahanych/weather-page/internal/server/handlers"
	"github.com/vzahanych/weather-page/internal/server/middlewares"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"oneDecimal": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 1, 64)
	},
}

type Server struct {
	engine  *gin.Engine
	server  *http.Server
	builder *page.Builder
	metrics *observability.Metrics
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	clock   clockwork.Clock
}

func NewServer(cfg config.ServerConfig, builder *page.Builder, metrics *observability.Metrics, logger *zap.Logger, tele *telemetry.Telemetry) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(middlewares.NewMetricsMiddleware(logger, tele, metrics).Handler())

	s := &Server{
		engine:  engine,
		builder: builder,
		metrics: metrics,
		logger:  logger,
		tele:    tele,
		clock:   clockwork.NewRealClock(),
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	pages := handlers.NewPageHandler(s.builder, s.logger)
	weather := handlers.NewWeatherHandler(s.builder.Client(), s.logger)
	health := handlers.NewHealthHandler(s.logger, s.clock, s.builder.Client())

	// Page
	s.engine.GET("/", pages.Index)

	// API
	api := s.engine.Group("/api")
	api.GET("/page", pages.Page)
	api.GET("/weather/city", weather.ByCity)
	api.GET("/weather/coords", weather.ByCoords)
	api.GET("/languages", handlers.NewLanguagesHandler(s.builder.Catalog()).List)

	// Health endpoints (Kubernetes friendly)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", handlers.NewMetricsHandler(s.metrics).ServeMetrics)
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
