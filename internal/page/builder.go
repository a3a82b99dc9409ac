package page

import (
	"context"
	"errors"
	"strings"

	"github.com/vzahanych/weather-page/internal/languages"
	"github.com/vzahanych/weather-page/internal/openweather"
	"github.com/vzahanych/weather-page/internal/view"
	"github.com/vzahanych/weather-page/pkg/logger"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyQuery = errors.New("enter a city name or allow location access")

// Query is one page request: a city name or a coordinate pair, plus the
// picker language and the selected day.
type Query struct {
	City string
	Lat  *float64
	Lon  *float64
	Lang string
	Day  string
}

func (q Query) HasCoords() bool {
	return q.Lat != nil && q.Lon != nil
}

// Builder runs the request chains behind the page and turns the responses
// into a view.Page.
type Builder struct {
	client  *openweather.Client
	catalog *languages.Catalog
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewBuilder(client *openweather.Client, catalog *languages.Catalog, logger *zap.Logger, tele *telemetry.Telemetry) *Builder {
	return &Builder{
		client:  client,
		catalog: catalog,
		logger:  logger,
		tele:    tele,
	}
}

// Client returns the upstream client, for handlers that pass raw responses through.
func (b *Builder) Client() *openweather.Client {
	return b.client
}

func (b *Builder) Catalog() *languages.Catalog {
	return b.catalog
}

// ResolveLang maps a picker value (display name or code) to an API code.
// Unknown values fall back to the client's default language.
func (b *Builder) ResolveLang(v string) string {
	if lang, ok := b.catalog.Resolve(v); ok {
		return lang.Abbreviation
	}
	return b.client.Lang()
}

// Blank returns the landing page: labels, units and languages resolved, no
// weather data and no error.
func (b *Builder) Blank(lang string) *view.Page {
	lang = b.ResolveLang(lang)
	return view.NewPage(lang, b.client.Unit(), b.catalog.List())
}

// Build returns the page for q, using the geolocation flow when q carries
// coordinates and the city flow otherwise.
func (b *Builder) Build(ctx context.Context, q Query) (*view.Page, error) {
	if q.HasCoords() {
		return b.BuildByCoords(ctx, q)
	}
	return b.BuildByCity(ctx, q)
}

// BuildByCity returns the page for q.City. On failure the returned page is
// still renderable and carries the error text.
func (b *Builder) BuildByCity(ctx context.Context, q Query) (*view.Page, error) {
	return b.run(ctx, "page.BuildByCity", q, func(ctx context.Context, client *openweather.Client, p *view.Page) error {
		p.City = strings.TrimSpace(q.City)
		city := NormalizeCity(q.City)
		if city == "" {
			return ErrEmptyQuery
		}
		return b.byCity(ctx, client, city, q.Day, p)
	})
}

// BuildByCoords returns the page for q.Lat and q.Lon.
func (b *Builder) BuildByCoords(ctx context.Context, q Query) (*view.Page, error) {
	return b.run(ctx, "page.BuildByCoords", q, func(ctx context.Context, client *openweather.Client, p *view.Page) error {
		if !q.HasCoords() {
			return ErrEmptyQuery
		}
		return b.byCoords(ctx, client, *q.Lat, *q.Lon, q.Day, p)
	})
}

type flow func(ctx context.Context, client *openweather.Client, p *view.Page) error

func (b *Builder) run(ctx context.Context, spanName string, q Query, fn flow) (*view.Page, error) {
	tracer := b.tele.GetTracer()
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	reqLogger := logger.FromContext(ctx, b.logger)

	lang := b.ResolveLang(q.Lang)
	client := b.client.WithLang(lang)
	p := view.NewPage(lang, client.Unit(), b.catalog.List())

	span.SetAttributes(
		attribute.String("lang", lang),
		attribute.Bool("by_coords", q.HasCoords()),
	)

	if err := fn(ctx, client, p); err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		b.tele.RecordError(ctx, err, map[string]interface{}{"city": q.City})
		reqLogger.Warn("Failed to build weather page",
			zap.String("city", q.City),
			zap.String("lang", lang),
			zap.Error(err))
		p.Error = err.Error()
		return p, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("days", len(p.Days)),
		attribute.Int("hours", len(p.Hours)),
	)
	reqLogger.Info("Weather page built",
		zap.String("city", p.City),
		zap.String("lang", lang),
		zap.String("day", p.SelectedDay),
		zap.Int("days", len(p.Days)),
		zap.Int("hours", len(p.Hours)))

	return p, nil
}

// byCity resolves the city through the forecast endpoint, then asks the
// one-call endpoint for the coordinates it returned.
func (b *Builder) byCity(ctx context.Context, client *openweather.Client, city, day string, p *view.Page) error {
	fc, err := client.ForecastByCity(ctx, city)
	if err != nil {
		return err
	}

	oc, err := client.OneCall(ctx, fc.City.Coord)
	if err != nil {
		return err
	}

	p.Coords = &view.Coords{Lat: fc.City.Coord.Lat, Lon: fc.City.Coord.Lon}
	fill(p, client, oc, fc, day)
	return nil
}

// byCoords is the geolocation flow: both endpoints are queried by
// coordinates and the city name comes from the forecast.
func (b *Builder) byCoords(ctx context.Context, client *openweather.Client, lat, lon float64, day string, p *view.Page) error {
	coords := openweather.Coords{Lat: lat, Lon: lon}

	var (
		oc *openweather.OneCall
		fc *openweather.Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		oc, err = client.OneCall(gctx, coords)
		return err
	})
	g.Go(func() error {
		var err error
		fc, err = client.ForecastByCoords(gctx, coords)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	p.City = strings.TrimSpace(fc.City.Name)
	p.Coords = &view.Coords{Lat: lat, Lon: lon}
	p.ByCoords = true
	fill(p, client, oc, fc, day)
	return nil
}

func fill(p *view.Page, client *openweather.Client, oc *openweather.OneCall, fc *openweather.Forecast, day string) {
	p.Days = view.DailySummaries(oc, client.Icon, p.Labels)
	p.Background = view.TodayBackground(oc)
	p.SelectedDay = view.SelectDay(p.Days, day)
	p.Hours = view.HourlyRows(fc, p.SelectedDay, client.Icon)
}

// NormalizeCity trims and lower-cases a city name so equivalent spellings
// share cache entries.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
