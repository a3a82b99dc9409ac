package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const oneCallExclude = "minutely,hourly,current"

// MetricsRecorder receives cache and upstream events. observability.Metrics
// implements it.
type MetricsRecorder interface {
	RecordCacheLookup(kind string, hit bool)
	RecordUpstream(kind, outcome string, seconds float64)
	SetCacheEntries(n int)
}

// Client builds OpenWeatherMap requests and memoizes their responses.
// Derived clients (WithLang) share the cache and transport of their parent.
type Client struct {
	mu          sync.RWMutex
	id          string
	lang        string
	unit        string
	imageFormat string

	forecastURL  string
	oneCallURL   string
	imageBaseURL string

	httpClient *http.Client
	cache      *Cache
	group      *singleflight.Group
	logger     *zap.Logger
	tele       *telemetry.Telemetry
	metrics    MetricsRecorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTelemetry(tele *telemetry.Telemetry) Option {
	return func(c *Client) { c.tele = tele }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCache replaces the default cache, e.g. to inject a fake clock.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func NewClient(cfg config.OpenWeatherConfig, cacheTTL time.Duration, opts ...Option) *Client {
	c := &Client{
		id:           cfg.APIKey,
		lang:         orDefault(cfg.Lang, "en"),
		unit:         orDefault(cfg.Units, "metric"),
		imageFormat:  orDefault(cfg.ImageFormat, "@2x.png"),
		forecastURL:  cfg.ForecastURL,
		oneCallURL:   cfg.OneCallURL,
		imageBaseURL: cfg.ImageBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		group:  &singleflight.Group{},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		c.cache = NewCache(cacheTTL, clockwork.NewRealClock())
	}

	return c
}

func (c *Client) SetID(v string) *Client {
	c.mu.Lock()
	c.id = v
	c.mu.Unlock()
	return c
}

func (c *Client) SetLang(v string) *Client {
	c.mu.Lock()
	c.lang = v
	c.mu.Unlock()
	return c
}

func (c *Client) SetUnit(v string) *Client {
	c.mu.Lock()
	c.unit = v
	c.mu.Unlock()
	return c
}

func (c *Client) Lang() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

func (c *Client) Unit() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unit
}

// WithLang returns a client that sends lang instead of the receiver's
// language. The cache is shared; lang is part of every cache key.
func (c *Client) WithLang(lang string) *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if lang == "" {
		lang = c.lang
	}

	return &Client{
		id:           c.id,
		lang:         lang,
		unit:         c.unit,
		imageFormat:  c.imageFormat,
		forecastURL:  c.forecastURL,
		oneCallURL:   c.oneCallURL,
		imageBaseURL: c.imageBaseURL,
		httpClient:   c.httpClient,
		cache:        c.cache,
		group:        c.group,
		logger:       c.logger,
		tele:         c.tele,
		metrics:      c.metrics,
	}
}

// Icon returns the image URL for a weather icon id.
func (c *Client) Icon(icon string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.imageBaseURL + icon + c.imageFormat
}

// CacheStats reports the number of memoized responses and the cache TTL.
func (c *Client) CacheStats() map[string]interface{} {
	return map[string]interface{}{
		"cache_size": c.cache.Len(),
		"cache_ttl":  c.cache.TTL().String(),
	}
}

// Make sends request to the endpoint selected by kind, merging in the
// client's lang, APPID and units. Identical requests are answered from the
// cache; failed requests are not cached.
func (c *Client) Make(ctx context.Context, request map[string]string, method string, kind Kind) (json.RawMessage, error) {
	tracer := c.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "openweather.Make")
	defer span.End()

	method = strings.ToUpper(strings.TrimSpace(method))
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("%w: %q", ErrMethodNotSupported, method)
	}

	if kind == "" {
		kind = KindOneCall
	}
	endpoint, err := c.endpoint(kind)
	if err != nil {
		return nil, err
	}

	req := c.buildRequest(request)
	key, err := cacheKey(req, kind)
	if err != nil {
		return nil, fmt.Errorf("build cache key: %w", err)
	}

	span.SetAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("method", method),
	)

	if body, ok := c.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		c.recordLookup(kind, true)
		c.logger.Debug("Cache hit", zap.String("kind", string(kind)))
		return body, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	c.recordLookup(kind, false)

	// A caller that goes away only stops waiting. The shared fetch keeps
	// running for the others, bounded by the http.Client timeout.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}

		body, err := c.do(fetchCtx, method, endpoint, kind, req)
		if err != nil {
			return nil, err
		}

		c.cache.Set(key, body)
		if c.metrics != nil {
			c.metrics.SetCacheEntries(c.cache.Len())
		}
		return body, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		c.tele.RecordError(ctx, res.Err, map[string]interface{}{"kind": kind})
		return nil, res.Err
	}
	v, shared := res.Val, res.Shared

	span.SetAttributes(attribute.Bool("shared", shared))
	return v.(json.RawMessage), nil
}

// ByCity requests kind for a city name.
func (c *Client) ByCity(ctx context.Context, city string, kind Kind) (json.RawMessage, error) {
	return c.Make(ctx, map[string]string{"q": city}, http.MethodGet, kind)
}

// ByLatLong requests kind for a coordinate pair.
func (c *Client) ByLatLong(ctx context.Context, coords Coords, kind Kind) (json.RawMessage, error) {
	return c.Make(ctx, map[string]string{
		"lat": strconv.FormatFloat(coords.Lat, 'f', -1, 64),
		"lon": strconv.FormatFloat(coords.Lon, 'f', -1, 64),
	}, http.MethodGet, kind)
}

func (c *Client) OneCall(ctx context.Context, coords Coords) (*OneCall, error) {
	raw, err := c.ByLatLong(ctx, coords, KindOneCall)
	if err != nil {
		return nil, err
	}
	return decode[OneCall](raw, KindOneCall)
}

func (c *Client) ForecastByCity(ctx context.Context, city string) (*Forecast, error) {
	raw, err := c.ByCity(ctx, city, KindForecast)
	if err != nil {
		return nil, err
	}
	return decode[Forecast](raw, KindForecast)
}

func (c *Client) ForecastByCoords(ctx context.Context, coords Coords) (*Forecast, error) {
	raw, err := c.ByLatLong(ctx, coords, KindForecast)
	if err != nil {
		return nil, err
	}
	return decode[Forecast](raw, KindForecast)
}

func decode[T any](raw json.RawMessage, kind Kind) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	return &out, nil
}

func (c *Client) buildRequest(request map[string]string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req := make(map[string]string, len(request)+3)
	for k, v := range request {
		req[k] = v
	}
	req["lang"] = c.lang
	req["APPID"] = c.id
	req["units"] = c.unit
	return req
}

func (c *Client) endpoint(kind Kind) (string, error) {
	switch kind {
	case KindOneCall:
		return c.oneCallURL, nil
	case KindForecast:
		return c.forecastURL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// cacheKey serializes the request and its kind. encoding/json sorts map keys,
// so equal requests always produce equal keys.
func cacheKey(req map[string]string, kind Kind) (string, error) {
	key := make(map[string]string, len(req)+1)
	for k, v := range req {
		key[k] = v
	}
	key["type"] = string(kind)

	b, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, kind Kind, req map[string]string) (json.RawMessage, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse %s endpoint: %w", kind, err)
	}

	q := u.Query()
	if kind == KindOneCall {
		q.Set("exclude", oneCallExclude)
	}

	values := url.Values{}
	for k, v := range req {
		values.Set(k, v)
	}

	var httpReq *http.Request
	switch method {
	case http.MethodGet:
		for k, v := range values {
			q[k] = v
		}
		u.RawQuery = q.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	case http.MethodPost:
		u.RawQuery = q.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(values.Encode()))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug("Calling OpenWeatherMap",
		zap.String("kind", string(kind)),
		zap.String("method", method),
		zap.String("lang", req["lang"]))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordUpstream(kind, "error", start)
		return nil, fmt.Errorf("%s request: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		outcome := "not_found"
		if resp.StatusCode >= http.StatusInternalServerError {
			outcome = "error"
		}
		c.recordUpstream(kind, outcome, start)
		c.logger.Warn("OpenWeatherMap request failed",
			zap.String("kind", string(kind)),
			zap.Int("status", resp.StatusCode))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordUpstream(kind, "error", start)
		return nil, fmt.Errorf("read %s response: %w", kind, err)
	}

	if !json.Valid(body) {
		c.recordUpstream(kind, "error", start)
		return nil, fmt.Errorf("decode %s response: %w", kind, ErrInvalidResponse)
	}

	c.recordUpstream(kind, "success", start)
	return json.RawMessage(body), nil
}

func (c *Client) recordLookup(kind Kind, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(string(kind), hit)
	}
}

func (c *Client) recordUpstream(kind Kind, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordUpstream(string(kind), outcome, time.Since(start).Seconds())
	}
}

// IsNotFound reports whether err came from a rejected upstream request.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
