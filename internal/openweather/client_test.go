package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-page/internal/config"
	"go.uber.org/zap/zaptest"
)

const (
	testAppID         = "test-appid"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

type recordingMetrics struct {
	mu       sync.Mutex
	hits     int
	misses   int
	outcomes map[string]int
	entries  int
}

func (m *recordingMetrics) RecordCacheLookup(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *recordingMetrics) RecordUpstream(_, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

func (m *recordingMetrics) SetCacheEntries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = n
}

type upstream struct {
	srv       *httptest.Server
	calls     atomic.Int32
	lastQuery atomic.Value
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.lastQuery.Store(r.URL.Query())
		handler(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func testClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	cfg := config.OpenWeatherConfig{
		APIKey:       testAppID,
		Lang:         "en",
		Units:        "metric",
		ImageFormat:  "@2x.png",
		ForecastURL:  baseURL + "/data/2.5/forecast",
		OneCallURL:   baseURL + "/data/2.5/onecall",
		ImageBaseURL: "https://openweathermap.org/img/wn/",
		Timeout:      5,
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewClient(cfg, 0, opts...)
}

func okJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}
}

func TestMake_BuildsQueryWithClientSettings(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/onecall", r.URL.Path)
		okJSON(`{"daily":[]}`)(w, r)
	})
	c := testClient(t, up.srv.URL).SetLang("it").SetUnit("imperial")

	_, err := c.Make(context.Background(), map[string]string{"lat": "1", "lon": "2", "lang": "fr"}, "get", KindOneCall)
	require.NoError(t, err)

	q := up.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"it"}, q["lang"], "client lang overrides request lang")
	assert.Equal(t, []string{testAppID}, q["APPID"])
	assert.Equal(t, []string{"imperial"}, q["units"])
	assert.Equal(t, []string{"1"}, q["lat"])
	assert.Equal(t, []string{"minutely,hourly,current"}, q["exclude"])
}

func TestMake_CachesIdenticalRequests(t *testing.T) {
	up := newUpstream(t, okJSON(`{"list":[],"city":{"name":"Roma"}}`))
	metrics := &recordingMetrics{}
	c := testClient(t, up.srv.URL, WithMetrics(metrics))

	first, err := c.ByCity(context.Background(), "roma", KindForecast)
	require.NoError(t, err)
	second, err := c.ByCity(context.Background(), "roma", KindForecast)
	require.NoError(t, err)

	assert.Equal(t, int32(1), up.calls.Load(), "second call must be served from cache")
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.entries)
	assert.Equal(t, 1, c.CacheStats()["cache_size"])
}

func TestMake_KeyIncludesKindAndLang(t *testing.T) {
	up := newUpstream(t, okJSON(`{}`))
	c := testClient(t, up.srv.URL)
	ctx := context.Background()

	_, err := c.ByCity(ctx, "roma", KindForecast)
	require.NoError(t, err)
	_, err = c.ByCity(ctx, "roma", KindOneCall)
	require.NoError(t, err)
	_, err = c.WithLang("it").ByCity(ctx, "roma", KindForecast)
	require.NoError(t, err)
	_, err = c.ByCity(ctx, "milano", KindForecast)
	require.NoError(t, err)

	assert.Equal(t, int32(4), up.calls.Load())
}

func TestMake_NotFoundIsNotCached(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})
	metrics := &recordingMetrics{}
	c := testClient(t, up.srv.URL, WithMetrics(metrics))

	_, err := c.ByCity(context.Background(), "atlantis", KindForecast)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "city not found")

	_, err = c.ByCity(context.Background(), "atlantis", KindForecast)
	require.Error(t, err)
	assert.Equal(t, int32(2), up.calls.Load(), "failures must not be memoized")
	assert.Equal(t, 2, metrics.outcomes["not_found"])
	assert.Equal(t, 0, c.CacheStats()["cache_size"])
}

func TestMake_InvalidJSON(t *testing.T) {
	up := newUpstream(t, okJSON(`not json`))
	c := testClient(t, up.srv.URL)

	_, err := c.ByCity(context.Background(), "roma", KindForecast)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, 0, c.CacheStats()["cache_size"])
}

func TestMake_UnsupportedMethod(t *testing.T) {
	up := newUpstream(t, okJSON(`{}`))
	c := testClient(t, up.srv.URL)

	_, err := c.Make(context.Background(), map[string]string{"q": "roma"}, "DELETE", KindForecast)
	require.ErrorIs(t, err, ErrMethodNotSupported)
	assert.Equal(t, int32(0), up.calls.Load())
}

func TestMake_UnknownKind(t *testing.T) {
	up := newUpstream(t, okJSON(`{}`))
	c := testClient(t, up.srv.URL)

	_, err := c.Make(context.Background(), map[string]string{"q": "roma"}, "GET", Kind("hourly"))
	require.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, int32(0), up.calls.Load())
}

func TestMake_PostSendsFormBody(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get(headerContentType))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "roma", r.PostForm.Get("q"))
		assert.Equal(t, testAppID, r.PostForm.Get("APPID"))
		okJSON(`{}`)(w, r)
	})
	c := testClient(t, up.srv.URL)

	_, err := c.Make(context.Background(), map[string]string{"q": "roma"}, " post ", KindForecast)
	require.NoError(t, err)
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestMake_ConcurrentDuplicatesCollapse(t *testing.T) {
	release := make(chan struct{})
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		okJSON(`{"list":[]}`)(w, r)
	})
	c := testClient(t, up.srv.URL)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ByCity(context.Background(), "roma", KindForecast)
			errs <- err
		}()
	}

	// give the goroutines time to pile up on the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestMake_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		okJSON(`{"list":[]}`)(w, r)
	})
	c := testClient(t, up.srv.URL)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.ByCity(ctxA, "roma", KindForecast)
		errA <- err
	}()
	<-started

	errB := make(chan error, 1)
	go func() {
		_, err := c.ByCity(context.Background(), "roma", KindForecast)
		errB <- err
	}()

	// let the second caller join the in-flight request
	time.Sleep(50 * time.Millisecond)
	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	require.NoError(t, <-errB)
	assert.Equal(t, int32(1), up.calls.Load())

	_, err := c.ByCity(context.Background(), "roma", KindForecast)
	require.NoError(t, err)
	assert.Equal(t, int32(1), up.calls.Load(), "the shared response is memoized")
}

func TestMake_EmptyKindDefaultsToOneCall(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/onecall", r.URL.Path)
		okJSON(`{"daily":[]}`)(w, r)
	})
	c := testClient(t, up.srv.URL)

	_, err := c.ByLatLong(context.Background(), Coords{Lat: 1, Lon: 2}, "")
	require.NoError(t, err)

	q := up.lastQuery.Load().(url.Values)
	assert.Equal(t, "minutely,hourly,current", q.Get("exclude"))

	_, err = c.ByLatLong(context.Background(), Coords{Lat: 1, Lon: 2}, KindOneCall)
	require.NoError(t, err)
	assert.Equal(t, int32(1), up.calls.Load(), "an empty kind shares the one-call cache entry")
}

func TestMake_UpstreamTimeout(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	c := testClient(t, up.srv.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	_, err := c.ByCity(context.Background(), "roma", KindForecast)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestTypedHelpers(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/onecall":
			okJSON(`{"lat":41.9,"lon":12.5,"timezone_offset":7200,"daily":[{"dt":1700000000,"temp":{"min":10.7,"max":18.2},"weather":[{"id":800,"description":"clear sky","icon":"01d"}]}]}`)(w, r)
		default:
			okJSON(`{"cnt":1,"list":[{"dt":1700000000,"dt_txt":"2023-11-14 22:00:00","main":{"temp":12.3,"pressure":1015},"wind":{"speed":3.1},"weather":[{"id":500,"description":"light rain","icon":"10n"}]}],"city":{"name":" Rome ","coord":{"lat":41.9,"lon":12.5},"timezone":3600}}`)(w, r)
		}
	})
	c := testClient(t, up.srv.URL)
	ctx := context.Background()

	oc, err := c.OneCall(ctx, Coords{Lat: 41.9, Lon: 12.5})
	require.NoError(t, err)
	require.Len(t, oc.Daily, 1)
	assert.Equal(t, 7200, oc.TimezoneOffset)
	assert.Equal(t, 18.2, oc.Daily[0].Temp.Max)
	assert.Equal(t, 800, Primary(oc.Daily[0].Weather).ID)

	fc, err := c.ForecastByCity(ctx, "rome")
	require.NoError(t, err)
	assert.Equal(t, " Rome ", fc.City.Name)
	assert.Equal(t, 41.9, fc.City.Coord.Lat)
	require.Len(t, fc.List, 1)
	assert.Equal(t, 1015.0, fc.List[0].Main.Pressure)

	fc2, err := c.ForecastByCoords(ctx, Coords{Lat: 41.9, Lon: 12.5})
	require.NoError(t, err)
	assert.Equal(t, 3600, fc2.City.Timezone)
}

func TestIcon(t *testing.T) {
	c := testClient(t, "http://unused")
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", c.Icon("10d"))
}

func TestWithLang_SharesCacheWithoutMutatingParent(t *testing.T) {
	up := newUpstream(t, okJSON(`{}`))
	c := testClient(t, up.srv.URL)

	it := c.WithLang("it")
	assert.Equal(t, "it", it.Lang())
	assert.Equal(t, "en", c.Lang())
	assert.Equal(t, "en", c.WithLang("").Lang())

	_, err := it.ByCity(context.Background(), "roma", KindForecast)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CacheStats()["cache_size"])
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindOneCall, k)

	k, err = ParseKind("forecast")
	require.NoError(t, err)
	assert.Equal(t, KindForecast, k)

	_, err = ParseKind("daily")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCacheKey_Deterministic(t *testing.T) {
	a, err := cacheKey(map[string]string{"q": "roma", "lang": "it", "APPID": "x", "units": "metric"}, KindForecast)
	require.NoError(t, err)
	b, err := cacheKey(map[string]string{"units": "metric", "APPID": "x", "lang": "it", "q": "roma"}, KindForecast)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Contains(t, a, `"type":"forecast"`)
}

func TestMake_ServerErrorIsRecordedAsError(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	metrics := &recordingMetrics{}
	c := testClient(t, up.srv.URL, WithMetrics(metrics))

	_, err := c.ByCity(context.Background(), "rome", KindOneCall)
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "every non-2xx answer reads as not found")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, 1, metrics.outcomes["error"])
	assert.Zero(t, metrics.outcomes["not_found"])
}
