package page

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/languages"
	"github.com/vzahanych/weather-page/internal/openweather"
	"go.uber.org/zap/zaptest"
)

type fakeUpstream struct {
	srv           *httptest.Server
	oneCallCalls  atomic.Int32
	forecastCalls atomic.Int32
}

func oneCallBody() openweather.OneCall {
	oc := openweather.OneCall{Lat: 41.89, Lon: 12.48, TimezoneOffset: 3600}
	for i := 0; i < 7; i++ {
		oc.Daily = append(oc.Daily, openweather.Daily{
			Dt:      time.Date(2023, time.November, 14+i, 11, 0, 0, 0, time.UTC).Unix(),
			Temp:    openweather.DailyTemp{Min: 8.6, Max: 18.1},
			Weather: []openweather.Condition{{ID: 501, Description: "pioggia moderata", Icon: "10d"}},
		})
	}
	return oc
}

func forecastBody(name string) openweather.Forecast {
	fc := openweather.Forecast{City: openweather.City{
		Name:     name,
		Coord:    openweather.Coords{Lat: 41.89, Lon: 12.48},
		Timezone: 3600,
	}}
	start := time.Date(2023, time.November, 14, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 16; i++ {
		ts := start.Add(time.Duration(3*i) * time.Hour)
		fc.List = append(fc.List, openweather.ForecastEntry{
			Dt:      ts.Unix(),
			DtTxt:   ts.Format("2006-01-02 15:04:05"),
			Main:    openweather.ForecastMain{Temp: 14, Pressure: 1012},
			Weather: []openweather.Condition{{ID: 500, Description: "rain", Icon: "10n"}},
		})
	}
	return fc
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var body interface{}
		switch r.URL.Path {
		case "/onecall":
			f.oneCallCalls.Add(1)
			body = oneCallBody()
		case "/forecast":
			f.forecastCalls.Add(1)
			if city := q.Get("q"); city != "" && city != "rome" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
				return
			}
			body = forecastBody(" Rome ")
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestBuilder(t *testing.T, baseURL string) *Builder {
	t.Helper()
	client := openweather.NewClient(config.OpenWeatherConfig{
		APIKey:       "key",
		Lang:         "en",
		Units:        "metric",
		ImageFormat:  "@2x.png",
		ForecastURL:  baseURL + "/forecast",
		OneCallURL:   baseURL + "/onecall",
		ImageBaseURL: "https://img/",
		Timeout:      5,
	}, 0)

	catalog, err := languages.Default()
	require.NoError(t, err)

	return NewBuilder(client, catalog, zaptest.NewLogger(t), nil)
}

func float(v float64) *float64 { return &v }

func TestBuild_ByCity(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)

	p, err := b.Build(context.Background(), Query{City: "  Rome ", Lang: "Italian"})
	require.NoError(t, err)

	assert.Equal(t, "Rome", p.City)
	assert.Equal(t, "it", p.Lang)
	assert.Equal(t, "Ora", p.Labels.Headers.Time)
	require.Len(t, p.Days, 5)
	assert.Equal(t, "Martedì", p.Days[0].Weekday)
	assert.Equal(t, 8, p.Days[0].Min)
	assert.Equal(t, 18, p.Days[0].Max)
	assert.Equal(t, "https://img/10d@2x.png", p.Days[0].IconURL)
	assert.Equal(t, "#a2acb8", p.Background)
	assert.Equal(t, "2023-11-14", p.SelectedDay)
	assert.Len(t, p.Hours, 5)
	require.NotNil(t, p.Coords)
	assert.Equal(t, 41.89, p.Coords.Lat)
	assert.NotEmpty(t, p.Languages)
	assert.Empty(t, p.Error)
}

func TestBuild_DaySelectionReusesCache(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)
	ctx := context.Background()

	_, err := b.Build(ctx, Query{City: "rome"})
	require.NoError(t, err)

	p, err := b.Build(ctx, Query{City: "ROME", Day: "2023-11-15"})
	require.NoError(t, err)

	assert.Equal(t, "2023-11-15", p.SelectedDay)
	assert.Len(t, p.Hours, 9)
	assert.Equal(t, int32(1), up.forecastCalls.Load())
	assert.Equal(t, int32(1), up.oneCallCalls.Load())
}

func TestBuild_LanguageChangeRefetches(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)
	ctx := context.Background()

	_, err := b.Build(ctx, Query{City: "rome", Lang: "en"})
	require.NoError(t, err)
	_, err = b.Build(ctx, Query{City: "rome", Lang: "it"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), up.forecastCalls.Load())
	assert.Equal(t, "en", b.Client().Lang(), "per-request language must not leak into the shared client")
}

func TestBuild_ByCoords(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)

	p, err := b.Build(context.Background(), Query{Lat: float(41.89), Lon: float(12.48)})
	require.NoError(t, err)

	assert.Equal(t, "Rome", p.City, "city name comes from the forecast, trimmed")
	assert.True(t, p.ByCoords)
	assert.Equal(t, "en", p.Lang)
	assert.Len(t, p.Days, 5)
	assert.Len(t, p.Hours, 5)
	assert.Equal(t, int32(1), up.oneCallCalls.Load())
	assert.Equal(t, int32(1), up.forecastCalls.Load())
}

func TestBuild_UnknownCity(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)

	p, err := b.Build(context.Background(), Query{City: "Atlantis"})
	require.Error(t, err)
	assert.True(t, openweather.IsNotFound(err))

	require.NotNil(t, p)
	assert.Contains(t, p.Error, "the entered name was not found")
	assert.Empty(t, p.Days)
	assert.Equal(t, int32(0), up.oneCallCalls.Load())
}

func TestBuild_EmptyQuery(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)

	p, err := b.Build(context.Background(), Query{City: "   "})
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, ErrEmptyQuery.Error(), p.Error)
	assert.Equal(t, int32(0), up.forecastCalls.Load())
}

func TestResolveLang(t *testing.T) {
	b := newTestBuilder(t, "http://unused")

	assert.Equal(t, "it", b.ResolveLang("Italian"))
	assert.Equal(t, "de", b.ResolveLang("de"))
	assert.Equal(t, "en", b.ResolveLang("klingon"))
	assert.Equal(t, "en", b.ResolveLang(""))
}

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "new york", NormalizeCity("  New York "))
}

func TestBlank(t *testing.T) {
	b := newTestBuilder(t, "http://unused")

	p := b.Blank("Italian")
	assert.Equal(t, "it", p.Lang)
	assert.Equal(t, "Cerca", p.Labels.Search)
	assert.Empty(t, p.Days)
	assert.Empty(t, p.Error)
	assert.NotEmpty(t, p.Languages)
}

func TestBuildByCoords_RequiresCoords(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)

	p, err := b.BuildByCoords(context.Background(), Query{City: "rome", Lat: float(41.89)})
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.NotEmpty(t, p.Error)
	assert.Equal(t, int32(0), up.oneCallCalls.Load())
}

func TestBuildByCity_IgnoresCoords(t *testing.T) {
	up := newFakeUpstream(t)
	b := newTestBuilder(t, up.srv.URL)

	p, err := b.BuildByCity(context.Background(), Query{City: "Rome", Lat: float(1), Lon: float(2)})
	require.NoError(t, err)
	assert.False(t, p.ByCoords)
	assert.Equal(t, 41.89, p.Coords.Lat)
}
