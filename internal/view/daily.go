package view

import (
	"math"

	"github.com/vzahanych/weather-page/internal/openweather"
)

// MaxDays is how many daily summaries the page lists.
const MaxDays = 5

// IconFunc turns an icon id into an image URL.
type IconFunc func(icon string) string

type DaySummary struct {
	Key         string `json:"key"`
	Weekday     string `json:"weekday"`
	Date        int    `json:"date"`
	Month       string `json:"month"`
	IconURL     string `json:"icon_url"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Description string `json:"description"`
	WeatherID   int    `json:"weather_id"`
}

// DailySummaries renders the first MaxDays entries of a one-call response.
func DailySummaries(oc *openweather.OneCall, icon IconFunc, labels Labels) []DaySummary {
	if oc == nil {
		return nil
	}

	n := len(oc.Daily)
	if n > MaxDays {
		n = MaxDays
	}

	days := make([]DaySummary, 0, n)
	for _, d := range oc.Daily[:n] {
		t := ConvertTime(d.Dt, oc.TimezoneOffset, labels)
		cond := openweather.Primary(d.Weather)
		days = append(days, DaySummary{
			Key:         t.Key,
			Weekday:     t.Day,
			Date:        t.Date,
			Month:       t.Month,
			IconURL:     icon(cond.Icon),
			Min:         int(math.Floor(d.Temp.Min)),
			Max:         int(math.Floor(d.Temp.Max)),
			Description: cond.Description,
			WeatherID:   cond.ID,
		})
	}

	return days
}

// TodayBackground is the background for the first daily entry.
func TodayBackground(oc *openweather.OneCall) string {
	if oc == nil || len(oc.Daily) == 0 || len(oc.Daily[0].Weather) == 0 {
		return DefaultBackground
	}
	return Background(oc.Daily[0].Weather[0].ID)
}
