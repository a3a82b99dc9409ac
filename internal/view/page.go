package view

import (
	"net/url"
	"strconv"

	"github.com/vzahanych/weather-page/internal/languages"
)

// Page is everything the weather page renders for one query.
type Page struct {
	City        string               `json:"city"`
	Coords      *Coords              `json:"coords,omitempty"`
	ByCoords    bool                 `json:"by_coords"`
	Lang        string               `json:"lang"`
	Units       Units                `json:"units"`
	Labels      Labels               `json:"labels"`
	SelectedDay string               `json:"selected_day"`
	Days        []DaySummary         `json:"days"`
	Hours       []HourlyRow          `json:"hours"`
	Background  string               `json:"background"`
	Languages   []languages.Language `json:"languages"`
	Error       string               `json:"error,omitempty"`
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPage returns an empty page with labels and units resolved, ready to be
// filled or to carry an error.
func NewPage(lang, units string, langs []languages.Language) *Page {
	return &Page{
		Lang:       lang,
		Units:      UnitsFor(units),
		Labels:     LabelsFor(lang),
		Background: DefaultBackground,
		Languages:  langs,
	}
}

// SelectDay picks the requested day when it is listed, otherwise the first one.
func SelectDay(days []DaySummary, requested string) string {
	for _, d := range days {
		if d.Key == requested {
			return requested
		}
	}
	if len(days) > 0 {
		return days[0].Key
	}
	return ""
}

// DayLink is the page URL selecting day while keeping the location and
// language, so the upstream requests repeat and hit the cache.
func (p *Page) DayLink(day string) string {
	return p.link(p.Lang, day)
}

// LangLink re-runs the current query in another language, keeping the
// selected day.
func (p *Page) LangLink(lang string) string {
	return p.link(lang, p.SelectedDay)
}

func (p *Page) link(lang, day string) string {
	q := url.Values{}
	switch {
	case p.ByCoords && p.Coords != nil:
		q.Set("lat", strconv.FormatFloat(p.Coords.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(p.Coords.Lon, 'f', -1, 64))
	case p.City != "":
		q.Set("city", p.City)
	}
	q.Set("lang", lang)
	if day != "" {
		q.Set("day", day)
	}
	return "/?" + q.Encode()
}
