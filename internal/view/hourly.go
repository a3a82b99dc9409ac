package view

import "github.com/vzahanych/weather-page/internal/openweather"

type HourlyRow struct {
	Time        string  `json:"time"`
	Description string  `json:"description"`
	IconURL     string  `json:"icon_url"`
	Temp        float64 `json:"temp"`
	Wind        float64 `json:"wind"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Pressure    float64 `json:"pressure"`
}

// HourlyRows returns the 3-hour entries falling on dayKey, followed by the
// first entry after them so the table reaches past midnight.
func HourlyRows(fc *openweather.Forecast, dayKey string, icon IconFunc) []HourlyRow {
	if fc == nil {
		return nil
	}

	var rows []HourlyRow
	trailing := false
	for _, e := range fc.List {
		t, ok := entryTime(e.Dt, e.DtTxt, fc.City.Timezone)
		if !ok {
			continue
		}

		switch {
		case t.Format(DateKeyLayout) == dayKey:
			rows = append(rows, hourlyRow(e, t.Format("15:04"), icon))
			trailing = true
		case trailing:
			rows = append(rows, hourlyRow(e, t.Format("15:04"), icon))
			trailing = false
		}
	}

	return rows
}

func hourlyRow(e openweather.ForecastEntry, clock string, icon IconFunc) HourlyRow {
	cond := openweather.Primary(e.Weather)
	return HourlyRow{
		Time:        clock,
		Description: cond.Description,
		IconURL:     icon(cond.Icon),
		Temp:        e.Main.Temp,
		Wind:        e.Wind.Speed,
		TempMin:     e.Main.TempMin,
		TempMax:     e.Main.TempMax,
		Pressure:    e.Main.Pressure,
	}
}
