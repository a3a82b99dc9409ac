package view

import "strconv"

const DefaultBackground = "#000000"

// backgrounds maps weather condition groups to page colors. 800 (clear sky)
// is the only code with its own entry.
var backgrounds = map[string]string{
	"2XX": "#37444e",
	"3XX": "#487ca5",
	"5XX": "#a2acb8",
	"6XX": "#e8e8e8",
	"7XX": "#c1bbbb",
	"800": "#84ccff",
	"8XX": "#7e8da4",
}

// Background returns the page color for an OpenWeatherMap condition id.
func Background(weatherID int) string {
	key := strconv.Itoa(weatherID/100) + "XX"
	if weatherID == 800 {
		key = "800"
	}
	if color, ok := backgrounds[key]; ok {
		return color
	}
	return DefaultBackground
}
