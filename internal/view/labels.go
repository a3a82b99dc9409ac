package view

// Labels are the localized strings the page needs besides the API's own
// descriptions, which already come back in the requested language.
type Labels struct {
	Lang     string       `json:"lang"`
	Weekdays [7]string    `json:"weekdays"`
	Months   [12]string   `json:"months"`
	Headers  TableHeaders `json:"headers"`
	Search   string       `json:"search"`
	Locate   string       `json:"locate"`
}

type TableHeaders struct {
	Time     string `json:"time"`
	Weather  string `json:"weather"`
	Icon     string `json:"icon"`
	Temp     string `json:"temp"`
	Wind     string `json:"wind"`
	TempMin  string `json:"temp_min"`
	TempMax  string `json:"temp_max"`
	Pressure string `json:"pressure"`
}

var labelsByLang = map[string]Labels{
	"en": {
		Lang:     "en",
		Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Months: [12]string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
		Headers: TableHeaders{
			Time:     "Time",
			Weather:  "Weather",
			Icon:     "Icon",
			Temp:     "T",
			Wind:     "Wind",
			TempMin:  "Tmin",
			TempMax:  "Tmax",
			Pressure: "Pressure",
		},
		Search: "Search",
		Locate: "Use my location",
	},
	"it": {
		Lang:     "it",
		Weekdays: [7]string{"Domenica", "Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì", "Sabato"},
		Months: [12]string{"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
			"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre"},
		Headers: TableHeaders{
			Time:     "Ora",
			Weather:  "Tempo",
			Icon:     "Rappresentazione",
			Temp:     "T",
			Wind:     "Vento",
			TempMin:  "Tmin",
			TempMax:  "Tmax",
			Pressure: "Pressione",
		},
		Search: "Cerca",
		Locate: "Usa la mia posizione",
	},
}

// LabelsFor returns the labels for an API language code, falling back to English.
func LabelsFor(lang string) Labels {
	if l, ok := labelsByLang[lang]; ok {
		return l
	}
	return labelsByLang["en"]
}

// Units are the suffixes matching an OpenWeatherMap unit system.
type Units struct {
	System   string `json:"system"`
	Temp     string `json:"temp"`
	Speed    string `json:"speed"`
	Pressure string `json:"pressure"`
}

func UnitsFor(system string) Units {
	switch system {
	case "imperial":
		return Units{System: system, Temp: "°F", Speed: "mph", Pressure: "mb"}
	case "standard":
		return Units{System: system, Temp: "K", Speed: "m/s", Pressure: "mb"}
	default:
		return Units{System: "metric", Temp: "°C", Speed: "m/s", Pressure: "mb"}
	}
}
