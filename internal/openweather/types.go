package openweather

// Kind selects the upstream endpoint a request is sent to.
type Kind string

const (
	// KindOneCall is the one-call endpoint (daily forecast).
	KindOneCall Kind = "one"
	// KindForecast is the 5 day / 3 hour forecast endpoint.
	KindForecast Kind = "forecast"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOneCall, KindForecast:
		return Kind(s), nil
	case "":
		return KindOneCall, nil
	default:
		return "", ErrUnknownKind
	}
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type DailyTemp struct {
	Day   float64 `json:"day"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

type Daily struct {
	Dt        int64       `json:"dt"`
	Temp      DailyTemp   `json:"temp"`
	Pressure  float64     `json:"pressure"`
	Humidity  float64     `json:"humidity"`
	WindSpeed float64     `json:"wind_speed"`
	Weather   []Condition `json:"weather"`
}

// OneCall is the subset of the one-call response the page renders.
type OneCall struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Timezone       string  `json:"timezone"`
	TimezoneOffset int     `json:"timezone_offset"`
	Daily          []Daily `json:"daily"`
}

type ForecastMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type ForecastEntry struct {
	Dt      int64        `json:"dt"`
	DtTxt   string       `json:"dt_txt"`
	Main    ForecastMain `json:"main"`
	Weather []Condition  `json:"weather"`
	Wind    Wind         `json:"wind"`
}

type City struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Coord    Coords `json:"coord"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
}

// Forecast is the subset of the 5 day / 3 hour response the page renders.
type Forecast struct {
	Cnt  int             `json:"cnt"`
	List []ForecastEntry `json:"list"`
	City City            `json:"city"`
}

// Primary returns the first weather condition, the one the API ranks highest.
func Primary(conditions []Condition) Condition {
	if len(conditions) == 0 {
		return Condition{}
	}
	return conditions[0]
}
