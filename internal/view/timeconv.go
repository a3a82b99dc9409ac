package view

import "time"

// DateKeyLayout identifies a calendar day in the city's local time.
const DateKeyLayout = "2006-01-02"

const dtTxtLayout = "2006-01-02 15:04:05"

// Time is a unix timestamp broken down in the city's local time, with
// localized month and weekday names.
type Time struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
	Date  int    `json:"date"`
	Hour  int    `json:"hour"`
	Min   int    `json:"min"`
	Sec   int    `json:"sec"`
	Day   string `json:"day"`
	Key   string `json:"key"`
}

// ConvertTime breaks unix down at the given UTC offset (seconds east of UTC).
func ConvertTime(unix int64, offset int, labels Labels) Time {
	t := localTime(unix, offset)
	return Time{
		Year:  t.Year(),
		Month: labels.Months[t.Month()-1],
		Date:  t.Day(),
		Hour:  t.Hour(),
		Min:   t.Minute(),
		Sec:   t.Second(),
		Day:   labels.Weekdays[t.Weekday()],
		Key:   t.Format(DateKeyLayout),
	}
}

func localTime(unix int64, offset int) time.Time {
	return time.Unix(unix, 0).In(time.FixedZone("", offset))
}

// entryTime prefers dt and falls back to the UTC dt_txt field.
func entryTime(dt int64, dtTxt string, offset int) (time.Time, bool) {
	if dt != 0 {
		return localTime(dt, offset), true
	}
	t, err := time.ParseInLocation(dtTxtLayout, dtTxt, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(time.FixedZone("", offset)), true
}
