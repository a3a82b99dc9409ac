package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/page"
	"github.com/vzahanych/weather-page/internal/view"
)

type forecastOptions struct {
	city string
	lat  float64
	lon  float64
	lang string
	day  string
}

func forecastCmd() *cobra.Command {
	opts := &forecastOptions{}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the five day forecast for a city or coordinates",
		Example: `  weather forecast --city Rome --lang Italian
  weather forecast --lat 41.89 --lon 12.48 --day 2023-11-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := page.Query{City: opts.city, Lang: opts.lang, Day: opts.day}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				q.Lat = &opts.lat
				q.Lon = &opts.lon
			}
			return runForecast(cmd, q)
		},
	}

	cmd.Flags().StringVar(&opts.city, "city", "", "city name")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "latitude, used together with --lon")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "longitude, used together with --lat")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "language name or code (default: configured language)")
	cmd.Flags().StringVar(&opts.day, "day", "", "day to detail, as YYYY-MM-DD (default: first day)")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("city", "lat")

	return cmd
}

func runForecast(cmd *cobra.Command, q page.Query) error {
	builder, err := newBuilder(config.GetConfig(), nil)
	if err != nil {
		return err
	}

	p, err := builder.Build(cmd.Context(), q)
	if err != nil {
		return err
	}

	return printPage(cmd.OutOrStdout(), p)
}

func printPage(out io.Writer, p *view.Page) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\n\n", p.City)
	for _, d := range p.Days {
		marker := " "
		if d.Key == p.SelectedDay {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s %d %s\t%d%s / %d%s\t%s\n",
			marker, d.Weekday, d.Date, d.Month,
			d.Min, p.Units.Temp, d.Max, p.Units.Temp, d.Description)
	}

	h := p.Labels.Headers
	fmt.Fprintf(w, "\n%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		h.Time, h.Weather, h.Temp, h.Wind, h.TempMin, h.TempMax, h.Pressure)
	for _, r := range p.Hours {
		fmt.Fprintf(w, "%s\t%s\t%.1f %s\t%.1f %s\t%.1f %s\t%.1f %s\t%.0f %s\n",
			r.Time, r.Description,
			r.Temp, p.Units.Temp,
			r.Wind, p.Units.Speed,
			r.TempMin, p.Units.Temp,
			r.TempMax, p.Units.Temp,
			r.Pressure, p.Units.Pressure)
	}

	return w.Flush()
}
