package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/weather-dashboard/internal/service"
)

// maxForecastColumns keeps the forecast table within a terminal width.
const maxForecastColumns = 7

func render(cmd *cobra.Command, st service.State) {
	r := st.Report
	if r == nil {
		cmd.Println("no weather data")
		return
	}
	place := joinNonEmpty(", ", r.Place.Name, r.Place.Region, r.Place.Country)
	if st.Source != "" {
		place += " (" + string(st.Source) + ")"
	}
	if st.Placeholder {
		place += " [sample data]"
	}

	cmd.Printf("LOCATION\t %s\n", place)
	if r.Place.LocalTime != "" {
		cmd.Printf("LOCAL TIME\t %s\n", r.Place.LocalTime)
	}
	c := r.Current
	if st.Hints != nil {
		cmd.Printf("NOW\t\t %s, %.0f°C (feels %.0f°C) [%s]\n", c.Condition.Text, c.TemperatureC, c.FeelsLikeC, st.Hints.Background)
	} else {
		cmd.Printf("NOW\t\t %s, %.0f°C (feels %.0f°C)\n", c.Condition.Text, c.TemperatureC, c.FeelsLikeC)
	}
	cmd.Printf("WIND\t\t %.0f km/h %s, gusts %.0f km/h\n", c.WindKph, c.WindDirection, c.GustKph)
	cmd.Printf("HUMIDITY\t %d%%  UV %.0f  PRESSURE %.0f mb  VISIBILITY %.0f km\n", c.Humidity, c.UV, c.PressureMb, c.VisibilityKm)

	a := r.Astronomy
	cmd.Printf("SUN\t\t rise %s  set %s\n", a.Sunrise, a.Sunset)
	moon := a.MoonPhase
	if st.Hints != nil {
		moon = st.Hints.MoonGlyph + " " + moon
	}
	if a.MoonIllumination != "" {
		moon += " (" + a.MoonIllumination + "%)"
	}
	cmd.Printf("MOON\t\t %s\n", moon)

	days := r.Forecast
	if len(days) > maxForecastColumns {
		days = days[:maxForecastColumns]
	}
	if len(days) > 0 {
		cmd.Printf("DATE\t\t")
		for _, d := range days {
			cmd.Printf("%6s  ", shortDate(d.Date))
		}
		cmd.Printf("\nHIGH\t\t")
		for _, d := range days {
			cmd.Printf("%6.0f  ", d.Day.MaxTempC)
		}
		cmd.Printf("\nLOW\t\t")
		for _, d := range days {
			cmd.Printf("%6.0f  ", d.Day.MinTempC)
		}
		cmd.Printf("\nRAIN %%\t\t")
		for _, d := range days {
			cmd.Printf("%6d  ", d.Day.ChanceOfRain)
		}
		cmd.Printf("\n")
	}
	if st.Error != "" {
		cmd.Printf("NOTE\t\t %s\n", st.Error)
	}
}

// shortDate turns "2024-03-15" into "03-15".
func shortDate(date string) string {
	if len(date) == len("2006-01-02") {
		return date[5:]
	}
	return date
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
