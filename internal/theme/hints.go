package theme

import "github.com/kjstillabower/weather-dashboard/internal/models"

// Hints is everything a client needs to style a report.
type Hints struct {
	Background    Category      `json:"background"`
	Asset         string        `json:"asset"`
	Icon          string        `json:"icon"`
	Animation     AnimationKind `json:"animation"`
	MoonGlyph     string        `json:"moonGlyph"`
	ForecastIcons []string      `json:"forecastIcons"`
}

// HintsFor derives presentation hints from a report's current condition, day/night
// flag, astronomy and daily forecast conditions.
func HintsFor(r models.Report) Hints {
	cur := r.Current
	bg := Background(cur.Condition.Text, cur.Condition.Code, cur.IsDay)
	icon := IconName(cur.Condition, bg)

	forecastIcons := make([]string, 0, len(r.Forecast))
	for _, d := range r.Forecast {
		// Daily aggregates have no day/night flag; treat them as daytime.
		dayBg := Background(d.Day.Condition.Text, d.Day.Condition.Code, 1)
		forecastIcons = append(forecastIcons, IconName(d.Day.Condition, dayBg))
	}

	return Hints{
		Background:    bg,
		Asset:         bg.Asset(),
		Icon:          icon,
		Animation:     Animation(icon),
		MoonGlyph:     MoonPhaseGlyph(r.Astronomy.MoonPhase),
		ForecastIcons: forecastIcons,
	}
}
