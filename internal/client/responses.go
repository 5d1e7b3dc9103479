package client

import (
	"github.com/goccy/go-json"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// flexString accepts either a JSON string or a bare number. The provider has shipped
// moon_illumination both ways.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(b)
	return nil
}

type apiCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type apiLocation struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	TzID      string  `json:"tz_id"`
	Localtime string  `json:"localtime"`
}

type apiCurrent struct {
	LastUpdated string       `json:"last_updated"`
	TempC       float64      `json:"temp_c"`
	IsDay       int          `json:"is_day"`
	Condition   apiCondition `json:"condition"`
	WindKph     float64      `json:"wind_kph"`
	WindDir     string       `json:"wind_dir"`
	PressureMb  float64      `json:"pressure_mb"`
	PrecipMm    float64      `json:"precip_mm"`
	Humidity    int          `json:"humidity"`
	Cloud       int          `json:"cloud"`
	FeelslikeC  float64      `json:"feelslike_c"`
	VisKm       float64      `json:"vis_km"`
	UV          float64      `json:"uv"`
	GustKph     float64      `json:"gust_kph"`
}

type apiHour struct {
	Time         string       `json:"time"`
	TempC        float64      `json:"temp_c"`
	IsDay        int          `json:"is_day"`
	Condition    apiCondition `json:"condition"`
	WindKph      float64      `json:"wind_kph"`
	WindDir      string       `json:"wind_dir"`
	PressureMb   float64      `json:"pressure_mb"`
	PrecipMm     float64      `json:"precip_mm"`
	Humidity     int          `json:"humidity"`
	Cloud        int          `json:"cloud"`
	FeelslikeC   float64      `json:"feelslike_c"`
	VisKm        float64      `json:"vis_km"`
	UV           float64      `json:"uv"`
	GustKph      float64      `json:"gust_kph"`
	ChanceOfRain int          `json:"chance_of_rain"`
}

type apiDay struct {
	MaxtempC          float64      `json:"maxtemp_c"`
	MintempC          float64      `json:"mintemp_c"`
	AvgtempC          float64      `json:"avgtemp_c"`
	MaxwindKph        float64      `json:"maxwind_kph"`
	TotalprecipMm     float64      `json:"totalprecip_mm"`
	Avghumidity       float64      `json:"avghumidity"`
	DailyWillItRain   int          `json:"daily_will_it_rain"`
	DailyChanceOfRain int          `json:"daily_chance_of_rain"`
	Condition         apiCondition `json:"condition"`
	UV                float64      `json:"uv"`
}

type apiAstro struct {
	Sunrise          string     `json:"sunrise"`
	Sunset           string     `json:"sunset"`
	Moonrise         string     `json:"moonrise"`
	Moonset          string     `json:"moonset"`
	MoonPhase        string     `json:"moon_phase"`
	MoonIllumination flexString `json:"moon_illumination"`
}

type apiForecastDay struct {
	Date  string    `json:"date"`
	Day   apiDay    `json:"day"`
	Astro apiAstro  `json:"astro"`
	Hour  []apiHour `json:"hour"`
}

type currentResponse struct {
	Location apiLocation `json:"location"`
	Current  apiCurrent  `json:"current"`
}

type forecastResponse struct {
	Location apiLocation `json:"location"`
	Forecast struct {
		ForecastDay []apiForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type astronomyResponse struct {
	Location  apiLocation `json:"location"`
	Astronomy struct {
		Astro apiAstro `json:"astro"`
	} `json:"astronomy"`
}

type searchResult struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (c apiCondition) toModel() models.Condition {
	return models.Condition{Text: c.Text, Code: c.Code, Icon: c.Icon}
}

func (l apiLocation) toModel() models.Place {
	return models.Place{
		Name:      l.Name,
		Region:    l.Region,
		Country:   l.Country,
		Latitude:  l.Lat,
		Longitude: l.Lon,
		TimeZone:  l.TzID,
		LocalTime: l.Localtime,
	}
}

func (c apiCurrent) toModel() models.WeatherSnapshot {
	return models.WeatherSnapshot{
		LastUpdated:   c.LastUpdated,
		TemperatureC:  c.TempC,
		FeelsLikeC:    c.FeelslikeC,
		IsDay:         c.IsDay,
		Condition:     c.Condition.toModel(),
		WindKph:       c.WindKph,
		WindDirection: c.WindDir,
		GustKph:       c.GustKph,
		Humidity:      c.Humidity,
		Cloud:         c.Cloud,
		PressureMb:    c.PressureMb,
		PrecipMm:      c.PrecipMm,
		VisibilityKm:  c.VisKm,
		UV:            c.UV,
	}
}

func (h apiHour) toModel() models.HourlyForecast {
	return models.HourlyForecast{
		Time:          h.Time,
		TemperatureC:  h.TempC,
		FeelsLikeC:    h.FeelslikeC,
		IsDay:         h.IsDay,
		Condition:     h.Condition.toModel(),
		WindKph:       h.WindKph,
		WindDirection: h.WindDir,
		GustKph:       h.GustKph,
		Humidity:      h.Humidity,
		Cloud:         h.Cloud,
		PressureMb:    h.PressureMb,
		PrecipMm:      h.PrecipMm,
		VisibilityKm:  h.VisKm,
		UV:            h.UV,
		ChanceOfRain:  h.ChanceOfRain,
	}
}

func (a apiAstro) toModel() models.AstronomyInfo {
	return models.AstronomyInfo{
		Sunrise:          a.Sunrise,
		Sunset:           a.Sunset,
		Moonrise:         a.Moonrise,
		Moonset:          a.Moonset,
		MoonPhase:        a.MoonPhase,
		MoonIllumination: string(a.MoonIllumination),
	}
}

func (d apiForecastDay) toModel() models.ForecastDay {
	hours := make([]models.HourlyForecast, 0, len(d.Hour))
	for _, h := range d.Hour {
		hours = append(hours, h.toModel())
	}
	return models.ForecastDay{
		Date: d.Date,
		Day: models.DaySummary{
			MaxTempC:      d.Day.MaxtempC,
			MinTempC:      d.Day.MintempC,
			AvgTempC:      d.Day.AvgtempC,
			MaxWindKph:    d.Day.MaxwindKph,
			TotalPrecipMm: d.Day.TotalprecipMm,
			AvgHumidity:   d.Day.Avghumidity,
			WillItRain:    d.Day.DailyWillItRain == 1,
			ChanceOfRain:  d.Day.DailyChanceOfRain,
			Condition:     d.Day.Condition.toModel(),
			UV:            d.Day.UV,
		},
		Astronomy: d.Astro.toModel(),
		Hours:     hours,
	}
}

func (r searchResult) toModel() models.LocationMatch {
	return models.LocationMatch{
		ID:        r.ID,
		Name:      r.Name,
		Region:    r.Region,
		Country:   r.Country,
		Latitude:  r.Lat,
		Longitude: r.Lon,
	}
}
