package models

import "time"

// Condition is the provider's weather phenomenon for a point in time.
type Condition struct {
	Text string `json:"text"`
	Code int    `json:"code"`
	Icon string `json:"icon,omitempty"`
}

// Place is the provider's description of a resolved location.
type Place struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	TimeZone  string  `json:"tzId,omitempty"`
	LocalTime string  `json:"localtime,omitempty"`
}

// WeatherSnapshot holds current conditions for a location.
type WeatherSnapshot struct {
	LastUpdated   string    `json:"lastUpdated,omitempty"`
	TemperatureC  float64   `json:"temperatureC"`
	FeelsLikeC    float64   `json:"feelsLikeC"`
	IsDay         int       `json:"isDay"`
	Condition     Condition `json:"condition"`
	WindKph       float64   `json:"windKph"`
	WindDirection string    `json:"windDirection"`
	GustKph       float64   `json:"gustKph"`
	Humidity      int       `json:"humidity"`
	Cloud         int       `json:"cloud"`
	PressureMb    float64   `json:"pressureMb"`
	PrecipMm      float64   `json:"precipMm"`
	VisibilityKm  float64   `json:"visibilityKm"`
	UV            float64   `json:"uv"`
}

// HourlyForecast is one hour of a forecast day.
type HourlyForecast struct {
	Time          string    `json:"time"`
	TemperatureC  float64   `json:"temperatureC"`
	FeelsLikeC    float64   `json:"feelsLikeC"`
	IsDay         int       `json:"isDay"`
	Condition     Condition `json:"condition"`
	WindKph       float64   `json:"windKph"`
	WindDirection string    `json:"windDirection"`
	GustKph       float64   `json:"gustKph"`
	Humidity      int       `json:"humidity"`
	Cloud         int       `json:"cloud"`
	PressureMb    float64   `json:"pressureMb"`
	PrecipMm      float64   `json:"precipMm"`
	VisibilityKm  float64   `json:"visibilityKm"`
	UV            float64   `json:"uv"`
	ChanceOfRain  int       `json:"chanceOfRain"`
}

// DaySummary is the aggregate for one calendar day.
type DaySummary struct {
	MaxTempC      float64   `json:"maxTempC"`
	MinTempC      float64   `json:"minTempC"`
	AvgTempC      float64   `json:"avgTempC"`
	MaxWindKph    float64   `json:"maxWindKph"`
	TotalPrecipMm float64   `json:"totalPrecipMm"`
	AvgHumidity   float64   `json:"avgHumidity"`
	WillItRain    bool      `json:"willItRain"`
	ChanceOfRain  int       `json:"chanceOfRain"`
	Condition     Condition `json:"condition"`
	UV            float64   `json:"uv"`
}

// ForecastDay is one day of the multi-day forecast with its 24 hourly entries.
type ForecastDay struct {
	Date      string           `json:"date"`
	Day       DaySummary       `json:"day"`
	Astronomy AstronomyInfo    `json:"astronomy"`
	Hours     []HourlyForecast `json:"hours"`
}

// AstronomyInfo times are display strings as returned by the provider ("06:12 AM").
type AstronomyInfo struct {
	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	Moonrise         string `json:"moonrise"`
	Moonset          string `json:"moonset"`
	MoonPhase        string `json:"moonPhase"`
	MoonIllumination string `json:"moonIllumination"`
}

// LocationMatch is one result of a provider location search.
type LocationMatch struct {
	ID        int64   `json:"id,omitempty"`
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// CurrentReport is the result of a current-conditions fetch.
type CurrentReport struct {
	Place   Place           `json:"place"`
	Current WeatherSnapshot `json:"current"`
}

// Report is the immutable result of one fetch cycle: current, forecast and astronomy
// for the same location query.
type Report struct {
	Query     string          `json:"query"`
	Place     Place           `json:"place"`
	Current   WeatherSnapshot `json:"current"`
	Forecast  []ForecastDay   `json:"forecast"`
	Astronomy AstronomyInfo   `json:"astronomy"`
	FetchedAt time.Time       `json:"fetchedAt"`
}
