package models

// PlaceholderReport is the static dataset shown when the first load fails, so the
// dashboard stays populated.
func PlaceholderReport() Report {
	return Report{
		Query: "London",
		Place: Place{
			Name:      "London",
			Region:    "England",
			Country:   "UK",
			Latitude:  51.5074,
			Longitude: -0.1278,
			TimeZone:  "Europe/London",
			LocalTime: "2025-08-05 16:00",
		},
		Current: WeatherSnapshot{
			TemperatureC:  22,
			FeelsLikeC:    21,
			IsDay:         1,
			Condition:     Condition{Text: "Partly Cloudy", Code: 1003, Icon: "CloudSun"},
			WindKph:       10,
			WindDirection: "NW",
			GustKph:       15,
			Humidity:      65,
			Cloud:         50,
			PressureMb:    1012,
			PrecipMm:      0,
			VisibilityKm:  10,
			UV:            5,
		},
		Forecast: []ForecastDay{},
		Astronomy: AstronomyInfo{
			Sunrise:          "06:00 AM",
			Sunset:           "08:00 PM",
			Moonrise:         "09:00 PM",
			Moonset:          "07:00 AM",
			MoonPhase:        "Waxing Gibbous",
			MoonIllumination: "85",
		},
	}
}
