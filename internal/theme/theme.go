// Package theme maps weather conditions to presentation hints: a background
// category and its asset, an icon name, an animation and a moon-phase glyph.
// Every function is pure and total.
package theme

import (
	"strings"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Category is a background category.
type Category string

const (
	Night  Category = "night"
	Sunny  Category = "sunny"
	Rainy  Category = "rainy"
	Stormy Category = "stormy"
	Cloudy Category = "cloudy"
)

// Asset returns the background image path for the category.
func (c Category) Asset() string {
	return "/" + string(c) + ".png"
}

// Background picks the category for a condition. Rules are evaluated in order and
// the first match wins; snow deliberately maps to Stormy.
func Background(text string, code int, isDay int) Category {
	t := strings.ToLower(text)

	switch {
	case isDay == 0:
		return Night
	case code == 1000 || containsAny(t, "sunny", "clear"):
		return Sunny
	case between(code, 1063, 1207) || containsAny(t, "rain", "drizzle", "shower"):
		return Rainy
	case code == 1087 || between(code, 1273, 1276) || containsAny(t, "thunder", "storm", "lightning"):
		return Stormy
	case between(code, 1003, 1009) || code == 1030 || containsAny(t, "cloud", "overcast", "partly cloudy", "mist", "fog", "haze"):
		return Cloudy
	case between(code, 1066, 1230) || containsAny(t, "snow", "sleet"):
		return Stormy
	}
	return Sunny
}

// AnimationKind names a foreground animation.
type AnimationKind string

const (
	AnimationSunRays   AnimationKind = "sun-rays"
	AnimationRaindrops AnimationKind = "raindrops"
	AnimationLightning AnimationKind = "lightning"
	AnimationDust      AnimationKind = "dust"
	AnimationNone      AnimationKind = "none"
)

// Animation returns the animation for an icon name.
func Animation(icon string) AnimationKind {
	switch icon {
	case IconSun:
		return AnimationSunRays
	case IconCloudRain:
		return AnimationRaindrops
	case IconCloudLightning:
		return AnimationLightning
	case IconCloud:
		return AnimationDust
	}
	return AnimationNone
}

// Icon names understood by the dashboard client.
const (
	IconCloudSun       = "CloudSun"
	IconSun            = "Sun"
	IconCloud          = "Cloud"
	IconCloudRain      = "CloudRain"
	IconCloudLightning = "CloudLightning"
	IconCloudDrizzle   = "CloudDrizzle"
)

var knownIcons = map[string]struct{}{
	IconCloudSun: {}, IconSun: {}, IconCloud: {}, IconCloudRain: {}, IconCloudLightning: {}, IconCloudDrizzle: {},
	"Droplets": {}, "Thermometer": {}, "Wind": {}, "Gauge": {}, "Eye": {}, "Sunrise": {}, "Sunset": {},
}

// IconName returns the condition's icon when it is a known name. Provider icon URLs
// are not names, so the icon is derived from the background category instead.
func IconName(c models.Condition, bg Category) string {
	if _, ok := knownIcons[c.Icon]; ok {
		return c.Icon
	}
	switch bg {
	case Sunny:
		return IconSun
	case Rainy:
		return IconCloudRain
	case Stormy:
		return IconCloudLightning
	case Cloudy:
		return IconCloud
	}
	return IconCloudSun
}

// MoonPhaseGlyph returns the moon emoji for a phase name such as "Waxing Gibbous".
func MoonPhaseGlyph(phase string) string {
	p := strings.ToLower(phase)
	switch {
	case strings.Contains(p, "new"):
		return "🌑"
	case strings.Contains(p, "waxing crescent"):
		return "🌒"
	case strings.Contains(p, "first quarter"):
		return "🌓"
	case strings.Contains(p, "waxing gibbous"):
		return "🌔"
	case strings.Contains(p, "full"):
		return "🌕"
	case strings.Contains(p, "waning gibbous"):
		return "🌖"
	case strings.Contains(p, "last quarter"), strings.Contains(p, "third quarter"):
		return "🌗"
	case strings.Contains(p, "waning crescent"):
		return "🌘"
	}
	return "🌙"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func between(v, lo, hi int) bool {
	return v >= lo && v <= hi
}
