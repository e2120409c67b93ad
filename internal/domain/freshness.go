package domain

import "time"

// Freshness clasifica la antigüedad de una cotización en tres niveles.
type Freshness string

const (
	FreshnessLive     Freshness = "LIVE"
	FreshnessNearLive Freshness = "NEAR_LIVE"
	FreshnessDelayed  Freshness = "DELAYED"
)

const (
	liveMaxAge     = 3 * time.Second
	nearLiveMaxAge = 15 * time.Second
)

// Tag devuelve el indicador visual de cada nivel para la consola.
func (f Freshness) Tag() string {
	switch f {
	case FreshnessLive:
		return "🟢"
	case FreshnessNearLive:
		return "🟡"
	default:
		return "🔴"
	}
}

// ClassifyFreshness clasifica la edad de una cotización. Función pura de la
// edad, sin I/O: edad ≤ 3s → LIVE, ≤ 15s → NEAR_LIVE, mayor o sin timestamp
// de origen → DELAYED. Devuelve la edad en segundos enteros, nil si origin es nil.
func ClassifyFreshness(origin *time.Time, now time.Time) (Freshness, *int) {
	if origin == nil {
		return FreshnessDelayed, nil
	}
	age := now.Sub(*origin)
	secs := int(age.Seconds())
	switch {
	case age <= liveMaxAge:
		return FreshnessLive, &secs
	case age <= nearLiveMaxAge:
		return FreshnessNearLive, &secs
	default:
		return FreshnessDelayed, &secs
	}
}
