package domain

// ScanStatus clasifica un símbolo del watchlist tras pasar por el pipeline.
type ScanStatus string

const (
	ScanBuy   ScanStatus = "BUY"
	ScanWatch ScanStatus = "WATCH"
	ScanAvoid ScanStatus = "AVOID"
)

// Umbrales del scanner, única fuente de verdad para el mapeo score → status.
const (
	scanBuyThreshold   = 70
	scanWatchThreshold = 45
)

// ScanResult es la fila del scanner para un símbolo. MLScore es consultivo:
// se adjunta si hay scorer disponible pero jamás altera Status.
type ScanResult struct {
	Symbol    string
	Status    ScanStatus
	Score     int
	Label     ConfidenceLabel
	Freshness Freshness
	Reasons   []string
	MLScore   *float64
}

// StatusForScore mapea la salida del pipeline al status del scanner:
// bloqueado por el gate → AVOID; score ≥70 → BUY; ≥45 → WATCH; resto AVOID.
func StatusForScore(allowed bool, score int) ScanStatus {
	if !allowed {
		return ScanAvoid
	}
	switch {
	case score >= scanBuyThreshold:
		return ScanBuy
	case score >= scanWatchThreshold:
		return ScanWatch
	default:
		return ScanAvoid
	}
}
