package domain

import (
	"fmt"
	"math"
	"strings"
)

// Strategy identifica la estrategia intradía evaluada por el gate.
type Strategy string

const (
	StrategyORB           Strategy = "ORB"
	StrategyVWAPReversion Strategy = "VWAP_MEAN_REVERSION"
)

// ParseStrategy normaliza un nombre de estrategia de config/CLI; default ORB.
func ParseStrategy(s string) Strategy {
	if strings.EqualFold(s, string(StrategyVWAPReversion)) || strings.EqualFold(s, "vwap") {
		return StrategyVWAPReversion
	}
	return StrategyORB
}

// Umbrales de las reglas duras del gate.
const (
	orbMaxVWAPDistance = 0.01  // a más de 1% del VWAP no hay entrada ORB
	reversionMinEdge   = 0.002 // a menos de 0.2% del VWAP no hay edge de reversión
	rsiOverbought      = 80.0
	rsiOversold        = 20.0
)

// Evaluation es el resultado del gate de reglas duras.
type Evaluation struct {
	Allowed     bool
	BlockReason string   // primera razón bloqueante, "" si no hay
	Reasons     []string // bloqueantes primero, informativas después
	Snapshot    Snapshot
}

// Evaluate construye el snapshot de indicadores de la serie y aplica las
// reglas duras. Función total: nunca lanza. Precio inválido → bloqueado con
// razón única y snapshot vacío.
func Evaluate(series Series, price float64, strategy Strategy) Evaluation {
	if price <= 0 || math.IsNaN(price) {
		return EvaluateSnapshot(Snapshot{Price: price}, strategy)
	}
	return EvaluateSnapshot(BuildSnapshot(series, price), strategy)
}

// EvaluateSnapshot aplica las reglas duras sobre un snapshot ya construido.
// Un indicador ausente genera una razón informativa, nunca un bloqueo, salvo
// el VWAP en mean-reversion donde la estrategia no existe sin él.
func EvaluateSnapshot(snap Snapshot, strategy Strategy) Evaluation {
	price := snap.Price
	if price <= 0 || math.IsNaN(price) {
		return Evaluation{
			Allowed:     false,
			BlockReason: "invalid price",
			Reasons:     []string{"invalid price"},
		}
	}

	var blocking, info []string

	switch strategy {
	case StrategyVWAPReversion:
		if snap.VWAP == nil {
			blocking = append(blocking, "VWAP unavailable for mean-reversion entry")
		} else if dist := math.Abs(price-*snap.VWAP) / price; dist < reversionMinEdge {
			blocking = append(blocking, "no mean-reversion edge (price hugging VWAP)")
		}
	default: // ORB
		if snap.VWAP == nil {
			info = append(info, "VWAP unavailable (distance check skipped)")
		} else if dist := math.Abs(price-*snap.VWAP) / price; dist > orbMaxVWAPDistance {
			blocking = append(blocking, fmt.Sprintf("too far from VWAP for ORB entry (%.2f%%)", dist*100))
		}
	}

	if snap.RSI != nil {
		switch {
		case *snap.RSI > rsiOverbought:
			blocking = append(blocking, "RSI overbought")
		case *snap.RSI < rsiOversold:
			blocking = append(blocking, "RSI oversold")
		}
	} else {
		info = append(info, "RSI unavailable")
	}

	if snap.EMAFast != nil && snap.EMASlow != nil {
		if *snap.EMAFast < *snap.EMASlow {
			blocking = append(blocking, "short-term trend below medium-term trend")
		}
	} else {
		info = append(info, "EMA trend unavailable")
	}

	reasons := make([]string, 0, len(blocking)+len(info))
	reasons = append(reasons, blocking...)
	reasons = append(reasons, info...)

	ev := Evaluation{
		Allowed:  len(blocking) == 0,
		Reasons:  reasons,
		Snapshot: snap,
	}
	if len(blocking) > 0 {
		ev.BlockReason = blocking[0]
	}
	return ev
}
