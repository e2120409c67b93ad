package domain

import "math"

// Direction es el sentido del trade que se está calificando.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// ParseDirection normaliza un nombre de dirección de config/CLI; default LONG.
func ParseDirection(s string) Direction {
	if s == string(DirectionShort) || s == "short" || s == "SELL" || s == "sell" {
		return DirectionShort
	}
	return DirectionLong
}

// ConfidenceLabel es la etiqueta de calidad derivada del score.
type ConfidenceLabel string

const (
	ConfidenceHigh     ConfidenceLabel = "HIGH"
	ConfidenceModerate ConfidenceLabel = "MODERATE"
	ConfidenceLow      ConfidenceLabel = "LOW"
	ConfidenceNoTrade  ConfidenceLabel = "NO_TRADE"
)

// RiskContext resume el estado del día para la penalización de riesgo.
type RiskContext struct {
	TradesToday int
	DayPnL      float64
}

// Confidence es el resultado del scorer blando. Nunca bloquea: solo califica
// setups que el gate ya dejó pasar.
type Confidence struct {
	Score   int
	Label   ConfidenceLabel
	Reasons []string
}

// Pesos del scorer. Inputs ausentes degradan a un default pequeño y positivo
// con su razón explicativa, nunca anulan el score completo.
//
//	lado del VWAP        15 alineado / 5 contra / 5 ausente
//	proximidad al VWAP   10 (<0.3%) / 5 (<1%) / 0 lejos / 3 ausente
//	estructura EMA       20 alineada / 5 contra / 8 ausente
//	zona RSI             15 en [45,65] / 5 extremo (>70 o <30) / 8 resto o ausente
//	PCR del índice       15 alineado / 5 contra / 8 ausente
//	sesgo de opciones    10 alineado / 3 neutro o contra
//	penalización riesgo  −5 con ≥5 trades hoy, −5 en drawdown
const (
	vwapAligned     = 15
	vwapAgainst     = 5
	vwapMissing     = 5
	proxTight       = 10
	proxNear        = 5
	proxMissing     = 3
	trendAligned    = 20
	trendAgainst    = 5
	trendMissing    = 8
	rsiHealthy      = 15
	rsiExtreme      = 5
	rsiNeutral      = 8
	pcrAligned      = 15
	pcrAgainst      = 5
	pcrMissing      = 8
	biasAligned     = 10
	biasNeutral     = 3
	fatiguePenalty  = 5
	drawdownPenalty = 5

	proxTightPct = 0.003
	proxNearPct  = 0.01

	rsiHealthyLo = 45.0
	rsiHealthyHi = 65.0
	rsiStretchHi = 70.0
	rsiStretchLo = 30.0

	fatigueTrades = 5
)

// LabelForScore mapea el score a su etiqueta: ≥75 HIGH, ≥60 MODERATE, ≥45 LOW,
// resto NO_TRADE. Los umbrales son fronteras exactas.
func LabelForScore(score int) ConfidenceLabel {
	switch {
	case score >= 75:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceModerate
	case score >= 45:
		return ConfidenceLow
	default:
		return ConfidenceNoTrade
	}
}

// ScoreConfidence califica un setup ya permitido por el gate. Aditivo y
// acotado a [0,100]; cada factor suma según alineación con direction.
func ScoreConfidence(snap Snapshot, direction Direction, indexPCR *float64, bias OptionsBias, risk RiskContext) Confidence {
	score := 0
	var reasons []string

	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	long := direction != DirectionShort
	price := snap.Price

	// Lado del VWAP.
	switch {
	case snap.VWAP == nil:
		add(vwapMissing, "VWAP unavailable (confidence reduced)")
	case long && price > *snap.VWAP:
		add(vwapAligned, "price above VWAP (bullish bias)")
	case !long && price < *snap.VWAP:
		add(vwapAligned, "price below VWAP (bearish bias)")
	default:
		add(vwapAgainst, "price on the wrong side of VWAP (counter-trend setup)")
	}

	// Proximidad al VWAP: informativa, pondera slippage de entrada.
	if snap.VWAP != nil && *snap.VWAP > 0 {
		dist := math.Abs(price-*snap.VWAP) / *snap.VWAP
		switch {
		case dist < proxTightPct:
			add(proxTight, "price close to VWAP (low slippage)")
		case dist < proxNearPct:
			add(proxNear, "price moderately near VWAP")
		default:
			reasons = append(reasons, "price extended from VWAP")
		}
	} else {
		add(proxMissing, "VWAP proximity unknown")
	}

	// Estructura de tendencia EMA rápida vs lenta.
	switch {
	case snap.EMAFast == nil || snap.EMASlow == nil:
		add(trendMissing, "trend indicators unavailable")
	case long && *snap.EMAFast > *snap.EMASlow:
		add(trendAligned, "short-term trend above medium-term EMA")
	case !long && *snap.EMAFast < *snap.EMASlow:
		add(trendAligned, "short-term trend below medium-term EMA (bearish alignment)")
	default:
		add(trendAgainst, "trend structure against the trade")
	}

	// Zona RSI.
	switch {
	case snap.RSI == nil:
		add(rsiNeutral, "RSI unavailable")
	case *snap.RSI >= rsiHealthyLo && *snap.RSI <= rsiHealthyHi:
		add(rsiHealthy, "RSI in healthy momentum zone")
	case *snap.RSI > rsiStretchHi || *snap.RSI < rsiStretchLo:
		add(rsiExtreme, "RSI at extreme (late entry risk)")
	default:
		add(rsiNeutral, "RSI acceptable")
	}

	// PCR del índice.
	switch {
	case indexPCR == nil:
		add(pcrMissing, "index PCR unavailable")
	case long && *indexPCR > 1:
		add(pcrAligned, "index PCR supports long bias")
	case !long && *indexPCR < 1:
		add(pcrAligned, "index PCR supports short bias")
	default:
		add(pcrAgainst, "index PCR not supportive")
	}

	// Sesgo del flujo de opciones.
	switch {
	case long && bias == BiasBullish:
		add(biasAligned, "options flow bullish")
	case !long && bias == BiasBearish:
		add(biasAligned, "options flow bearish")
	default:
		add(biasNeutral, "options bias neutral or mixed")
	}

	// Penalización por contexto de riesgo.
	if risk.TradesToday >= fatigueTrades {
		add(-fatiguePenalty, "multiple trades today (fatigue risk)")
	}
	if risk.DayPnL < 0 {
		add(-drawdownPenalty, "currently in drawdown")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Confidence{
		Score:   score,
		Label:   LabelForScore(score),
		Reasons: reasons,
	}
}
