package domain

import (
	"math"
	"time"
)

// FeatureSchemaVersion identifica el esquema de features del scorer ML.
// Cambiarlo exige reentrenar el modelo: el orden del vector está bloqueado.
const FeatureSchemaVersion = "1.0.0"

// FeatureNames es el orden canónico del vector. Solo se añade al final,
// nunca se reordena.
var FeatureNames = []string{
	"price_vs_vwap_pct",
	"vwap_slope",
	"rsi",
	"ema_trend",
	"orb_range_pct",
	"volume_ratio",
	"index_pcr",
	"options_bias_score",
	"time_of_day_minutes",
}

// SetupFeatures es el contexto de un setup para el scorer ML consultivo.
// Campos en nil degradan a 0.0 en el vector, jamás a un error.
type SetupFeatures struct {
	PriceVsVWAPPct   *float64 // (precio − VWAP) / VWAP × 100
	VWAPSlope        *float64 // pendiente del VWAP en las últimas velas
	RSI              *float64
	EMATrend         *float64 // +1 rápida > lenta, −1 rápida < lenta
	ORBRangePct      *float64 // (orbHigh − orbLow) / precio × 100
	VolumeRatio      *float64 // volumen última vela / media de la sesión
	IndexPCR         *float64
	OptionsBiasScore *float64 // +1 bullish, −1 bearish, 0 neutral
	TimeOfDayMinutes *float64 // minutos desde la apertura de sesión
}

// Vector aplana las features al orden bloqueado del esquema. Ausentes y no
// finitos → 0.0, nunca KeyError ni NaN aguas abajo.
func (f SetupFeatures) Vector() []float64 {
	fields := []*float64{
		f.PriceVsVWAPPct,
		f.VWAPSlope,
		f.RSI,
		f.EMATrend,
		f.ORBRangePct,
		f.VolumeRatio,
		f.IndexPCR,
		f.OptionsBiasScore,
		f.TimeOfDayMinutes,
	}
	vec := make([]float64, len(fields))
	for i, p := range fields {
		if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
			continue
		}
		vec[i] = *p
	}
	return vec
}

// Score mapea el sesgo de opciones a su feature numérica.
func (b OptionsBias) Score() float64 {
	switch b {
	case BiasBullish:
		return 1
	case BiasBearish:
		return -1
	default:
		return 0
	}
}

// vwapSlopeWindow son las velas sobre las que se mide la pendiente del VWAP.
const vwapSlopeWindow = 5

// BuildSetupFeatures ensambla el contexto ML de un setup a partir del
// snapshot, su serie y el contexto de opciones del índice. Cada feature se
// deriva de forma independiente: lo que no se pueda calcular queda en nil.
func BuildSetupFeatures(snap Snapshot, series Series, pcr *float64, bias OptionsBias, at time.Time) SetupFeatures {
	f := SetupFeatures{
		RSI:      snap.RSI,
		IndexPCR: pcr,
	}

	score := bias.Score()
	f.OptionsBiasScore = &score

	if snap.VWAP != nil && *snap.VWAP > 0 {
		v := (snap.Price - *snap.VWAP) / *snap.VWAP * 100
		f.PriceVsVWAPPct = &v
	}
	if snap.EMAFast != nil && snap.EMASlow != nil {
		trend := 0.0
		switch {
		case *snap.EMAFast > *snap.EMASlow:
			trend = 1
		case *snap.EMAFast < *snap.EMASlow:
			trend = -1
		}
		f.EMATrend = &trend
	}
	if snap.ORBHigh != nil && snap.ORBLow != nil && snap.Price > 0 {
		v := (*snap.ORBHigh - *snap.ORBLow) / snap.Price * 100
		f.ORBRangePct = &v
	}

	f.VWAPSlope = vwapSlope(series)
	f.VolumeRatio = volumeRatio(series)

	minutes := at.In(istLocation).Sub(sessionOpenAt(at)).Minutes()
	if minutes >= 0 {
		f.TimeOfDayMinutes = &minutes
	}

	return f
}

// vwapSlope mide la deriva del VWAP acumulado: diferencia por vela entre el
// VWAP actual y el de hace vwapSlopeWindow velas.
func vwapSlope(series Series) *float64 {
	if len(series) <= vwapSlopeWindow {
		return nil
	}

	running := make([]float64, 0, len(series))
	var pv, vol float64
	for _, c := range series {
		typical := (c.High + c.Low + c.Close) / 3
		pv += typical * c.Volume
		vol += c.Volume
		if vol <= 0 {
			return nil
		}
		running = append(running, pv/vol)
	}

	last := running[len(running)-1]
	prev := running[len(running)-1-vwapSlopeWindow]
	slope := (last - prev) / vwapSlopeWindow
	return &slope
}

// volumeRatio compara la última vela con la media de la sesión.
func volumeRatio(series Series) *float64 {
	if len(series) == 0 {
		return nil
	}
	var total float64
	for _, c := range series {
		total += c.Volume
	}
	if total <= 0 {
		return nil
	}
	avg := total / float64(len(series))
	ratio := series[len(series)-1].Volume / avg
	return &ratio
}
