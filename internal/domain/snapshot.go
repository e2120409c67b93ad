package domain

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
)

// Períodos de los indicadores intradía.
const (
	rsiPeriod     = 14
	emaFastPeriod = 20
	emaSlowPeriod = 50
	orbMinutes    = 15
)

// Snapshot reúne los indicadores derivados de la serie intradía de un símbolo.
// Todos los campos derivados son opcionales de forma independiente: un
// indicador ausente degrada la evaluación, nunca la rompe.
type Snapshot struct {
	Price      float64
	VWAP       *float64
	RSI        *float64
	EMAFast    *float64
	EMASlow    *float64
	Support    *float64
	Resistance *float64
	ORBHigh    *float64
	ORBLow     *float64
}

// BuildSnapshot construye el snapshot de indicadores a partir de la serie.
// Serie vacía o insuficiente → campos en nil, nunca error.
func BuildSnapshot(series Series, price float64) Snapshot {
	snap := Snapshot{Price: price}
	if len(series) == 0 {
		return snap
	}

	closes := series.Closes()

	snap.VWAP = sessionVWAP(series)
	if len(closes) > rsiPeriod {
		snap.RSI = lastNonZero(talib.Rsi(closes, rsiPeriod))
	}
	if len(closes) >= emaFastPeriod {
		snap.EMAFast = lastNonZero(talib.Ema(closes, emaFastPeriod))
	}
	if len(closes) >= emaSlowPeriod {
		snap.EMASlow = lastNonZero(talib.Ema(closes, emaSlowPeriod))
	}

	snap.ORBHigh, snap.ORBLow = openingRange(series, orbMinutes)
	snap.Support, snap.Resistance = SwingLevels(series, price)

	return snap
}

// sessionVWAP calcula el VWAP acumulado de la sesión: Σ(precio_típico×vol) / Σvol.
// Sin volumen (índices, feeds sin profundidad) → nil.
func sessionVWAP(series Series) *float64 {
	var pv, vol float64
	for _, c := range series {
		typical := (c.High + c.Low + c.Close) / 3
		pv += typical * c.Volume
		vol += c.Volume
	}
	if vol <= 0 {
		return nil
	}
	v := pv / vol
	return &v
}

// openingRange devuelve el máximo y mínimo de los primeros minutes de la serie.
func openingRange(series Series, minutes int) (hi, lo *float64) {
	if len(series) == 0 {
		return nil, nil
	}
	cutoff := series[0].TS.Add(time.Duration(minutes) * time.Minute)
	h, l := series[0].High, series[0].Low
	for _, c := range series[1:] {
		if !c.TS.Before(cutoff) {
			break
		}
		h = math.Max(h, c.High)
		l = math.Min(l, c.Low)
	}
	return &h, &l
}

// lastNonZero devuelve el último valor útil de una salida de talib, saltando
// el warmup (ceros iniciales) y valores no finitos.
func lastNonZero(vals []float64) *float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		v := vals[i]
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return &v
		}
	}
	return nil
}
