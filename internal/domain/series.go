package domain

import "time"

// Candle es una vela intradía OHLCV.
type Candle struct {
	TS     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series es la serie de velas intradía de un símbolo, ordenada por tiempo
// ascendente. Una serie vacía es un valor válido: los indicadores derivados
// quedan en nil y la evaluación degrada sin error.
type Series []Candle

// Closes devuelve los precios de cierre en orden.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Last devuelve la última vela, ok=false si la serie está vacía.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}
