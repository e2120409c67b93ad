package domain

import "math"

// swingLookback es el número de velas a cada lado para confirmar un pivote.
const swingLookback = 3

// Niveles proxy cuando no hay serie suficiente para detectar pivotes.
const (
	proxySupportPct    = 0.994 // -0.6%
	proxyResistancePct = 1.006 // +0.6%
)

// SwingLevels detecta soporte y resistencia desde los pivotes de la serie:
// soporte = el swing-low más alto por debajo del precio, resistencia = el
// swing-high más bajo por encima. Donde no hay pivote útil se cae al nivel
// proxy de ese lado, así el combinador siempre tiene una resistencia que vigilar.
func SwingLevels(series Series, price float64) (support, resistance *float64) {
	if price <= 0 {
		return nil, nil
	}
	if len(series) < 2*swingLookback+1 {
		return ProxyLevels(price)
	}

	for i := swingLookback; i < len(series)-swingLookback; i++ {
		if isSwingLow(series, i) {
			if l := series[i].Low; l < price && (support == nil || l > *support) {
				v := l
				support = &v
			}
		}
		if isSwingHigh(series, i) {
			if h := series[i].High; h > price && (resistance == nil || h < *resistance) {
				v := h
				resistance = &v
			}
		}
	}

	ps, pr := ProxyLevels(price)
	if support == nil {
		support = ps
	}
	if resistance == nil {
		resistance = pr
	}
	return support, resistance
}

// ProxyLevels devuelve niveles aproximados derivados del precio actual:
// soporte −0.6%, resistencia +0.6%, redondeados a 2 decimales.
func ProxyLevels(price float64) (support, resistance *float64) {
	if price <= 0 {
		return nil, nil
	}
	s := round2(price * proxySupportPct)
	r := round2(price * proxyResistancePct)
	return &s, &r
}

func isSwingLow(s Series, i int) bool {
	for j := i - swingLookback; j <= i+swingLookback; j++ {
		if s[j].Low < s[i].Low {
			return false
		}
	}
	return true
}

func isSwingHigh(s Series, i int) bool {
	for j := i - swingLookback; j <= i+swingLookback; j++ {
		if s[j].High > s[i].High {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
