package domain

import "math"

// OptionsBias resume el sesgo del flujo de opciones del índice.
type OptionsBias string

const (
	BiasBullish OptionsBias = "BULLISH"
	BiasBearish OptionsBias = "BEARISH"
	BiasNeutral OptionsBias = "NEUTRAL"
)

// OptionRow es una fila del option chain: un strike con sus lados call (CE)
// y put (PE) del vencimiento más cercano.
type OptionRow struct {
	Strike     float64
	CEOI       float64
	CEOIChange float64
	CELTP      float64
	PEOI       float64
	PEOIChange float64
	PELTP      float64
}

// Chain es el option chain completo de un índice, ordenado por strike.
type Chain []OptionRow

// strikeStep es el paso de strikes de los índices NSE.
const strikeStep = 50.0

// ATMRegion recorta el chain a ±width strikes alrededor del at-the-money.
// El ATM se redondea al strike más cercano (paso 50).
func ATMRegion(chain Chain, spot float64, width int) Chain {
	if len(chain) == 0 || spot <= 0 {
		return nil
	}
	atm := math.Round(spot/strikeStep) * strikeStep
	lo := atm - float64(width)*strikeStep
	hi := atm + float64(width)*strikeStep

	region := make(Chain, 0, 2*width+1)
	for _, r := range chain {
		if r.Strike >= lo && r.Strike <= hi {
			region = append(region, r)
		}
	}
	return region
}

// PCR calcula el put/call ratio por open interest de la región, redondeado
// a 2 decimales. Sin OI de calls no hay ratio → nil.
func PCR(region Chain) *float64 {
	var ce, pe float64
	for _, r := range region {
		ce += r.CEOI
		pe += r.PEOI
	}
	if ce <= 0 {
		return nil
	}
	v := math.Round(pe/ce*100) / 100
	return &v
}

// Sentiment deduce el sesgo del flujo por cambio de open interest en la región
// ATM: escritura de puts con PCR > 1 → soporte construyéndose (alcista);
// escritura de calls con PCR < 1 → resistencia construyéndose (bajista).
func Sentiment(region Chain, pcr *float64) (OptionsBias, string) {
	if len(region) == 0 || pcr == nil {
		return BiasNeutral, "insufficient options data"
	}

	var ceChg, peChg float64
	for _, r := range region {
		ceChg += r.CEOIChange
		peChg += r.PEOIChange
	}

	switch {
	case peChg > math.Abs(ceChg) && *pcr > 1:
		return BiasBullish, "put writing dominates (support building)"
	case ceChg > math.Abs(peChg) && *pcr < 1:
		return BiasBearish, "call writing dominates (resistance building)"
	default:
		return BiasNeutral, "mixed open-interest flow"
	}
}
