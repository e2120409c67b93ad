package domain

import (
	"errors"
	"time"
)

// ErrQuoteUnavailable indica que todas las fuentes de precio fallaron.
// El consumidor debe degradar al último valor conocido, nunca bloquear.
var ErrQuoteUnavailable = errors.New("quote unavailable: all sources failed")

// SourceTag identifica qué escalón de la cadena de fuentes produjo el precio.
type SourceTag string

const (
	SourcePrimary  SourceTag = "PRIMARY"  // daemon de precios compartido
	SourceFallback SourceTag = "FALLBACK" // fetch directo (NSE o Yahoo)
	SourceError    SourceTag = "ERROR"    // ninguna fuente respondió
)

// Quote es una cotización puntual de un símbolo.
type Quote struct {
	Symbol string
	Price  float64
	Source SourceTag
	Venue  string    // nombre de la fuente concreta: "service" | "NSE" | "Yahoo"
	Origin time.Time // cuándo la fuente produjo el valor, no cuándo lo recibimos
}
