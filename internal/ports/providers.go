package ports

import (
	"context"

	"github.com/alejandrodnm/intrabot/internal/domain"
)

// QuoteProvider obtiene la última cotización de un símbolo.
type QuoteProvider interface {
	// Fetch devuelve la cotización más reciente disponible. Las cadenas de
	// fuentes devuelven domain.ErrQuoteUnavailable cuando todas fallan;
	// nunca un pánico ni un error sin envolver cruza este límite.
	Fetch(ctx context.Context, symbol string) (domain.Quote, error)
}

// SeriesProvider obtiene la serie de velas intradía de la sesión.
type SeriesProvider interface {
	// Intraday devuelve las velas de la sesión actual en orden ascendente.
	// Una serie vacía sin error es válida: el mercado aún no ha generado datos.
	Intraday(ctx context.Context, symbol string) (domain.Series, error)
}

// ChainProvider obtiene el option chain del vencimiento más cercano de un índice.
type ChainProvider interface {
	// Chain devuelve las filas del chain y el spot del subyacente.
	Chain(ctx context.Context, index string) (domain.Chain, float64, error)
}
