package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/intrabot/internal/domain"
)

// quoteFetcher es lo único que Source pide a cada escalón.
type quoteFetcher interface {
	Quote(ctx context.Context, symbol string) (domain.Quote, error)
}

// Source recorre los escalones de precio en orden y devuelve el primero que
// responde. Cada cliente etiqueta su propia cotización (PRIMARY el daemon,
// FALLBACK los fetch directos), así que aguas arriba siempre se sabe de qué
// escalón salió el precio.
type Source struct {
	tiers []quoteFetcher
}

// NewSource crea la cadena: primary primero, después los fallbacks en el
// orden dado.
func NewSource(primary quoteFetcher, fallbacks ...quoteFetcher) *Source {
	tiers := make([]quoteFetcher, 0, 1+len(fallbacks))
	tiers = append(tiers, primary)
	tiers = append(tiers, fallbacks...)
	return &Source{tiers: tiers}
}

// Fetch intenta cada escalón en orden. Si todos fallan devuelve
// ErrQuoteUnavailable con los errores de cada escalón encadenados; el caller
// decide si degrada al último valor conocido.
func (s *Source) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	var errs []error
	for _, tier := range s.tiers {
		quote, err := tier.Quote(ctx, symbol)
		if err == nil {
			return quote, nil
		}
		errs = append(errs, err)
		slog.Debug("quotes: escalón de precio falló, probando el siguiente",
			"symbol", symbol,
			"err", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	errs = append(errs, domain.ErrQuoteUnavailable)
	return domain.Quote{}, fmt.Errorf("quotes.Source %s: %w", symbol, errors.Join(errs...))
}
