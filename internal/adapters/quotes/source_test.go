package quotes_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/intrabot/internal/adapters/quotes"
	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	calls int
	quote domain.Quote
	err   error
}

func (f *stubFetcher) Quote(_ context.Context, symbol string) (domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	q := f.quote
	q.Symbol = symbol
	return q, nil
}

func quoteFrom(price float64, source domain.SourceTag, venue string) domain.Quote {
	return domain.Quote{Price: price, Source: source, Venue: venue, Origin: time.Now()}
}

func TestSource_PrimaryWins(t *testing.T) {
	primary := &stubFetcher{quote: quoteFrom(2500, domain.SourcePrimary, "service")}
	fallback := &stubFetcher{quote: quoteFrom(2501, domain.SourceFallback, "NSE")}

	src := quotes.NewSource(primary, fallback)
	quote, err := src.Fetch(context.Background(), "RELIANCE")

	require.NoError(t, err)
	assert.Equal(t, domain.SourcePrimary, quote.Source)
	assert.Equal(t, "service", quote.Venue)
	assert.Equal(t, 0, fallback.calls, "con la primaria sana no se toca el fallback")
}

func TestSource_FallsThroughInOrder(t *testing.T) {
	primary := &stubFetcher{err: errors.New("daemon down")}
	nseTier := &stubFetcher{err: errors.New("nse down")}
	yahooTier := &stubFetcher{quote: quoteFrom(2502, domain.SourceFallback, "Yahoo")}

	src := quotes.NewSource(primary, nseTier, yahooTier)
	quote, err := src.Fetch(context.Background(), "RELIANCE")

	require.NoError(t, err)
	assert.Equal(t, "Yahoo", quote.Venue)
	assert.Equal(t, domain.SourceFallback, quote.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, nseTier.calls)
}

func TestSource_AllTiersFail(t *testing.T) {
	primary := &stubFetcher{err: errors.New("daemon down")}
	fallback := &stubFetcher{err: errors.New("nse down")}

	src := quotes.NewSource(primary, fallback)
	_, err := src.Fetch(context.Background(), "RELIANCE")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
	assert.Contains(t, err.Error(), "daemon down")
	assert.Contains(t, err.Error(), "nse down")
}

func TestSource_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &stubFetcher{err: context.Canceled}
	fallback := &stubFetcher{quote: quoteFrom(2500, domain.SourceFallback, "NSE")}
	cancel()

	src := quotes.NewSource(primary, fallback)
	_, err := src.Fetch(ctx, "RELIANCE")

	require.Error(t, err)
	assert.Equal(t, 0, fallback.calls, "contexto cancelado no sigue bajando escalones")
}
