package domain

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePnL_BuySide(t *testing.T) {
	// entry=100, exit=105, qty=10 → +50.0
	assert.Equal(t, 50.0, ComputePnL(SideBuy, 100, 105, 10))
	assert.Equal(t, -50.0, ComputePnL(SideBuy, 100, 95, 10))
}

func TestComputePnL_SellSide(t *testing.T) {
	assert.Equal(t, 50.0, ComputePnL(SideSell, 100, 95, 10))
	assert.Equal(t, -50.0, ComputePnL(SideSell, 100, 105, 10))
}

func TestComputePnL_RoundsToTwoDecimals(t *testing.T) {
	// (100.333 - 100.0) × 3 = 0.999 → 1.0
	assert.Equal(t, 1.0, ComputePnL(SideBuy, 100.0, 100.333, 3))
}

func TestNewTradeID_Format(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	id := NewTradeID(now)

	require.True(t, len(id) > 1)
	assert.Equal(t, "T", id[:1])
	_, err := strconv.ParseInt(id[1:], 10, 64)
	assert.NoError(t, err)
}

func TestNewTradeID_UniqueWithinSameMillisecond(t *testing.T) {
	now := time.Now()
	a := NewTradeID(now)
	b := NewTradeID(now)
	c := NewTradeID(now)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Less(t, a, c, "ids must keep increasing")
}

func TestNewTradeID_ConcurrentCallsNeverCollide(t *testing.T) {
	const n = 200
	ids := make([]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = NewTradeID(time.Now())
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestTradingDayAndClockTime(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 5, 7, 0, MarketLocation())
	assert.Equal(t, "2026-03-02", TradingDay(at))
	assert.Equal(t, "09:05:07", ClockTime(at))

	// Un instante en otra zona se normaliza al reloj de la sesión.
	utc := time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, "10:30:00", ClockTime(utc))
}

func TestTradeRecord_IsOpen(t *testing.T) {
	rec := TradeRecord{Status: TradeStatusOpen}
	assert.True(t, rec.IsOpen())
	rec.Status = TradeStatusClosed
	assert.False(t, rec.IsOpen())
}
