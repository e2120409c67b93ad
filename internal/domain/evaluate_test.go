package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestEvaluateSnapshot_ORBHealthySetup(t *testing.T) {
	// precio=100, vwap=100.05 (0.05% de distancia), rsi=55, tendencia alineada
	snap := Snapshot{
		Price:   100,
		VWAP:    fp(100.05),
		RSI:     fp(55),
		EMAFast: fp(101),
		EMASlow: fp(99),
	}
	ev := EvaluateSnapshot(snap, StrategyORB)

	assert.True(t, ev.Allowed)
	assert.Empty(t, ev.BlockReason)
}

func TestEvaluateSnapshot_ORBTooFarFromVWAP(t *testing.T) {
	// vwap=105 → distancia 5% > 1%
	snap := Snapshot{Price: 100, VWAP: fp(105)}
	ev := EvaluateSnapshot(snap, StrategyORB)

	assert.False(t, ev.Allowed)
	assert.Contains(t, ev.BlockReason, "VWAP")
	require.NotEmpty(t, ev.Reasons)
	assert.Contains(t, ev.Reasons[0], "too far from VWAP")
}

func TestEvaluateSnapshot_ORBMissingVWAPIsInformational(t *testing.T) {
	snap := Snapshot{Price: 100, RSI: fp(50), EMAFast: fp(101), EMASlow: fp(100)}
	ev := EvaluateSnapshot(snap, StrategyORB)

	assert.True(t, ev.Allowed)
	assert.Contains(t, ev.Reasons, "VWAP unavailable (distance check skipped)")
}

func TestEvaluateSnapshot_ReversionRequiresVWAP(t *testing.T) {
	snap := Snapshot{Price: 100}
	ev := EvaluateSnapshot(snap, StrategyVWAPReversion)

	assert.False(t, ev.Allowed)
	assert.Equal(t, "VWAP unavailable for mean-reversion entry", ev.BlockReason)
}

func TestEvaluateSnapshot_ReversionNoEdgeWhenHuggingVWAP(t *testing.T) {
	// distancia 0.05% < 0.2% → sin edge
	snap := Snapshot{Price: 100, VWAP: fp(100.05)}
	ev := EvaluateSnapshot(snap, StrategyVWAPReversion)

	assert.False(t, ev.Allowed)
	assert.Contains(t, ev.BlockReason, "no mean-reversion edge")
}

func TestEvaluateSnapshot_ReversionWithEdge(t *testing.T) {
	// distancia 0.5%: dentro del rango operable de la reversión
	snap := Snapshot{Price: 100, VWAP: fp(100.5), RSI: fp(50)}
	ev := EvaluateSnapshot(snap, StrategyVWAPReversion)

	assert.True(t, ev.Allowed)
}

func TestEvaluateSnapshot_RSIBlocks(t *testing.T) {
	over := EvaluateSnapshot(Snapshot{Price: 100, RSI: fp(85)}, StrategyORB)
	assert.False(t, over.Allowed)
	assert.Equal(t, "RSI overbought", over.BlockReason)

	under := EvaluateSnapshot(Snapshot{Price: 100, RSI: fp(15)}, StrategyORB)
	assert.False(t, under.Allowed)
	assert.Equal(t, "RSI oversold", under.BlockReason)

	// 80 exacto no bloquea (la regla es estrictamente mayor)
	edge := EvaluateSnapshot(Snapshot{Price: 100, RSI: fp(80)}, StrategyORB)
	assert.True(t, edge.Allowed)
}

func TestEvaluateSnapshot_TrendBlock(t *testing.T) {
	snap := Snapshot{Price: 100, RSI: fp(50), EMAFast: fp(98), EMASlow: fp(100)}
	ev := EvaluateSnapshot(snap, StrategyORB)

	assert.False(t, ev.Allowed)
	assert.Equal(t, "short-term trend below medium-term trend", ev.BlockReason)
}

func TestEvaluateSnapshot_AllIndicatorsMissingAllowed(t *testing.T) {
	// Ningún indicador es obligatorio por sí solo: solo razones informativas.
	ev := EvaluateSnapshot(Snapshot{Price: 250.5}, StrategyORB)

	assert.True(t, ev.Allowed)
	assert.Empty(t, ev.BlockReason)
	assert.NotEmpty(t, ev.Reasons, "missing indicators should be explained")
}

func TestEvaluate_InvalidPrice(t *testing.T) {
	for _, price := range []float64{0, -10} {
		ev := Evaluate(nil, price, StrategyORB)
		assert.False(t, ev.Allowed)
		assert.Equal(t, []string{"invalid price"}, ev.Reasons)
		assert.Equal(t, "invalid price", ev.BlockReason)
	}
}

func TestEvaluate_EmptySeriesNotAnError(t *testing.T) {
	ev := Evaluate(Series{}, 123.45, StrategyORB)

	assert.True(t, ev.Allowed)
	assert.Nil(t, ev.Snapshot.VWAP)
	assert.Nil(t, ev.Snapshot.RSI)
}

func TestEvaluate_BlockingReasonsComeFirst(t *testing.T) {
	// RSI bloquea y VWAP ausente informa: la bloqueante va primero.
	snap := Snapshot{Price: 100, RSI: fp(90)}
	ev := EvaluateSnapshot(snap, StrategyORB)

	require.False(t, ev.Allowed)
	assert.Equal(t, "RSI overbought", ev.Reasons[0])
	assert.Equal(t, ev.BlockReason, ev.Reasons[0])
}
