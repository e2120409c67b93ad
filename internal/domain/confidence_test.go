package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreConfidence_FullyAlignedLong(t *testing.T) {
	// 15 (lado VWAP) + 10 (a 0.2% del VWAP) + 20 (tendencia) + 15 (RSI 55)
	// + 15 (PCR 1.2) + 10 (bias bullish) = 85 → HIGH
	snap := Snapshot{
		Price:   100.2,
		VWAP:    fp(100),
		RSI:     fp(55),
		EMAFast: fp(101),
		EMASlow: fp(99),
	}
	c := ScoreConfidence(snap, DirectionLong, fp(1.2), BiasBullish, RiskContext{})

	assert.Equal(t, 85, c.Score)
	assert.Equal(t, ConfidenceHigh, c.Label)
	assert.Contains(t, c.Reasons, "price above VWAP (bullish bias)")
	assert.Contains(t, c.Reasons, "price close to VWAP (low slippage)")
}

func TestScoreConfidence_FullyAlignedShort(t *testing.T) {
	// Mismo máximo para cortos: 15+10+20+15+15+10 = 85
	snap := Snapshot{
		Price:   99.8,
		VWAP:    fp(100),
		RSI:     fp(55),
		EMAFast: fp(99),
		EMASlow: fp(101),
	}
	c := ScoreConfidence(snap, DirectionShort, fp(0.8), BiasBearish, RiskContext{})

	assert.Equal(t, 85, c.Score)
	assert.Contains(t, c.Reasons, "price below VWAP (bearish bias)")
	assert.Contains(t, c.Reasons, "index PCR supports short bias")
}

func TestScoreConfidence_AllInputsMissing(t *testing.T) {
	// Defaults pequeños y positivos: 5+3+8+8+8+3 = 35, nunca cero.
	c := ScoreConfidence(Snapshot{Price: 100}, DirectionLong, nil, BiasNeutral, RiskContext{})

	assert.Equal(t, 35, c.Score)
	assert.Equal(t, ConfidenceNoTrade, c.Label)
	assert.Contains(t, c.Reasons, "VWAP unavailable (confidence reduced)")
	assert.Contains(t, c.Reasons, "trend indicators unavailable")
	assert.Contains(t, c.Reasons, "RSI unavailable")
	assert.Contains(t, c.Reasons, "index PCR unavailable")
}

func TestScoreConfidence_RiskPenalties(t *testing.T) {
	snap := Snapshot{
		Price:   100.2,
		VWAP:    fp(100),
		RSI:     fp(55),
		EMAFast: fp(101),
		EMASlow: fp(99),
	}
	risk := RiskContext{TradesToday: 5, DayPnL: -120}
	c := ScoreConfidence(snap, DirectionLong, fp(1.2), BiasBullish, risk)

	// 85 - 5 (fatiga) - 5 (drawdown) = 75: justo en la frontera HIGH.
	assert.Equal(t, 75, c.Score)
	assert.Equal(t, ConfidenceHigh, c.Label)
	assert.Contains(t, c.Reasons, "multiple trades today (fatigue risk)")
	assert.Contains(t, c.Reasons, "currently in drawdown")
}

func TestScoreConfidence_RSIZones(t *testing.T) {
	base := Snapshot{Price: 100, VWAP: fp(100.05)}

	healthy := base
	healthy.RSI = fp(45) // frontera inferior de la zona sana
	c := ScoreConfidence(healthy, DirectionLong, nil, BiasNeutral, RiskContext{})
	assert.Contains(t, c.Reasons, "RSI in healthy momentum zone")

	stretched := base
	stretched.RSI = fp(72)
	c = ScoreConfidence(stretched, DirectionLong, nil, BiasNeutral, RiskContext{})
	assert.Contains(t, c.Reasons, "RSI at extreme (late entry risk)")

	between := base
	between.RSI = fp(68) // entre 65 y 70: ni sano ni extremo
	c = ScoreConfidence(between, DirectionLong, nil, BiasNeutral, RiskContext{})
	assert.Contains(t, c.Reasons, "RSI acceptable")
}

func TestScoreConfidence_BoundedOutput(t *testing.T) {
	snaps := []Snapshot{
		{Price: 100},
		{Price: 100, VWAP: fp(130), RSI: fp(5), EMAFast: fp(90), EMASlow: fp(110)},
		{Price: 100.2, VWAP: fp(100), RSI: fp(55), EMAFast: fp(101), EMASlow: fp(99)},
	}
	risks := []RiskContext{{}, {TradesToday: 9, DayPnL: -500}}

	for _, snap := range snaps {
		for _, risk := range risks {
			for _, dir := range []Direction{DirectionLong, DirectionShort} {
				c := ScoreConfidence(snap, dir, fp(0.7), BiasBearish, risk)
				assert.GreaterOrEqual(t, c.Score, 0)
				assert.LessOrEqual(t, c.Score, 100)
			}
		}
	}
}

func TestLabelForScore_ExactBoundaries(t *testing.T) {
	cases := map[int]ConfidenceLabel{
		75: ConfidenceHigh,
		74: ConfidenceModerate,
		60: ConfidenceModerate,
		59: ConfidenceLow,
		45: ConfidenceLow,
		44: ConfidenceNoTrade,
		0:  ConfidenceNoTrade,
	}
	for score, want := range cases {
		assert.Equal(t, want, LabelForScore(score), "score %d", score)
	}
}
