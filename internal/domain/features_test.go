package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupFeatures_VectorOrderIsLocked(t *testing.T) {
	f := SetupFeatures{
		PriceVsVWAPPct:   fp(0.25),
		VWAPSlope:        fp(0.01),
		RSI:              fp(55),
		EMATrend:         fp(1),
		ORBRangePct:      fp(0.8),
		VolumeRatio:      fp(1.4),
		IndexPCR:         fp(1.1),
		OptionsBiasScore: fp(1),
		TimeOfDayMinutes: fp(95),
	}

	vec := f.Vector()
	require.Len(t, vec, len(FeatureNames))
	assert.Equal(t, []float64{0.25, 0.01, 55, 1, 0.8, 1.4, 1.1, 1, 95}, vec)
}

func TestSetupFeatures_MissingFieldsDegradeToZero(t *testing.T) {
	vec := SetupFeatures{RSI: fp(62)}.Vector()

	require.Len(t, vec, 9)
	assert.Equal(t, 62.0, vec[2])
	for i, v := range vec {
		if i == 2 {
			continue
		}
		assert.Equal(t, 0.0, v, "feature %s", FeatureNames[i])
	}
}

func TestSetupFeatures_NonFiniteValuesDegradeToZero(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	vec := SetupFeatures{RSI: &nan, VWAPSlope: &inf}.Vector()

	assert.Equal(t, 0.0, vec[1])
	assert.Equal(t, 0.0, vec[2])
}

func TestOptionsBias_Score(t *testing.T) {
	assert.Equal(t, 1.0, BiasBullish.Score())
	assert.Equal(t, -1.0, BiasBearish.Score())
	assert.Equal(t, 0.0, BiasNeutral.Score())
}

func TestBuildSetupFeatures(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 15, 0, 0, MarketLocation())
	series := make(Series, 0, 10)
	for i := 0; i < 10; i++ {
		price := 100 + float64(i)
		series = append(series, Candle{
			TS:     base.Add(time.Duration(i) * 3 * time.Minute),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		})
	}
	// Última vela con el doble de volumen que el resto.
	series[9].Volume = 2000

	snap := Snapshot{
		Price:   109,
		VWAP:    fp(104.5),
		RSI:     fp(68),
		EMAFast: fp(106),
		EMASlow: fp(103),
		ORBHigh: fp(105),
		ORBLow:  fp(99),
	}

	at := base.Add(95 * time.Minute)
	f := BuildSetupFeatures(snap, series, fp(1.25), BiasBullish, at)

	require.NotNil(t, f.PriceVsVWAPPct)
	assert.InDelta(t, (109-104.5)/104.5*100, *f.PriceVsVWAPPct, 0.001)

	require.NotNil(t, f.VWAPSlope)
	assert.Positive(t, *f.VWAPSlope, "serie al alza, VWAP subiendo")

	assert.Equal(t, 68.0, *f.RSI)
	assert.Equal(t, 1.0, *f.EMATrend)

	require.NotNil(t, f.ORBRangePct)
	assert.InDelta(t, 6.0/109*100, *f.ORBRangePct, 0.001)

	require.NotNil(t, f.VolumeRatio)
	// 2000 / ((9×1000+2000)/10) = 2000/1100
	assert.InDelta(t, 2000.0/1100.0, *f.VolumeRatio, 0.001)

	assert.Equal(t, 1.25, *f.IndexPCR)
	assert.Equal(t, 1.0, *f.OptionsBiasScore)

	require.NotNil(t, f.TimeOfDayMinutes)
	assert.InDelta(t, 95.0, *f.TimeOfDayMinutes, 0.001)
}

func TestBuildSetupFeatures_DegradesIndependently(t *testing.T) {
	at := time.Date(2026, 3, 2, 11, 0, 0, 0, MarketLocation())
	f := BuildSetupFeatures(Snapshot{Price: 100}, nil, nil, BiasNeutral, at)

	assert.Nil(t, f.PriceVsVWAPPct)
	assert.Nil(t, f.VWAPSlope)
	assert.Nil(t, f.RSI)
	assert.Nil(t, f.EMATrend)
	assert.Nil(t, f.ORBRangePct)
	assert.Nil(t, f.VolumeRatio)
	assert.Nil(t, f.IndexPCR)
	assert.Equal(t, 0.0, *f.OptionsBiasScore)
	require.NotNil(t, f.TimeOfDayMinutes)
	assert.InDelta(t, 105.0, *f.TimeOfDayMinutes, 0.001)

	// El vector sigue siendo utilizable: todo ceros salvo time_of_day.
	vec := f.Vector()
	assert.Equal(t, 105.0, vec[8])
}

func TestBuildSetupFeatures_EMATrendFlat(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, MarketLocation())
	snap := Snapshot{Price: 100, EMAFast: fp(101), EMASlow: fp(101)}

	f := BuildSetupFeatures(snap, nil, nil, BiasNeutral, at)
	require.NotNil(t, f.EMATrend)
	assert.Equal(t, 0.0, *f.EMATrend)
}
