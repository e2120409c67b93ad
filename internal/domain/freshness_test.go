package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFreshness_StepBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		age  time.Duration
		want Freshness
	}{
		{"zero age", 0, FreshnessLive},
		{"exactly 3s", 3 * time.Second, FreshnessLive},
		{"just over 3s", 3*time.Second + 10*time.Millisecond, FreshnessNearLive},
		{"exactly 15s", 15 * time.Second, FreshnessNearLive},
		{"just over 15s", 15*time.Second + 10*time.Millisecond, FreshnessDelayed},
		{"minutes old", 4 * time.Minute, FreshnessDelayed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			origin := now.Add(-tc.age)
			got, age := ClassifyFreshness(&origin, now)
			assert.Equal(t, tc.want, got)
			require.NotNil(t, age)
			assert.Equal(t, int(tc.age.Seconds()), *age)
		})
	}
}

func TestClassifyFreshness_NilOrigin(t *testing.T) {
	got, age := ClassifyFreshness(nil, time.Now())
	assert.Equal(t, FreshnessDelayed, got)
	assert.Nil(t, age)
}

func TestFreshness_Tags(t *testing.T) {
	assert.Equal(t, "🟢", FreshnessLive.Tag())
	assert.Equal(t, "🟡", FreshnessNearLive.Tag())
	assert.Equal(t, "🔴", FreshnessDelayed.Tag())
}
