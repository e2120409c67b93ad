package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 1500, cfg.Feed.PollIntervalMs)
	assert.Equal(t, 3, cfg.Feed.ScanPriceTTLSecs)
	assert.Equal(t, 30, cfg.Feed.SeriesTTLSecs)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Feed.ServiceBase)
	assert.Equal(t, 5, cfg.Scanner.Workers)
	assert.Equal(t, "ORB", cfg.Scanner.Strategy)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "FREE", cfg.Tier.Name)
}

func TestLoad_YAMLValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
feed:
  poll_interval_ms: 500
  service_base: http://10.0.0.2:9000
scanner:
  workers: 8
  direction: SHORT
storage:
  backend: csv
  csv_dir: /tmp/trades
`))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "http://10.0.0.2:9000", cfg.Feed.ServiceBase)
	assert.Equal(t, 8, cfg.Scanner.Workers)
	assert.Equal(t, "SHORT", cfg.Scanner.Direction)
	assert.Equal(t, "csv", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/trades", cfg.Storage.CSVDir)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("INTRABOT_TIER", "pro")

	cfg, err := Load(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "pro", cfg.Tier.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault_NoFileNeeded(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 800*time.Millisecond, cfg.ServiceTimeout())
	assert.Equal(t, 20*time.Second, cfg.ScanInterval())
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPro, ParseTier("pro"))
	assert.Equal(t, TierElite, ParseTier(" ELITE "))
	assert.Equal(t, TierFree, ParseTier(""))
	assert.Equal(t, TierFree, ParseTier("platinum"))
}

func TestTierCaps_Table(t *testing.T) {
	free := TierFree.Caps()
	require.NotNil(t, free.ScannerLimit)
	assert.Equal(t, 1, *free.ScannerLimit)
	assert.False(t, free.MLEnabled)
	assert.Equal(t, 20*time.Second, TierFree.Refresh())

	pro := TierPro.Caps()
	require.NotNil(t, pro.ScannerLimit)
	assert.Equal(t, 8, *pro.ScannerLimit)
	assert.True(t, pro.MLEnabled)
	assert.True(t, pro.LiveOptions)

	elite := TierElite.Caps()
	assert.Nil(t, elite.ScannerLimit, "elite has no scanner cap")
	assert.Nil(t, elite.HistoryDays, "elite keeps full history")
	assert.Equal(t, 5*time.Second, TierElite.Refresh())
}

func TestTier_CapSymbols(t *testing.T) {
	symbols := []string{"RELIANCE", "TCS", "INFY", "SBIN", "ITC"}

	assert.Equal(t, []string{"RELIANCE"}, TierFree.CapSymbols(symbols))
	assert.Equal(t, []string{"RELIANCE", "TCS", "INFY"}, TierBasic.CapSymbols(symbols))
	assert.Equal(t, symbols, TierElite.CapSymbols(symbols))
	// Por debajo del límite la lista vuelve intacta.
	assert.Equal(t, []string{"TCS"}, TierPro.CapSymbols([]string{"TCS"}))
}

func TestUniverse_KnownAndFallback(t *testing.T) {
	nifty := Universe("NIFTY 50")
	assert.Contains(t, nifty, "RELIANCE")
	assert.Contains(t, nifty, "TCS")

	assert.Equal(t, nifty, Universe("no-such-index"))

	// Devuelve copia: mutar el resultado no toca el universo base.
	nifty[0] = "HACKED"
	assert.Equal(t, "RELIANCE", Universe("NIFTY 50")[0])
}

func TestDailyWatchlist_DeterministicForSameDay(t *testing.T) {
	universe := Universe("NIFTY 50")

	a := DailyWatchlist("2026-03-02", universe, 5)
	b := DailyWatchlist("2026-03-02", universe, 5)

	require.Len(t, a, 5)
	assert.Equal(t, a, b, "same date + universe must yield the same watchlist")
}

func TestDailyWatchlist_ChangesAcrossDays(t *testing.T) {
	universe := Universe("NIFTY 50")

	a := DailyWatchlist("2026-03-02", universe, 5)
	b := DailyWatchlist("2026-03-03", universe, 5)

	assert.NotEqual(t, a, b)
}

func TestDailyWatchlist_NoDuplicates(t *testing.T) {
	picks := DailyWatchlist("2026-03-02", Universe("NIFTY 50"), 10)

	seen := make(map[string]bool)
	for _, s := range picks {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}
}

func TestDailyWatchlist_EmptyInputs(t *testing.T) {
	assert.Nil(t, DailyWatchlist("2026-03-02", nil, 5))
	assert.Nil(t, DailyWatchlist("2026-03-02", Universe("NIFTY 50"), 0))
}
