package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
ingest:
  enabled: true
  csv_path: /srv/readings.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/readings.csv", cfg.Ingest.CSVPath)
	assert.Equal(t, 300, cfg.Ingest.IntervalSeconds)
	assert.Equal(t, 5*time.Minute, cfg.Ingest.Interval)
	assert.Equal(t, 30, cfg.Ingest.IntervalMinutes)
	assert.Equal(t, 15, cfg.Tariff.PeakStartHour)
	assert.Equal(t, 19, cfg.Tariff.PeakEndHour)
	assert.InDelta(t, 0.45, cfg.Emissions.GridKgPerKWh, 1e-9)
	assert.Equal(t, 10, cfg.Coach.MaxTurns)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
emissions:
  grid_kg_per_kwh: 0.21
tariff:
  peak_usd_per_kwh: 0.40
  off_peak_usd_per_kwh: 0.09
coach:
  max_turns: 4
  timeout_seconds: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.21, cfg.Emissions.GridKgPerKWh, 1e-9)
	assert.InDelta(t, 0.40, cfg.Tariff.PeakUSDPerKWh, 1e-9)
	assert.InDelta(t, 0.09, cfg.Tariff.OffPeakUSDPerKWh, 1e-9)
	assert.Equal(t, 4, cfg.Coach.MaxTurns)
	assert.Equal(t, 5*time.Second, cfg.Coach.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
