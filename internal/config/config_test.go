package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Ensure a missing file loads pure defaults.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)

	assert.Equal(t, cfg.Benzinga.PageSize, 50)
	assert.Equal(t, cfg.Trading.BarTimeframe, "5Min")
	assert.Equal(t, cfg.Trading.RvolThreshold, 1.5)
	assert.Equal(t, cfg.Trading.RvolWindow, 30)
	assert.Equal(t, cfg.Trading.ResistanceLookback, 20)
	assert.Equal(t, cfg.Trading.NewsBatchSize, 50)
	assert.Equal(t, cfg.Trading.DefaultTrailingPct, 10.0)
	assert.Equal(t, cfg.Trading.SessionTimezone, "US/Pacific")
	assert.Equal(t, cfg.Trading.SessionClose, "12:59")
	assert.Equal(t, cfg.Web.Port, 8080)
	assert.Equal(t, cfg.Logging.Level, "info")

	assert.Equal(t, cfg.NewsInterval(), 10*time.Second)
	assert.Equal(t, cfg.SessionCloseMinutes(), 12*60+59)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
trading:
  rvol_threshold: 2.0
  session_close: "13:30"
  news_interval: 30s
benzinga:
  api_key: from-file
`)
	t.Setenv("BENZINGA_API_KEY", "from-env")
	t.Setenv("ALPACA_API_KEY", "alpaca-key")

	cfg, err := Load(path)
	assert.NoError(t, err)

	// Ensure file values win over environment fallbacks.
	assert.Equal(t, cfg.Benzinga.APIKey, "from-file")
	assert.Equal(t, cfg.Alpaca.APIKey, "alpaca-key")
	assert.Equal(t, cfg.Trading.RvolThreshold, 2.0)
	assert.Equal(t, cfg.Trading.SessionClose, "13:30")
	assert.Equal(t, cfg.NewsInterval(), 30*time.Second)
	assert.Equal(t, cfg.SessionCloseMinutes(), 13*60+30)
}

func TestLoadRejectsBadValues(t *testing.T) {
	// Ensure an unparseable interval fails validation.
	path := writeConfig(t, "trading:\n  exit_interval: soon\n")
	_, err := Load(path)
	assert.Error(t, err)

	// Ensure a malformed session close fails validation.
	path = writeConfig(t, "trading:\n  session_close: noon\n")
	_, err = Load(path)
	assert.Error(t, err)

	// Ensure enabling telegram without credentials fails.
	path = writeConfig(t, "telegram:\n  enabled: true\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSessionLocation(t *testing.T) {
	cfg := &Config{}
	cfg.Trading.SessionTimezone = "UTC"
	assert.Equal(t, cfg.SessionLocation().String(), "UTC")

	// Ensure an unknown zone falls back to a fixed Pacific offset instead of
	// failing the close check entirely.
	cfg.Trading.SessionTimezone = "Mars/Olympus"
	loc := cfg.SessionLocation()
	assert.NotNil(t, loc)
	_, offset := time.Now().In(loc).Zone()
	assert.Equal(t, offset, -8*60*60)
}

func TestParseClock(t *testing.T) {
	hour, minute, err := parseClock("12:59")
	assert.NoError(t, err)
	assert.Equal(t, hour, 12)
	assert.Equal(t, minute, 59)

	for _, raw := range []string{"", "25:00", "12:61", "1259", "a:b"} {
		_, _, err := parseClock(raw)
		assert.Error(t, err)
	}
}
