package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woflstrology/internal/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "equal", cfg.Chart.HouseSystem)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Location.NominatimURL)
	assert.Equal(t, 10*time.Second, cfg.Location.Timeout)
	assert.Equal(t, "Europe/London", cfg.Location.DefaultTimeZone)
	assert.Equal(t, "0 0 7 * * *", cfg.Schedule.DailyCron)
	assert.Len(t, cfg.BodyList(), len(model.Planets))
	require.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateDaemon())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
location:
  default_place: "Reykjavik"
  default: {lat: 64.1466, lon: -21.9426}
  default_time_zone: "Atlantic/Reykjavik"
  timeout: 3s
ephemeris:
  bodies: [Sun, Moon, Chiron]
chart:
  house_system: porphyry
  orbs:
    conjunction: 10
telegram:
  bot_token: "file-token"
  chat_id: "42"
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("WOFL_BODIES", "Sun, Moon ,Ceres")
	t.Setenv("WOFL_HOUSE_SYSTEM", "WHOLE-SIGN")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "whole-sign", cfg.Chart.HouseSystem)
	assert.Equal(t, []model.Body{model.Sun, model.Moon, "Ceres"}, cfg.BodyList())
	assert.Equal(t, 3*time.Second, cfg.Location.Timeout)
	assert.Equal(t, 10.0, cfg.Chart.Orbs["conjunction"])

	loc := cfg.DefaultLocation()
	assert.Equal(t, "Reykjavik", loc.Query)
	assert.Equal(t, "Default location", loc.Name)
	assert.Equal(t, "default", loc.Source)
	assert.InDelta(t, 64.1466, loc.Coordinates.Lat, 1e-9)
	require.NoError(t, cfg.ValidateDaemon())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad latitude", func(c *Config) { c.Location.Default.Lat = 120 }, "lat must be at most 90"},
		{"bad house system", func(c *Config) { c.Chart.HouseSystem = "koch" }, "chart.housesystem must be one of"},
		{"bad url", func(c *Config) { c.Location.NominatimURL = "not a url" }, "nominatimurl must be a valid URL"},
		{"bad orb", func(c *Config) { c.Chart.Orbs = map[string]float64{"trine": 40} }, "chart.orbs.trine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "location: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	path := writeFile(t, ".env", "WOFL_TEST_ENV_VALUE=from-file\n")
	t.Setenv("WOFL_TEST_ENV_VALUE", "")
	os.Unsetenv("WOFL_TEST_ENV_VALUE")
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("WOFL_TEST_ENV_VALUE"))
}
