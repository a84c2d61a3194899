package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"woflstrology/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Location struct {
		DefaultPlace    string            `yaml:"default_place"`
		Default         model.Coordinates `yaml:"default"`
		DefaultName     string            `yaml:"default_name"`
		DefaultTimeZone string            `yaml:"default_time_zone"`
		NominatimURL    string            `yaml:"nominatim_url" validate:"omitempty,url"`
		UserAgent       string            `yaml:"user_agent"`
		Timeout         time.Duration     `yaml:"timeout"`
	} `yaml:"location"`
	Ephemeris struct {
		VSOP87Dir  string   `yaml:"vsop87_dir"`
		BodiesFile string   `yaml:"bodies_file"`
		Bodies     []string `yaml:"bodies"`
	} `yaml:"ephemeris"`
	Chart struct {
		HouseSystem string             `yaml:"house_system" validate:"omitempty,oneof=equal whole-sign whole_sign porphyry"`
		Orbs        map[string]float64 `yaml:"orbs"`
	} `yaml:"chart"`
	Content struct {
		DatabasePath string `yaml:"database_path"`
	} `yaml:"content"`
	Profiles struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"profiles"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		WeeklyCron string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("WOFL_DEFAULT_PLACE"); v != "" {
		cfg.Location.DefaultPlace = v
	}
	if v := os.Getenv("WOFL_HOUSE_SYSTEM"); v != "" {
		cfg.Chart.HouseSystem = strings.ToLower(v)
	}
	if v := os.Getenv("WOFL_CONTENT_PATH"); v != "" {
		cfg.Content.DatabasePath = v
	}
	if v := os.Getenv("WOFL_EPHE_PATH"); v != "" {
		cfg.Ephemeris.VSOP87Dir = v
	}
	if v := os.Getenv("WOFL_BODIES_PATH"); v != "" {
		cfg.Ephemeris.BodiesFile = v
	}
	if v := os.Getenv("WOFL_BODIES"); v != "" {
		cfg.Ephemeris.Bodies = splitList(v)
	}
	if v := os.Getenv("NOMINATIM_URL"); v != "" {
		cfg.Location.NominatimURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("WOFL_DEFAULT_LAT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Default.Lat = f
		}
	}
	if v := os.Getenv("WOFL_DEFAULT_LON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Default.Lon = f
		}
	}

	// Defaults
	if cfg.Location.Default == (model.Coordinates{}) {
		cfg.Location.Default = model.Coordinates{Lat: 51.4779, Lon: -0.0015}
		if cfg.Location.DefaultName == "" {
			cfg.Location.DefaultName = "Greenwich, London"
		}
		if cfg.Location.DefaultTimeZone == "" {
			cfg.Location.DefaultTimeZone = "Europe/London"
		}
	}
	if cfg.Location.DefaultName == "" {
		cfg.Location.DefaultName = "Default location"
	}
	if cfg.Location.DefaultTimeZone == "" {
		cfg.Location.DefaultTimeZone = "UTC"
	}
	if cfg.Location.NominatimURL == "" {
		cfg.Location.NominatimURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Location.UserAgent == "" {
		cfg.Location.UserAgent = "woflstrology/1.0"
	}
	if cfg.Location.Timeout == 0 {
		cfg.Location.Timeout = 10 * time.Second
	}
	if len(cfg.Ephemeris.Bodies) == 0 {
		for _, b := range model.Planets {
			cfg.Ephemeris.Bodies = append(cfg.Ephemeris.Bodies, string(b))
		}
	}
	if cfg.Chart.HouseSystem == "" {
		cfg.Chart.HouseSystem = "equal"
	}
	if cfg.Profiles.StateFile == "" {
		cfg.Profiles.StateFile = "data/profiles.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/woflstrology.db"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 7 * * *"
	}
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 0 8 * * 1"
	}

	return cfg, nil
}

// Validate checks field ranges and formats. Telegram credentials are only
// checked by ValidateDaemon since one-shot readings never send anything.
func (c *Config) Validate() error {
	if err := model.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for name, orb := range c.Chart.Orbs {
		if orb <= 0 || orb > 15 {
			return fmt.Errorf("config: chart.orbs.%s must be in (0,15]", name)
		}
	}
	return nil
}

// ValidateDaemon additionally requires everything the daemon needs.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// DefaultLocation is the configured fallback place.
func (c *Config) DefaultLocation() model.Location {
	return model.Location{
		Query:       c.Location.DefaultPlace,
		Name:        c.Location.DefaultName,
		Coordinates: c.Location.Default,
		TimeZone:    c.Location.DefaultTimeZone,
		Source:      "default",
	}
}

// BodyList converts the configured body names.
func (c *Config) BodyList() []model.Body {
	out := make([]model.Body, 0, len(c.Ephemeris.Bodies))
	for _, b := range c.Ephemeris.Bodies {
		out = append(out, model.Body(b))
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
