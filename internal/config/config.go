package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	AirportIATA string
	CacheDir    string

	SchedulesAPIKey     string
	SchedulesAPIBaseURL string
	SchedulesAPITimeout time.Duration

	RequestTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Dashboard struct {
		AirportIATA string `yaml:"airport_iata"`
		CacheDir    string `yaml:"cache_dir"`
	} `yaml:"dashboard"`

	SchedulesAPI struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"schedules_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), with
// env overrides. A missing config file is not an error; defaults apply.
//
// The API key comes from AIRLABS_API_KEY only and may be absent: the
// schedules call then fails at request time and the provider degrades to
// the latest cache file, so a missing key must not abort startup.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.AirportIATA = strings.TrimSpace(os.Getenv("AIRPORT_IATA"))
	if cfg.AirportIATA == "" {
		cfg.AirportIATA = strings.TrimSpace(fc.Dashboard.AirportIATA)
	}
	if cfg.AirportIATA == "" {
		cfg.AirportIATA = "LAX"
	}
	cfg.AirportIATA = strings.ToUpper(cfg.AirportIATA)

	cfg.CacheDir = strings.TrimSpace(os.Getenv("CACHE_DIR"))
	if cfg.CacheDir == "" {
		cfg.CacheDir = strings.TrimSpace(fc.Dashboard.CacheDir)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cwd, "data")
	}

	cfg.SchedulesAPIKey = os.Getenv("AIRLABS_API_KEY")

	cfg.SchedulesAPIBaseURL = fc.SchedulesAPI.BaseURL
	if cfg.SchedulesAPIBaseURL == "" {
		cfg.SchedulesAPIBaseURL = "https://airlabs.co/api/v9/"
	}
	cfg.SchedulesAPITimeout = parseDuration(fc.SchedulesAPI.Timeout, 10*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal on empty
// string, parse error, or non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// The airport code must look like an IATA code.
func validate(cfg *Config) error {
	if n := len(cfg.AirportIATA); n < 3 || n > 4 {
		return fmt.Errorf("airport_iata must be a 3-4 letter IATA code, got %q", cfg.AirportIATA)
	}
	for _, c := range cfg.AirportIATA {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("airport_iata must be letters only, got %q", cfg.AirportIATA)
		}
	}
	if cfg.SchedulesAPITimeout <= 0 {
		return fmt.Errorf("schedules_api.timeout must be positive")
	}
	return nil
}
