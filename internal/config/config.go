package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service settings. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	Port        string `yaml:"port"`
	DBPath      string `yaml:"db_path"`
	DatabaseURL string `yaml:"database_url"`
	SeedPath    string `yaml:"seed_path"`

	Irradiance IrradianceConfig `yaml:"irradiance"`
	Notify     NotifyConfig     `yaml:"notify"`

	// Delay before an automatic fetch starts after a coordinate-changing save.
	BackgroundDelay time.Duration `yaml:"background_delay"`
}

type IrradianceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type NotifyConfig struct {
	// One of "redis", "kafka" or "log".
	Sink         string        `yaml:"sink"`
	TTL          time.Duration `yaml:"ttl"`
	RedisAddr    string        `yaml:"redis_addr"`
	Channel      string        `yaml:"channel"`
	KafkaBrokers []string      `yaml:"kafka_brokers"`
	KafkaTopic   string        `yaml:"kafka_topic"`
}

func Default() *Config {
	return &Config{
		Port:     "8080",
		DBPath:   "data/app.db",
		SeedPath: "data/seeds/sites.json",
		Irradiance: IrradianceConfig{
			BaseURL: "https://archive-api.open-meteo.com",
			Timeout: 30 * time.Second,
			RPS:     1,
			Burst:   3,
		},
		Notify: NotifyConfig{
			Sink:       "log",
			TTL:        4 * time.Second,
			RedisAddr:  "localhost:6379",
			Channel:    "site-notifications",
			KafkaTopic: "site-notifications",
		},
		BackgroundDelay: 500 * time.Millisecond,
	}
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("load config: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("load config: parse %q: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = Get("PORT", cfg.Port)
	cfg.DBPath = Get("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = Get("DATABASE_URL", cfg.DatabaseURL)
	cfg.SeedPath = Get("SEED_PATH", cfg.SeedPath)

	cfg.Irradiance.BaseURL = Get("IRRADIANCE_BASE_URL", cfg.Irradiance.BaseURL)
	cfg.Notify.Sink = Get("NOTIFIER", cfg.Notify.Sink)
	cfg.Notify.RedisAddr = Get("REDIS_ADDR", cfg.Notify.RedisAddr)
	cfg.Notify.Channel = Get("NOTIFY_CHANNEL", cfg.Notify.Channel)
	cfg.Notify.KafkaTopic = Get("KAFKA_TOPIC", cfg.Notify.KafkaTopic)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Notify.KafkaBrokers = brokers
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SOLAR_BACKGROUND_DELAY", &cfg.BackgroundDelay},
		{"NOTIFY_TTL", &cfg.Notify.TTL},
		{"IRRADIANCE_TIMEOUT", &cfg.Irradiance.Timeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("IRRADIANCE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse IRRADIANCE_RPS=%q: %w", v, err)
		}
		cfg.Irradiance.RPS = rps
	}
	if v := os.Getenv("IRRADIANCE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse IRRADIANCE_BURST=%q: %w", v, err)
		}
		cfg.Irradiance.Burst = burst
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Notify.Sink {
	case "redis", "log":
	case "kafka":
		if len(c.Notify.KafkaBrokers) == 0 {
			return errors.New("notify sink kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown notify sink %q", c.Notify.Sink)
	}

	if c.BackgroundDelay < 0 {
		return fmt.Errorf("background delay must not be negative, got %s", c.BackgroundDelay)
	}
	if c.Irradiance.RPS < 0 || c.Irradiance.Burst < 0 {
		return errors.New("irradiance rate limit must not be negative")
	}

	return nil
}
