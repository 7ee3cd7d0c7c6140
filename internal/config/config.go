package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AdminJWTSecret string        `yaml:"admin_jwt_secret"` // guards the enrollment read endpoint
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ProviderConfig holds one provider's webhook signing secret.
type ProviderConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

type ProvidersConfig struct {
	Card     ProviderConfig `yaml:"card"`
	Regional ProviderConfig `yaml:"regional"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Password string `yaml:"password"`
}

type ReferralConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type DispatchConfig struct {
	Workers int `yaml:"workers"` // side-effect worker pool size
}

type AuditConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Providers ProvidersConfig `yaml:"providers"`
	Email     EmailConfig     `yaml:"email"`
	Referral  ReferralConfig  `yaml:"referral"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Audit     AuditConfig     `yaml:"audit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = 4
	}
	if cfg.Audit.Interval <= 0 {
		cfg.Audit.Interval = time.Hour
	}
	if cfg.Audit.BatchSize <= 0 {
		cfg.Audit.BatchSize = 200
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !dev {
		if cfg.Providers.Card.WebhookSecret == "" {
			return nil, errors.New("providers.card.webhook_secret is required")
		}
		if cfg.Providers.Regional.WebhookSecret == "" {
			return nil, errors.New("providers.regional.webhook_secret is required")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
