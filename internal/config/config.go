package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// Config is the process configuration loaded at startup. Runtime-tunable
// business settings live in the system_configs table instead.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      logger.Config  `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Telegram TelegramConfig `yaml:"telegram"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	IdentitySecret  string `yaml:"identity_secret"`
	SignatureSecret string `yaml:"signature_secret"`
	SignatureWindow int    `yaml:"signature_window"` // seconds
}

// BridgeConfig is the legacy file-level bridge endpoint for Weex. Other
// exchanges are configured per key in system_configs.
type BridgeConfig struct {
	WeexURL   string `yaml:"weex_url"`
	WeexToken string `yaml:"weex_token"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
}

type WorkerConfig struct {
	SettlementCron string `yaml:"settlement_cron"`
	LockTTL        int    `yaml:"lock_ttl"` // seconds
	BatchSize      int    `yaml:"batch_size"`
}

// Load reads the YAML config file and applies env overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file failed: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file failed: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release"},
		Database: DatabaseConfig{
			MaxOpenConns:    50,
			MaxIdleConns:    10,
			ConnMaxLifetime: 3600,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Log:   logger.Config{Level: "info", Format: "json", ServiceName: "rebate-engine"},
		Auth:  AuthConfig{SignatureWindow: 300},
		Worker: WorkerConfig{
			SettlementCron: "*/5 * * * *",
			LockTTL:        240,
			BatchSize:      500,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("IDENTITY_SECRET"); v != "" {
		cfg.Auth.IdentitySecret = v
	}
	if v := os.Getenv("SIGNATURE_SECRET"); v != "" {
		cfg.Auth.SignatureSecret = v
	}
	if v := os.Getenv("WEEX_BRIDGE_URL"); v != "" {
		cfg.Bridge.WeexURL = v
	}
	if v := os.Getenv("WEEX_BRIDGE_TOKEN"); v != "" {
		cfg.Bridge.WeexToken = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
		cfg.Telegram.Enabled = true
	}
}
