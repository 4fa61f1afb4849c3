package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/bridge"
	"github.com/tradeperk/rebate-engine/internal/config"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// ConfigService resolves runtime settings from the system_configs table,
// falling back to caller-supplied defaults. A read failure never blocks
// business flow; the fallback wins and the failure is logged.
type ConfigService struct {
	configs repository.SystemConfigRepository
	file    *config.Config
}

// NewConfigService creates a config service.
func NewConfigService(configs repository.SystemConfigRepository, file *config.Config) *ConfigService {
	return &ConfigService{configs: configs, file: file}
}

// Get returns the string value for key, or fallback when unset or blank.
func (s *ConfigService) Get(ctx context.Context, key, fallback string) string {
	cfg, err := s.configs.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrConfigNotFound) {
			logger.Warn("read system config failed", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	value := strings.TrimSpace(cfg.Value)
	if value == "" {
		return fallback
	}
	return value
}

// GetNumber returns the numeric value for key, or fallback when unset or
// unparseable.
func (s *ConfigService) GetNumber(ctx context.Context, key string, fallback float64) float64 {
	raw := s.Get(ctx, key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.Warn("system config is not a number", zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return n
}

// GetDecimal returns the decimal value for key, or fallback.
func (s *ConfigService) GetDecimal(ctx context.Context, key string, fallback decimal.Decimal) decimal.Decimal {
	raw := s.Get(ctx, key, "")
	if raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Warn("system config is not a decimal", zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return d
}

// GetBool returns the boolean value for key. Accepts 1/true/yes/on and
// 0/false/no/off in any case; anything else yields the fallback.
func (s *ConfigService) GetBool(ctx context.Context, key string, fallback bool) bool {
	raw := strings.ToLower(s.Get(ctx, key, ""))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// Set upserts a config value with operator attribution.
func (s *ConfigService) Set(ctx context.Context, key, value, remark string, updatedBy int64) error {
	return s.configs.Set(ctx, &model.SystemConfig{
		Key:       key,
		Value:     value,
		Remark:    remark,
		UpdatedBy: updatedBy,
	})
}

// List returns all config rows for the admin surface.
func (s *ConfigService) List(ctx context.Context) ([]*model.SystemConfig, error) {
	return s.configs.List(ctx)
}

// bridgeKeyPrefix maps canonical exchange names to their config key prefix.
var bridgeKeyPrefix = map[string]string{
	model.ExchangeBinance: "BINANCE",
	model.ExchangeOKX:     "OKX",
	model.ExchangeBitget:  "BITGET",
	model.ExchangeGate:    "GATE",
	model.ExchangeWeex:    "WEEX",
}

// BridgeConfig resolves the bridge endpoint for an exchange from
// <PREFIX>_BRIDGE_URL / <PREFIX>_BRIDGE_TOKEN. Weex keeps a file-config
// fallback for deployments predating per-exchange keys.
func (s *ConfigService) BridgeConfig(ctx context.Context, exchange string) (*bridge.Config, error) {
	canonical, err := model.NormalizeExchangeName(exchange)
	if err != nil {
		return nil, err
	}

	prefix := bridgeKeyPrefix[canonical]
	cfg := &bridge.Config{
		URL:   s.Get(ctx, prefix+"_BRIDGE_URL", ""),
		Token: s.Get(ctx, prefix+"_BRIDGE_TOKEN", ""),
	}

	if canonical == model.ExchangeWeex && s.file != nil {
		if cfg.URL == "" {
			cfg.URL = s.file.Bridge.WeexURL
		}
		if cfg.Token == "" {
			cfg.Token = s.file.Bridge.WeexToken
		}
	}
	return cfg, nil
}
