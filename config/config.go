package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rwalabs/rwa-exchange/pkg/exchange"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/riskguard"
	postgres_wrapper "github.com/rwalabs/rwa-exchange/pkg/infra/postgres"
	redis_wrapper "github.com/rwalabs/rwa-exchange/pkg/infra/redis"
	"github.com/rwalabs/rwa-exchange/pkg/orderbook"
)

type ExchangeConfig struct {
	FeeRecipient  string `yaml:"fee_recipient"`
	MakerFeeBps   int64  `yaml:"maker_fee_bps"`
	TakerFeeBps   int64  `yaml:"taker_fee_bps"`
	AuctionFeeBps int64  `yaml:"auction_fee_bps"`

	MinOrderSize           string        `yaml:"min_order_size"`
	MaxOrderSize           string        `yaml:"max_order_size"`
	MaxOrderDuration       time.Duration `yaml:"max_order_duration"`
	MaxActiveOrdersPerUser int           `yaml:"max_active_orders_per_user"`
	MaxSlippageBps         int64         `yaml:"max_slippage_bps"`

	AllowSelfTrade bool `yaml:"allow_self_trade"`

	MinAuctionDuration time.Duration `yaml:"min_auction_duration"`
	MaxAuctionDuration time.Duration `yaml:"max_auction_duration"`

	OracleMaxAgeSeconds int `yaml:"oracle_max_age_seconds"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	ExchangeDB  *postgres_wrapper.PostgresConfig `yaml:"exchange_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Exchange    *ExchangeConfig                  `yaml:"exchange"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	return cfg, nil
}

// EngineConfig converts the yaml block into the engine's typed config.
func (c *ExchangeConfig) EngineConfig() (exchange.Config, error) {
	minSize, err := decimal.NewFromString(c.MinOrderSize)
	if err != nil {
		return exchange.Config{}, fmt.Errorf("min_order_size: %w", err)
	}
	maxSize, err := decimal.NewFromString(c.MaxOrderSize)
	if err != nil {
		return exchange.Config{}, fmt.Errorf("max_order_size: %w", err)
	}

	policy := orderbook.SelfTradeSkip
	if c.AllowSelfTrade {
		policy = orderbook.SelfTradeAllow
	}

	return exchange.Config{
		FeeRecipient:  c.FeeRecipient,
		MakerFeeBps:   c.MakerFeeBps,
		TakerFeeBps:   c.TakerFeeBps,
		AuctionFeeBps: c.AuctionFeeBps,
		Limits: riskguard.Limits{
			MinOrderSize:           minSize,
			MaxOrderSize:           maxSize,
			MaxOrderDuration:       c.MaxOrderDuration,
			MaxActiveOrdersPerUser: c.MaxActiveOrdersPerUser,
			MaxSlippageBps:         c.MaxSlippageBps,
		},
		SelfTradePolicy:    policy,
		MinAuctionDuration: c.MinAuctionDuration,
		MaxAuctionDuration: c.MaxAuctionDuration,
	}, nil
}
