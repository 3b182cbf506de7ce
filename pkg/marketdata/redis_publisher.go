package marketdata

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

const (
	summaryKeyPrefix = "marketdata:summary:"
	tickerChannel    = "marketdata:ticker"
)

// RedisPublisher caches the latest summary per asset and fans a tick out on
// a pub/sub channel for downstream consumers.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, md *model.MarketData) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, summaryKeyPrefix+md.Asset, raw, 0).Err(); err != nil {
		return err
	}
	return p.client.Publish(ctx, tickerChannel, raw).Err()
}
