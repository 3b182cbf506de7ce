package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const priceKeyPrefix = "oracle:price:"

// RedisOracle reads prices a feeder posts into redis as JSON Price blobs.
// Observations older than maxAge are rejected rather than served.
type RedisOracle struct {
	client *redis.Client
	maxAge time.Duration
}

func NewRedisOracle(client *redis.Client, maxAge time.Duration) *RedisOracle {
	return &RedisOracle{client: client, maxAge: maxAge}
}

func (o *RedisOracle) GetPrice(ctx context.Context, asset string) (Price, error) {
	raw, err := o.client.Get(ctx, priceKeyPrefix+asset).Bytes()
	if err == redis.Nil {
		return Price{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
	}
	if err != nil {
		return Price{}, err
	}

	var p Price
	if err := json.Unmarshal(raw, &p); err != nil {
		return Price{}, fmt.Errorf("decode price for %s: %w", asset, err)
	}
	if o.maxAge > 0 && time.Since(p.Timestamp) > o.maxAge {
		return Price{}, fmt.Errorf("%w: %s from %s", ErrStalePrice, asset, p.Timestamp.Format(time.RFC3339))
	}
	return p, nil
}

// PostPrice writes an observation; used by the price feeder and by tests.
func PostPrice(ctx context.Context, client *redis.Client, asset string, p Price, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return client.Set(ctx, priceKeyPrefix+asset, raw, ttl).Err()
}
