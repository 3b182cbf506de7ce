package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

type ActivityType string

const (
	ActivityTrade      ActivityType = "trade"
	ActivityAuctionWin ActivityType = "auction_win"
)

// RewardsDistributor is the best-effort rewards collaborator. A failed
// distribution never rolls back the trade that triggered it; the engine
// logs and moves on.
type RewardsDistributor interface {
	DistributeActivityReward(ctx context.Context, user string, activity ActivityType, amount decimal.Decimal) error
}

// NoopRewards discards all reward activity.
type NoopRewards struct{}

func (NoopRewards) DistributeActivityReward(context.Context, string, ActivityType, decimal.Decimal) error {
	return nil
}
