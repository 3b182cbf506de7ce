package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/eventstore"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/riskguard"
	"github.com/rwalabs/rwa-exchange/pkg/logging"
	"github.com/rwalabs/rwa-exchange/pkg/marketdata"
	"github.com/rwalabs/rwa-exchange/pkg/oracle"
	"github.com/rwalabs/rwa-exchange/pkg/orderbook"
)

// Config carries the engine's economic and admission parameters.
type Config struct {
	FeeRecipient  string
	MakerFeeBps   int64
	TakerFeeBps   int64
	AuctionFeeBps int64

	Limits riskguard.Limits

	SelfTradePolicy orderbook.SelfTradePolicy

	MinAuctionDuration time.Duration
	MaxAuctionDuration time.Duration
}

// Engine is the order-matching and settlement core. One logical operation
// runs at a time; the reentry guard trips callbacks that try to come back
// in through a public operation mid-call.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	log *logging.Logger

	books  *orderbook.Manager
	vault  *Vault
	fees   *FeeLedger
	risk   *riskguard.Guard
	events eventstore.EventStore

	oracle  oracle.Oracle
	rewards RewardsDistributor
	market  *marketdata.Service

	auctions *AuctionHouse

	guard    reentryGuard
	matching *matchLock

	orders     map[int64]*model.Order
	trades     map[int64]*model.Trade
	userOrders map[string][]int64
	orderSeq   int64
	tradeSeq   int64

	nowFn func() time.Time
}

func NewEngine(cfg Config, log *logging.Logger, orc oracle.Oracle, rewards RewardsDistributor, market *marketdata.Service, events eventstore.EventStore) (*Engine, error) {
	fees, err := NewFeeLedger(cfg.MakerFeeBps, cfg.TakerFeeBps, cfg.AuctionFeeBps, cfg.FeeRecipient)
	if err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = NoopRewards{}
	}
	if events == nil {
		events = eventstore.NewInMemoryEventStore()
	}
	if cfg.MinAuctionDuration == 0 {
		cfg.MinAuctionDuration = time.Hour
	}
	if cfg.MaxAuctionDuration == 0 {
		cfg.MaxAuctionDuration = 7 * 24 * time.Hour
	}

	e := &Engine{
		cfg:        cfg,
		log:        log,
		books:      orderbook.NewManager(cfg.SelfTradePolicy),
		vault:      NewVault(),
		fees:       fees,
		risk:       riskguard.New(cfg.Limits),
		events:     events,
		oracle:     orc,
		rewards:    rewards,
		market:     market,
		matching:   newMatchLock(),
		orders:     make(map[int64]*model.Order),
		trades:     make(map[int64]*model.Trade),
		userOrders: make(map[string][]int64),
		nowFn:      time.Now,
	}
	e.auctions = newAuctionHouse(e)
	return e, nil
}

// SetClock replaces the time source; expiry and auction deadlines are data
// checked against it, never timers.
func (e *Engine) SetClock(fn func() time.Time) { e.nowFn = fn }

func (e *Engine) Vault() *Vault                 { return e.vault }
func (e *Engine) Fees() *FeeLedger              { return e.fees }
func (e *Engine) Risk() *riskguard.Guard        { return e.risk }
func (e *Engine) Events() eventstore.EventStore { return e.events }
func (e *Engine) Auctions() *AuctionHouse       { return e.auctions }

// Order returns a copy of the order record.
func (e *Engine) Order(id int64) (model.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	return *o, nil
}

// Trade returns a copy of the trade record.
func (e *Engine) Trade(id int64) (model.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.trades[id]
	if !ok {
		return model.Trade{}, fmt.Errorf("trade %d: %w", id, ErrOrderNotFound)
	}
	return *t, nil
}

// Auction returns a copy of the auction record.
func (e *Engine) Auction(id int64) (model.Auction, error) {
	return e.auctions.Auction(id)
}

// UserOrders lists every order id the user ever created, oldest first.
func (e *Engine) UserOrders(user string) []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int64(nil), e.userOrders[user]...)
}

// BestPrices returns the asset's top of book.
func (e *Engine) BestPrices(asset string) (bid, ask decimal.Decimal, hasBid, hasAsk bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	book, ok := e.books.Peek(asset)
	if !ok {
		return decimal.Zero, decimal.Zero, false, false
	}
	bid, hasBid = book.BestBid()
	ask, hasAsk = book.BestAsk()
	return bid, ask, hasBid, hasAsk
}

// CreateOrder escrows the maker's collateral, records the order, and
// immediately matches it against the opposite side. The remainder rests.
func (e *Engine) CreateOrder(ctx context.Context, maker, asset, paymentToken string, amount, price decimal.Decimal, side model.OrderSide, expiry time.Time) (int64, error) {
	if err := e.guard.enter(); err != nil {
		return 0, err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if maker == "" {
		return 0, ErrInvalidAccount
	}
	now := e.nowFn()

	order := &model.Order{
		Maker:        maker,
		Asset:        asset,
		PaymentToken: paymentToken,
		Amount:       amount,
		Price:        price,
		Side:         side,
		Status:       model.OrderStatusActive,
		Expiry:       expiry,
		CreatedAt:    now,
	}
	if err := e.risk.CheckNewOrder(order, now); err != nil {
		return 0, err
	}

	// escrow before any bookkeeping; a failed escrow leaves no trace
	if side == model.OrderSideBuy {
		cost := amount.Mul(price)
		reserve := e.fees.TakerFee(cost)
		if err := e.vault.Escrow(maker, paymentToken, cost.Add(reserve)); err != nil {
			return 0, err
		}
		order.ReservedFee = reserve
		order.FeeReserveLeft = reserve
	} else {
		if err := e.vault.Escrow(maker, asset, amount); err != nil {
			return 0, err
		}
	}

	e.orderSeq++
	order.ID = e.orderSeq
	e.orders[order.ID] = order
	e.userOrders[maker] = append(e.userOrders[maker], order.ID)
	e.risk.OrderOpened(maker)

	ev := model.NewEvent(model.EventOrderCreated, now)
	ev.OrderID = order.ID
	ev.Account = maker
	ev.Asset = asset
	ev.Amount = amount
	ev.Price = price
	e.events.Append(ev)

	e.matchNewOrder(ctx, order, now)
	return order.ID, nil
}

// matchNewOrder runs the incoming order against the book and settles every
// fill. The order is flagged in-matching for the duration.
func (e *Engine) matchNewOrder(ctx context.Context, order *model.Order, now time.Time) {
	e.matching.lock(order.ID)
	defer e.matching.unlock(order.ID)

	book := e.books.Book(order.Asset)
	entry := &orderbook.Entry{
		ID:     order.ID,
		Maker:  order.Maker,
		Side:   orderbook.Side(order.Side),
		Price:  order.Price,
		Amount: order.Amount,
		Expiry: order.Expiry,
	}
	res, err := book.SubmitLimit(entry, now)
	if err != nil {
		// the id is fresh and the price pre-validated; treat as corruption
		e.log.Error(ctx, "book rejected new order", zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	for _, stale := range res.Expired {
		e.expireOrder(ctx, stale.ID, now)
	}
	for _, fill := range res.Fills {
		makerOrder := e.orders[fill.MakerOrderID]
		if order.Side == model.OrderSideBuy {
			e.settleTrade(ctx, order, makerOrder, order.Maker, makerOrder.Maker, fill.Price, fill.Amount, now)
		} else {
			e.settleTrade(ctx, makerOrder, order, makerOrder.Maker, order.Maker, fill.Price, fill.Amount, now)
		}
	}
}

// settleTrade commits one fill: fee split, vault moves, records, events.
// Either order may be nil for a market-order leg; buyer and seller name
// the accounts on each side regardless. All internal state is final
// before the best-effort external rewards call.
func (e *Engine) settleTrade(ctx context.Context, buyOrder, sellOrder *model.Order, buyer, seller string, price, amount decimal.Decimal, now time.Time) *model.Trade {
	var buyOrderID, sellOrderID int64
	var asset, paymentToken string

	if buyOrder != nil {
		buyOrderID = buyOrder.ID
		asset, paymentToken = buyOrder.Asset, buyOrder.PaymentToken
	}
	if sellOrder != nil {
		sellOrderID = sellOrder.ID
		asset, paymentToken = sellOrder.Asset, sellOrder.PaymentToken
	}

	value := amount.Mul(price)
	buyerFee := e.fees.TakerFee(value)
	sellerFee := e.fees.MakerFee(value)

	// the reserve escrowed at creation bounds what a resting buyer pays;
	// rate raises after creation are not charged retroactively
	if buyOrder != nil {
		buyerFee = decimal.Min(buyerFee, buyOrder.FeeReserveLeft)
		buyOrder.FeeReserveLeft = buyOrder.FeeReserveLeft.Sub(buyerFee)
	}

	if err := e.settleVault(buyOrder, sellOrder, buyer, seller, paymentToken, asset, value, amount, price, buyerFee, sellerFee); err != nil {
		e.log.Error(ctx, "vault settlement failed", zap.Error(err),
			zap.Int64("buy_order", buyOrderID), zap.Int64("sell_order", sellOrderID))
		return nil
	}

	if buyOrder != nil {
		buyOrder.ApplyFill(amount)
		if buyOrder.Status == model.OrderStatusFilled {
			e.releaseFeeReserve(buyOrder)
			e.risk.OrderClosed(buyOrder.Maker)
		}
	}
	if sellOrder != nil {
		sellOrder.ApplyFill(amount)
		if sellOrder.Status == model.OrderStatusFilled {
			e.risk.OrderClosed(sellOrder.Maker)
		}
	}

	e.tradeSeq++
	trade := &model.Trade{
		ID:           e.tradeSeq,
		BuyOrderID:   buyOrderID,
		SellOrderID:  sellOrderID,
		Buyer:        buyer,
		Seller:       seller,
		Asset:        asset,
		PaymentToken: paymentToken,
		Amount:       amount,
		Price:        price,
		BuyerFee:     buyerFee,
		SellerFee:    sellerFee,
		ExecutedAt:   now,
	}
	e.trades[trade.ID] = trade
	e.fees.RecordTrade(value, buyerFee.Add(sellerFee))

	ev := model.NewEvent(model.EventTradeExecuted, now)
	ev.TradeID = trade.ID
	ev.OrderID = sellOrderID
	if sellOrderID == 0 {
		ev.OrderID = buyOrderID
	}
	ev.Asset = asset
	ev.Amount = amount
	ev.Price = price
	e.events.Append(ev)

	if e.market != nil {
		e.market.RecordTrade(ctx, asset, price, amount, now)
	}
	e.distributeReward(ctx, buyer, ActivityTrade, value)
	e.distributeReward(ctx, seller, ActivityTrade, value)
	return trade
}

// settleVault applies the per-trade balance moves. The buyer's escrow for
// the filled slice is value + improvement + buyerFee; improvement is the
// refund a taker gets for buying below its own limit.
func (e *Engine) settleVault(buyOrder, sellOrder *model.Order, buyer, seller, paymentToken, asset string, value, amount, price, buyerFee, sellerFee decimal.Decimal) error {
	improvement := decimal.Zero
	if buyOrder != nil {
		improvement = amount.Mul(buyOrder.Price.Sub(price))
	}

	if err := e.vault.SettleEscrow(buyer, seller, paymentToken, value.Sub(sellerFee)); err != nil {
		return err
	}
	if fees := buyerFee.Add(sellerFee); fees.IsPositive() {
		if err := e.vault.SettleEscrow(buyer, e.fees.Recipient(), paymentToken, fees); err != nil {
			return err
		}
	}
	if improvement.IsPositive() {
		if err := e.vault.Release(buyer, paymentToken, improvement); err != nil {
			return err
		}
	}
	return e.vault.SettleEscrow(seller, buyer, asset, amount)
}

func (e *Engine) releaseFeeReserve(o *model.Order) {
	if o.FeeReserveLeft.IsPositive() {
		if err := e.vault.Release(o.Maker, o.PaymentToken, o.FeeReserveLeft); err == nil {
			o.FeeReserveLeft = decimal.Zero
		}
	}
}

func (e *Engine) distributeReward(ctx context.Context, user string, activity ActivityType, amount decimal.Decimal) {
	if err := e.rewards.DistributeActivityReward(ctx, user, activity, amount); err != nil {
		// best effort: a failed reward never rolls back the trade
		e.log.Warn(ctx, "reward distribution failed",
			zap.String("user", user), zap.String("activity", string(activity)), zap.Error(err))
	}
}

// expireOrder refunds an expired maker the book evicted and closes it out.
func (e *Engine) expireOrder(ctx context.Context, id int64, now time.Time) {
	o, ok := e.orders[id]
	if !ok || !o.IsActive() {
		return
	}
	e.refundRemainder(o)
	o.Status = model.OrderStatusCancelled
	e.risk.OrderClosed(o.Maker)

	ev := model.NewEvent(model.EventOrderExpired, now)
	ev.OrderID = o.ID
	ev.Account = o.Maker
	ev.Asset = o.Asset
	ev.Amount = o.Remaining()
	e.events.Append(ev)
}

// refundRemainder releases the escrow backing the unfilled remainder plus
// any unused fee reserve.
func (e *Engine) refundRemainder(o *model.Order) {
	if o.Side == model.OrderSideBuy {
		refund := o.Remaining().Mul(o.Price).Add(o.FeeReserveLeft)
		if err := e.vault.Release(o.Maker, o.PaymentToken, refund); err == nil {
			o.FeeReserveLeft = decimal.Zero
		}
	} else {
		_ = e.vault.Release(o.Maker, o.Asset, o.Remaining())
	}
}

// CancelOrder refunds the unfilled remainder and retires the order. Only
// the maker may cancel; an order inside a match loop cannot be cancelled.
func (e *Engine) CancelOrder(ctx context.Context, caller string, orderID int64) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if o.Maker != caller {
		return fmt.Errorf("%w: order %d", ErrNotMaker, orderID)
	}
	if !o.IsActive() {
		return fmt.Errorf("%w: id %d status %s", ErrOrderNotActive, orderID, o.Status)
	}
	if e.matching.locked(orderID) {
		return fmt.Errorf("%w: id %d", ErrOrderInMatching, orderID)
	}

	if book, okb := e.books.Peek(o.Asset); okb {
		if _, err := book.Cancel(orderID); err != nil {
			return fmt.Errorf("cancel order %d: %w", orderID, err)
		}
	}
	e.refundRemainder(o)
	o.Status = model.OrderStatusCancelled
	e.risk.OrderClosed(o.Maker)

	now := e.nowFn()
	ev := model.NewEvent(model.EventOrderCancelled, now)
	ev.OrderID = o.ID
	ev.Account = o.Maker
	ev.Asset = o.Asset
	ev.Amount = o.Remaining()
	e.events.Append(ev)
	return nil
}

// MarketOrder executes immediately against resting liquidity within the
// slippage bound, all or nothing, and never rests in the book. The plan is
// computed before any state changes so a rejection leaves no trace.
func (e *Engine) MarketOrder(ctx context.Context, taker, asset, paymentToken string, amount decimal.Decimal, side model.OrderSide, maxSlippageBps int64) ([]*model.Trade, error) {
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if taker == "" {
		return nil, ErrInvalidAccount
	}
	if err := e.risk.CheckMarketOrder(asset, paymentToken, amount, maxSlippageBps); err != nil {
		return nil, err
	}
	now := e.nowFn()

	// one oracle read bounds every candidate's slippage
	ref, err := e.oracle.GetPrice(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("oracle price for %s: %w", asset, err)
	}
	maxSlip := decimal.NewFromInt(maxSlippageBps)
	eligible := func(p decimal.Decimal) bool {
		// |p - ref| * 10^4 <= ref * maxSlippageBps, exact in decimals
		return p.Sub(ref.Value).Abs().Mul(decimal.NewFromInt(bpsDenominator)).
			LessThanOrEqual(ref.Value.Mul(maxSlip))
	}

	book := e.books.Book(asset)
	fills, unfilled := book.PlanMarket(orderbook.Side(side), taker, amount, eligible, now)
	if unfilled.IsPositive() {
		return nil, fmt.Errorf("%w: %s of %s unfilled", ErrInsufficientLiquidity, unfilled, amount)
	}

	// reserve the taker's side in full before touching the book
	if side == model.OrderSideBuy {
		total := decimal.Zero
		for _, f := range fills {
			v := f.Amount.Mul(f.Price)
			total = total.Add(v).Add(e.fees.TakerFee(v))
		}
		if err := e.vault.Escrow(taker, paymentToken, total); err != nil {
			return nil, err
		}
	} else {
		if err := e.vault.Escrow(taker, asset, amount); err != nil {
			return nil, err
		}
	}

	if err := book.ApplyFills(fills); err != nil {
		// plan and book diverged; nothing was settled yet
		e.log.Error(ctx, "market fill apply failed", zap.Error(err))
		return nil, err
	}

	trades := make([]*model.Trade, 0, len(fills))
	for _, fill := range fills {
		makerOrder := e.orders[fill.MakerOrderID]
		var trade *model.Trade
		if side == model.OrderSideBuy {
			trade = e.settleTrade(ctx, nil, makerOrder, taker, makerOrder.Maker, fill.Price, fill.Amount, now)
		} else {
			trade = e.settleTrade(ctx, makerOrder, nil, makerOrder.Maker, taker, fill.Price, fill.Amount, now)
		}
		if trade != nil {
			trades = append(trades, trade)
		}
	}
	return trades, nil
}

// Deposit and Withdraw expose the vault's external value boundary.
func (e *Engine) Deposit(account, token string, amount decimal.Decimal) error {
	return e.vault.Deposit(account, token, amount)
}

func (e *Engine) Withdraw(account, token string, amount decimal.Decimal) error {
	return e.vault.Withdraw(account, token, amount)
}

// Admin surface, consumed from the host protocol.

func (e *Engine) UpdateFees(makerBps, takerBps, auctionBps int64) error {
	return e.fees.UpdateFees(makerBps, takerBps, auctionBps)
}

func (e *Engine) RegisterAsset(asset string)        { e.risk.RegisterAsset(asset) }
func (e *Engine) RegisterPaymentToken(token string) { e.risk.RegisterPaymentToken(token) }

func (e *Engine) SetAssetTradingEnabled(asset string, enabled bool) error {
	return e.risk.SetTradingEnabled(asset, enabled)
}

func (e *Engine) ActivateEmergencyStop(ctx context.Context) {
	e.risk.ActivateEmergencyStop()
	ev := model.NewEvent(model.EventEmergencyStop, e.nowFn())
	ev.Amount = decimal.NewFromInt(1)
	e.events.Append(ev)
	e.log.Warn(ctx, "emergency stop activated")
}

func (e *Engine) DeactivateEmergencyStop(ctx context.Context) {
	e.risk.DeactivateEmergencyStop()
	ev := model.NewEvent(model.EventEmergencyStop, e.nowFn())
	e.events.Append(ev)
	e.log.Info(ctx, "emergency stop deactivated")
}

func (e *Engine) UpdateTradingLimits(maxActiveOrdersPerUser int, maxSlippageBps int64) {
	e.risk.UpdateTradingLimits(maxActiveOrdersPerUser, maxSlippageBps)
}
