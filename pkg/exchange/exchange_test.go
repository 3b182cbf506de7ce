package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/riskguard"
	"github.com/rwalabs/rwa-exchange/pkg/logging"
	"github.com/rwalabs/rwa-exchange/pkg/oracle"
	"github.com/rwalabs/rwa-exchange/pkg/orderbook"
)

const (
	testAsset = "GOLD-1"
	testToken = "USDC"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func testConfig() Config {
	return Config{
		FeeRecipient:  "treasury",
		MakerFeeBps:   10,
		TakerFeeBps:   20,
		AuctionFeeBps: 50,
		Limits: riskguard.Limits{
			MinOrderSize:           dec("0.01"),
			MaxOrderSize:           dec("1000000"),
			MaxOrderDuration:       30 * 24 * time.Hour,
			MaxActiveOrdersPerUser: 10,
			MaxSlippageBps:         500,
		},
	}
}

func newTestEngine(t *testing.T, cfg Config, rewards RewardsDistributor) (*Engine, *oracle.Static) {
	t.Helper()
	orc := oracle.NewStatic()
	e, err := NewEngine(cfg, logging.NewNop(), orc, rewards, nil, nil)
	require.NoError(t, err)
	e.SetClock(func() time.Time { return testNow })
	e.RegisterAsset(testAsset)
	e.RegisterPaymentToken(testToken)
	return e, orc
}

func fund(t *testing.T, e *Engine, account, token, amount string) {
	t.Helper()
	require.NoError(t, e.Deposit(account, token, dec(amount)))
}

func expiry() time.Time { return testNow.Add(24 * time.Hour) }

func TestLimitOrderMatchMakerPriceWins(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "alice", testAsset, "100")
	fund(t, e, "bob", testToken, "1000")

	sellID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	buyID, err := e.CreateOrder(ctx, "bob", testAsset, testToken, dec("60"), dec("12"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	trade, err := e.Trade(1)
	require.NoError(t, err)
	assertDec(t, "10", trade.Price) // maker price, not the taker's 12
	assertDec(t, "60", trade.Amount)
	assert.Equal(t, "bob", trade.Buyer)
	assert.Equal(t, "alice", trade.Seller)
	assert.Equal(t, sellID, trade.SellOrderID)
	assert.Equal(t, buyID, trade.BuyOrderID)
	assertDec(t, "1.2", trade.BuyerFee)  // 20 bps of 600
	assertDec(t, "0.6", trade.SellerFee) // 10 bps of 600

	sell, err := e.Order(sellID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusActive, sell.Status)
	assertDec(t, "60", sell.Filled)
	assertDec(t, "40", sell.Remaining())

	buy, err := e.Order(buyID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFilled, buy.Status)

	v := e.Vault()
	assertDec(t, "599.4", v.Balance("alice", testToken)) // 600 - seller fee
	assertDec(t, "40", v.Escrowed("alice", testAsset))   // unfilled remainder
	assertDec(t, "60", v.Balance("bob", testAsset))
	// bob escrowed 60*12 + 1.44 fee reserve; got 120 price improvement and
	// the unused 0.24 of the reserve back
	assertDec(t, "398.8", v.Balance("bob", testToken))
	assertDec(t, "0", v.Escrowed("bob", testToken))
	assertDec(t, "1.8", v.Balance("treasury", testToken))

	// trades move value around but never create or destroy it
	assertDec(t, "1000", v.TotalOf(testToken))
	assertDec(t, "100", v.TotalOf(testAsset))

	collected, volume, count := e.Fees().Totals()
	assertDec(t, "1.8", collected)
	assertDec(t, "600", volume)
	assert.Equal(t, int64(1), count)
}

func TestPriceTimePriority(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "carol", testAsset, "10")
	fund(t, e, "alice", testAsset, "10")
	fund(t, e, "dave", testAsset, "5")
	fund(t, e, "bob", testToken, "1000")

	carolID, err := e.CreateOrder(ctx, "carol", testAsset, testToken, dec("10"), dec("9"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	daveID, err := e.CreateOrder(ctx, "dave", testAsset, testToken, dec("5"), dec("9"), model.OrderSideSell, expiry())
	require.NoError(t, err)

	buyID, err := e.CreateOrder(ctx, "bob", testAsset, testToken, dec("12"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	// level 9 drains in arrival order before level 10 is touched
	first, err := e.Trade(1)
	require.NoError(t, err)
	assert.Equal(t, carolID, first.SellOrderID)
	assertDec(t, "9", first.Price)
	assertDec(t, "10", first.Amount)

	second, err := e.Trade(2)
	require.NoError(t, err)
	assert.Equal(t, daveID, second.SellOrderID)
	assertDec(t, "9", second.Price)
	assertDec(t, "2", second.Amount)

	buy, err := e.Order(buyID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFilled, buy.Status)

	_, ask, _, hasAsk := e.BestPrices(testAsset)
	require.True(t, hasAsk)
	assertDec(t, "9", ask)
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "alice", testAsset, "100")
	fund(t, e, "bob", testToken, "1000")

	sellID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("40"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	err = e.CancelOrder(ctx, "carol", sellID)
	assert.ErrorIs(t, err, ErrNotMaker)

	require.NoError(t, e.CancelOrder(ctx, "alice", sellID))
	sell, err := e.Order(sellID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, sell.Status)
	assertDec(t, "60", e.Vault().Balance("alice", testAsset))
	assertDec(t, "0", e.Vault().Escrowed("alice", testAsset))

	err = e.CancelOrder(ctx, "alice", sellID)
	assert.ErrorIs(t, err, ErrOrderNotActive)

	err = e.CancelOrder(ctx, "alice", 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestBuyOrderEscrowAndCancelRefund(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "bob", testToken, "1000")

	buyID, err := e.CreateOrder(ctx, "bob", testAsset, testToken, dec("50"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	// cost 500 plus 20 bps fee reserve
	assertDec(t, "499", e.Vault().Balance("bob", testToken))
	assertDec(t, "501", e.Vault().Escrowed("bob", testToken))

	require.NoError(t, e.CancelOrder(ctx, "bob", buyID))
	assertDec(t, "1000", e.Vault().Balance("bob", testToken))
	assertDec(t, "0", e.Vault().Escrowed("bob", testToken))
}

func TestCreateOrderRejections(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "bob", testToken, "1000")

	_, err := e.CreateOrder(ctx, "bob", "UNLISTED", testToken, dec("10"), dec("10"), model.OrderSideBuy, expiry())
	assert.ErrorIs(t, err, riskguard.ErrAssetNotSupported)

	_, err = e.CreateOrder(ctx, "bob", testAsset, "EUR", dec("10"), dec("10"), model.OrderSideBuy, expiry())
	assert.ErrorIs(t, err, riskguard.ErrTokenNotSupported)

	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("10"), dec("-1"), model.OrderSideBuy, expiry())
	assert.ErrorIs(t, err, riskguard.ErrInvalidPrice)

	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("10"), dec("10"), model.OrderSideBuy, testNow.Add(-time.Hour))
	assert.ErrorIs(t, err, riskguard.ErrInvalidExpiry)

	// insufficient balance leaves no order behind
	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("200"), dec("10"), model.OrderSideBuy, expiry())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, e.UserOrders("bob"))

	require.NoError(t, e.SetAssetTradingEnabled(testAsset, false))
	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("10"), dec("10"), model.OrderSideBuy, expiry())
	assert.ErrorIs(t, err, riskguard.ErrTradingDisabled)
}

func TestMarketOrderAllOrNothing(t *testing.T) {
	ctx := context.Background()
	e, orc := newTestEngine(t, testConfig(), nil)
	orc.Set(testAsset, oracle.Price{Value: dec("10"), Timestamp: testNow})
	fund(t, e, "alice", testAsset, "50")
	fund(t, e, "bob", testToken, "1000")

	sellID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("50"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)

	_, err = e.MarketOrder(ctx, "bob", testAsset, testToken, dec("80"), model.OrderSideBuy, 100)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	// the rejected order left no trace
	assertDec(t, "1000", e.Vault().Balance("bob", testToken))
	assertDec(t, "0", e.Vault().Escrowed("bob", testToken))
	sell, err := e.Order(sellID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusActive, sell.Status)
	assertDec(t, "50", sell.Remaining())
}

func TestMarketOrderBuySettlement(t *testing.T) {
	ctx := context.Background()
	e, orc := newTestEngine(t, testConfig(), nil)
	orc.Set(testAsset, oracle.Price{Value: dec("10"), Timestamp: testNow})
	fund(t, e, "alice", testAsset, "50")
	fund(t, e, "bob", testToken, "1000")

	sellID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("50"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)

	trades, err := e.MarketOrder(ctx, "bob", testAsset, testToken, dec("50"), model.OrderSideBuy, 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assertDec(t, "10", trades[0].Price)
	assertDec(t, "50", trades[0].Amount)
	assert.Equal(t, int64(0), trades[0].BuyOrderID) // market leg never rested
	assert.Equal(t, sellID, trades[0].SellOrderID)
	assert.Equal(t, "bob", trades[0].Buyer)

	v := e.Vault()
	assertDec(t, "499", v.Balance("bob", testToken)) // 500 + 20 bps taker fee
	assertDec(t, "50", v.Balance("bob", testAsset))
	assertDec(t, "499.5", v.Balance("alice", testToken))
	assertDec(t, "1.5", v.Balance("treasury", testToken))

	sell, err := e.Order(sellID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFilled, sell.Status)
}

func TestMarketOrderSellSettlement(t *testing.T) {
	ctx := context.Background()
	e, orc := newTestEngine(t, testConfig(), nil)
	orc.Set(testAsset, oracle.Price{Value: dec("10"), Timestamp: testNow})
	fund(t, e, "bob", testToken, "1000")
	fund(t, e, "alice", testAsset, "50")

	buyID, err := e.CreateOrder(ctx, "bob", testAsset, testToken, dec("50"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	trades, err := e.MarketOrder(ctx, "alice", testAsset, testToken, dec("50"), model.OrderSideSell, 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, buyID, trades[0].BuyOrderID)
	assert.Equal(t, int64(0), trades[0].SellOrderID)
	assert.Equal(t, "alice", trades[0].Seller)

	v := e.Vault()
	assertDec(t, "499.5", v.Balance("alice", testToken)) // 500 - 10 bps maker fee
	assertDec(t, "0", v.Balance("alice", testAsset))
	assertDec(t, "50", v.Balance("bob", testAsset))
	assertDec(t, "0", v.Escrowed("bob", testToken))
	assertDec(t, "1.5", v.Balance("treasury", testToken))
}

func TestMarketOrderSlippageBound(t *testing.T) {
	ctx := context.Background()
	e, orc := newTestEngine(t, testConfig(), nil)
	orc.Set(testAsset, oracle.Price{Value: dec("10"), Timestamp: testNow})
	fund(t, e, "alice", testAsset, "50")
	fund(t, e, "carol", testAsset, "50")
	fund(t, e, "bob", testToken, "10000")

	_, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("50"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	carolID, err := e.CreateOrder(ctx, "carol", testAsset, testToken, dec("50"), dec("12"), model.OrderSideSell, expiry())
	require.NoError(t, err)

	// 100 bps around 10 admits [9.9, 10.1]; the 12 level cannot be used
	_, err = e.MarketOrder(ctx, "bob", testAsset, testToken, dec("60"), model.OrderSideBuy, 100)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	trades, err := e.MarketOrder(ctx, "bob", testAsset, testToken, dec("50"), model.OrderSideBuy, 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assertDec(t, "10", trades[0].Price)

	carol, err := e.Order(carolID)
	require.NoError(t, err)
	assertDec(t, "50", carol.Remaining())

	// requested slippage above the configured ceiling
	_, err = e.MarketOrder(ctx, "bob", testAsset, testToken, dec("1"), model.OrderSideBuy, 600)
	assert.ErrorIs(t, err, riskguard.ErrSlippageTooHigh)
}

func TestEmergencyStop(t *testing.T) {
	ctx := context.Background()
	e, orc := newTestEngine(t, testConfig(), nil)
	orc.Set(testAsset, oracle.Price{Value: dec("10"), Timestamp: testNow})
	fund(t, e, "alice", testAsset, "100")
	fund(t, e, "bob", testToken, "1000")

	e.ActivateEmergencyStop(ctx)
	assert.True(t, e.Risk().Halted())

	_, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideSell, expiry())
	assert.ErrorIs(t, err, riskguard.ErrEmergencyStopped)
	_, err = e.MarketOrder(ctx, "bob", testAsset, testToken, dec("10"), model.OrderSideBuy, 100)
	assert.ErrorIs(t, err, riskguard.ErrEmergencyStopped)
	_, err = e.CreateAuction(ctx, "alice", testAsset, testToken, dec("10"), dec("100"), dec("80"), 24*time.Hour)
	assert.ErrorIs(t, err, riskguard.ErrEmergencyStopped)

	e.DeactivateEmergencyStop(ctx)
	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideSell, expiry())
	assert.NoError(t, err)

	var stops int
	for _, ev := range e.Events().Events() {
		if ev.Kind == model.EventEmergencyStop {
			stops++
		}
	}
	assert.Equal(t, 2, stops)
}

func TestActiveOrderCap(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	e.UpdateTradingLimits(2, 500)
	fund(t, e, "alice", testAsset, "300")

	first, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("11"), model.OrderSideSell, expiry())
	require.NoError(t, err)

	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("12"), model.OrderSideSell, expiry())
	assert.ErrorIs(t, err, riskguard.ErrTooManyActiveOrders)

	require.NoError(t, e.CancelOrder(ctx, "alice", first))
	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("12"), model.OrderSideSell, expiry())
	assert.NoError(t, err)
	assert.Equal(t, 2, e.Risk().ActiveOrders("alice"))
}

func TestExpiredMakerEvictedAndRefunded(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "alice", testAsset, "100")
	fund(t, e, "bob", testToken, "1000")

	sellID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("10"), model.OrderSideSell, testNow.Add(time.Hour))
	require.NoError(t, err)

	later := testNow.Add(2 * time.Hour)
	e.SetClock(func() time.Time { return later })

	buyID, err := e.CreateOrder(ctx, "bob", testAsset, testToken, dec("10"), dec("10"), model.OrderSideBuy, later.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = e.Trade(1)
	assert.Error(t, err, "expired maker must not fill")

	sell, err := e.Order(sellID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, sell.Status)
	assertDec(t, "100", e.Vault().Balance("alice", testAsset))

	buy, err := e.Order(buyID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusActive, buy.Status)

	var expired int
	for _, ev := range e.Events().Events() {
		if ev.Kind == model.EventOrderExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
}

func TestFeeChangeNotRetroactiveOnReserve(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "bob", testToken, "2000")
	fund(t, e, "alice", testAsset, "100")

	_, err := e.CreateOrder(ctx, "bob", testAsset, testToken, dec("100"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	// taker rate jumps to 100 bps after bob reserved at 20 bps
	require.NoError(t, e.UpdateFees(10, 100, 50))

	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("100"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)

	trade, err := e.Trade(1)
	require.NoError(t, err)
	assertDec(t, "2", trade.BuyerFee) // capped at the reserve, not 10
	assertDec(t, "1", trade.SellerFee)
}

func TestUpdateFeesBounds(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(), nil)
	assert.ErrorIs(t, e.UpdateFees(1001, 20, 50), ErrFeeOutOfRange)
	assert.ErrorIs(t, e.UpdateFees(10, -1, 50), ErrFeeOutOfRange)
	assert.NoError(t, e.UpdateFees(1000, 1000, 1000))
}

func TestSelfTradeSkipPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.SelfTradePolicy = orderbook.SelfTradeSkip
	e, _ := newTestEngine(t, cfg, nil)
	fund(t, e, "alice", testAsset, "10")
	fund(t, e, "alice", testToken, "200")

	sellID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	buyID, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	_, err = e.Trade(1)
	assert.Error(t, err, "own orders must not cross under skip policy")

	sell, _ := e.Order(sellID)
	buy, _ := e.Order(buyID)
	assert.Equal(t, model.OrderStatusActive, sell.Status)
	assert.Equal(t, model.OrderStatusActive, buy.Status)
}

type reentrantRewards struct {
	engine *Engine
	errs   []error
}

func (r *reentrantRewards) DistributeActivityReward(ctx context.Context, user string, _ ActivityType, _ decimal.Decimal) error {
	_, err := r.engine.CreateOrder(ctx, user, testAsset, testToken, dec("1"), dec("1"), model.OrderSideBuy, expiry())
	r.errs = append(r.errs, err)
	return nil
}

func TestReentrantCallbackFailsFast(t *testing.T) {
	ctx := context.Background()
	rewards := &reentrantRewards{}
	e, _ := newTestEngine(t, testConfig(), rewards)
	rewards.engine = e
	fund(t, e, "alice", testAsset, "10")
	fund(t, e, "bob", testToken, "1000")

	_, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("10"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	// the trade settled despite the callback trying to come back in
	_, err = e.Trade(1)
	require.NoError(t, err)

	require.Len(t, rewards.errs, 2) // buyer and seller reward legs
	for _, cbErr := range rewards.errs {
		assert.ErrorIs(t, cbErr, ErrReentrantCall)
	}
}

func TestDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "alice", testAsset, "100")

	require.NoError(t, e.Withdraw("alice", testAsset, dec("40")))
	assertDec(t, "60", e.Vault().Balance("alice", testAsset))

	err := e.Withdraw("alice", testAsset, dec("100"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// escrowed collateral is out of reach until the order closes
	_, err = e.CreateOrder(ctx, "alice", testAsset, testToken, dec("60"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	err = e.Withdraw("alice", testAsset, dec("1"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestEventFeed(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(), nil)
	fund(t, e, "alice", testAsset, "10")
	fund(t, e, "bob", testToken, "1000")

	feed := e.Events().Subscribe(16)

	_, err := e.CreateOrder(ctx, "alice", testAsset, testToken, dec("10"), dec("10"), model.OrderSideSell, expiry())
	require.NoError(t, err)
	_, err = e.CreateOrder(ctx, "bob", testAsset, testToken, dec("10"), dec("10"), model.OrderSideBuy, expiry())
	require.NoError(t, err)

	want := []model.EventKind{model.EventOrderCreated, model.EventOrderCreated, model.EventTradeExecuted}
	for i, kind := range want {
		select {
		case ev := <-feed:
			assert.Equal(t, kind, ev.Kind, "event %d", i)
			assert.NotEmpty(t, ev.EventID)
		default:
			t.Fatalf("missing event %d (%s)", i, kind)
		}
	}
}
