package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is the rolling read-mostly trade summary for one asset. The
// 24h window resets whole: when the last trade is older than a day the next
// trade starts a fresh window rather than pruning trade by trade.
type MarketData struct {
	Asset         string `gorm:"primaryKey"`
	LastPrice     decimal.Decimal
	Volume24h     decimal.Decimal
	High24h       decimal.Decimal
	Low24h        decimal.Decimal
	TotalTrades   int64
	LastTradeTime time.Time
}

func (m *MarketData) TableName() string { return "market_data" }

const marketDataWindow = 24 * time.Hour

// RecordTrade folds one trade into the summary.
func (m *MarketData) RecordTrade(price, amount decimal.Decimal, at time.Time) {
	if m.LastTradeTime.IsZero() || at.Sub(m.LastTradeTime) > marketDataWindow {
		m.Volume24h = decimal.Zero
		m.High24h = price
		m.Low24h = price
	}
	m.LastPrice = price
	m.Volume24h = m.Volume24h.Add(amount)
	if price.GreaterThan(m.High24h) {
		m.High24h = price
	}
	if price.LessThan(m.Low24h) {
		m.Low24h = price
	}
	m.TotalTrades++
	m.LastTradeTime = at
}
