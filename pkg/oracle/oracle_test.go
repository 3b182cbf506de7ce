package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticGetPrice(t *testing.T) {
	s := NewStatic()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.Set("GOLD-1", Price{Value: decimal.NewFromInt(10), Timestamp: now})

	p, err := s.GetPrice(context.Background(), "GOLD-1")
	require.NoError(t, err)
	assert.True(t, p.Value.Equal(decimal.NewFromInt(10)))

	_, err = s.GetPrice(context.Background(), "SILVER-1")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}
