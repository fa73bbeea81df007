package service

import (
	"math"
	"testing"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"

	"github.com/stretchr/testify/require"
)

func testPosition(kind model.Kind, entry, margin, leverage float64) *model.Position {
	return &model.Position{
		ID:         time.Now().UnixMilli(),
		Kind:       kind,
		Pair:       "BTCUSDT",
		EntryPrice: entry,
		Amount:     margin,
		Margin:     margin,
		Leverage:   leverage,
	}
}

func TestComputeUnrealized_EntryPriceIsZeroPnL(t *testing.T) {
	for _, kind := range []model.Kind{model.KindLong, model.KindShort, model.KindAutomated} {
		pnl := ComputeUnrealized(testPosition(kind, 100, 50, 1), 100)
		require.Zero(t, pnl.Amount)
		require.Zero(t, pnl.Percent)
		require.Zero(t, pnl.ROI)
	}
}

func TestComputeUnrealized_LongShort(t *testing.T) {
	long := testPosition(model.KindLong, 100, 50, 1)
	short := testPosition(model.KindShort, 100, 50, 1)

	up := ComputeUnrealized(long, 110)
	require.InDelta(t, 5.0, up.Amount, 1e-9)
	require.InDelta(t, 10.0, up.Percent, 1e-9)
	require.InDelta(t, 10.0, up.ROI, 1e-9)

	down := ComputeUnrealized(long, 90)
	require.InDelta(t, -5.0, down.Amount, 1e-9)

	require.InDelta(t, -5.0, ComputeUnrealized(short, 110).Amount, 1e-9)
	require.InDelta(t, 5.0, ComputeUnrealized(short, 90).Amount, 1e-9)
}

func TestComputeUnrealized_Monotonic(t *testing.T) {
	long := testPosition(model.KindLong, 100, 50, 2)
	short := testPosition(model.KindShort, 100, 50, 2)

	prevLong := math.Inf(-1)
	prevShort := math.Inf(1)
	for price := 50.0; price <= 150; price += 10 {
		l := ComputeUnrealized(long, price).Amount
		s := ComputeUnrealized(short, price).Amount
		require.Greater(t, l, prevLong)
		require.Less(t, s, prevShort)
		prevLong, prevShort = l, s
	}
}

func TestComputeUnrealized_LeverageScalesROI(t *testing.T) {
	pos := testPosition(model.KindLong, 100, 50, 5)
	pnl := ComputeUnrealized(pos, 110)
	require.InDelta(t, 10.0, pnl.Percent, 1e-9)
	require.InDelta(t, 50.0, pnl.ROI, 1e-9)
	// position size is margin*leverage, so the amount scales too
	require.InDelta(t, 25.0, pnl.Amount, 1e-9)
}

func TestComputeUnrealized_AutomatedNeverNegative(t *testing.T) {
	pos := testPosition(model.KindAutomated, 100, 1000, 1)
	for _, price := range []float64{50, 90, 100, 110, 200} {
		pnl := ComputeUnrealized(pos, price)
		require.GreaterOrEqual(t, pnl.Amount, 0.0)
		require.GreaterOrEqual(t, pnl.Percent, 0.0)
		require.GreaterOrEqual(t, pnl.ROI, 0.0)
	}
	require.InDelta(t, 100.0, ComputeUnrealized(pos, 90).Amount, 1e-9)
}

func TestComputeUnrealized_BadPrice(t *testing.T) {
	pos := testPosition(model.KindLong, 100, 50, 1)
	for _, price := range []float64{0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		pnl := ComputeUnrealized(pos, price)
		require.False(t, math.IsNaN(pnl.Amount))
		require.Zero(t, pnl.Amount)
		require.Zero(t, pnl.Percent)
		require.Zero(t, pnl.ROI)
	}
	require.Zero(t, ComputeUnrealized(nil, 100).Amount)
	require.Zero(t, ComputeUnrealized(testPosition(model.KindLong, 0, 50, 1), 100).Amount)
}
