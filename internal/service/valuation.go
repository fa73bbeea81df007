// Package service trading
package service

import (
	"math"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
)

// ComputeUnrealized unrealized P&L of a position at the given price.
// Long profits on rises, short on declines. The automated kind reports
// magnitude only: its real outcome is decided at settlement, so it never
// shows a loss while open. Advisory display data, never the payout source
// for manual settlements.
//
// A zero, NaN or infinite price yields a zero result instead of failing.
func ComputeUnrealized(position *model.Position, price float64) model.PnL {
	if position == nil || position.EntryPrice == 0 ||
		price == 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.PnL{}
	}

	percent := (price - position.EntryPrice) / position.EntryPrice * 100

	if position.Kind == model.KindAutomated {
		percent = math.Abs(percent)
		return model.PnL{
			Amount:  math.Abs(position.PositionSize() * percent / 100),
			Percent: percent,
			ROI:     math.Abs(percent * position.Leverage),
		}
	}

	if position.Kind == model.KindShort {
		percent = -percent
	}
	return model.PnL{
		Amount:  position.PositionSize() * percent / 100,
		Percent: percent,
		ROI:     percent * position.Leverage,
	}
}
