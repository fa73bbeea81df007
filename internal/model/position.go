// Package model position model
package model

import "time"

// Kind position direction
type Kind string

// Position kinds
const (
	KindLong      Kind = "long"
	KindShort     Kind = "short"
	KindAutomated Kind = "automated"
)

// Position model. ID is derived from the opening instant (unix milliseconds),
// unique and monotonically increasing within a session. A position is
// immutable once opened; settlement removes it from the open set instead of
// flagging it closed.
type Position struct {
	ID         int64         `json:"id"`
	Kind       Kind          `json:"kind"`
	Pair       string        `json:"pair"`
	EntryPrice float64       `json:"entryPrice"`
	Amount     float64       `json:"amount"`
	Leverage   float64       `json:"leverage"`
	Margin     float64       `json:"margin"`
	OpenedAt   time.Time     `json:"openedAt"`
	ExpiresAt  time.Time     `json:"expiresAt"`
	Duration   time.Duration `json:"duration"`
	ExitPrice  *float64      `json:"exitPrice,omitempty"`
}

// PositionSize margin multiplied by leverage
func (p *Position) PositionSize() float64 {
	return p.Margin * p.Leverage
}

// Remaining time until expiry, zero when already expired
func (p *Position) Remaining(now time.Time) time.Duration {
	r := p.ExpiresAt.Sub(now)
	if r < 0 {
		return 0
	}
	return r
}

// PnL unrealized profit and loss of a position
type PnL struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
	ROI     float64 `json:"roi"`
}
