// Package model history model
package model

import "time"

// HistoryEntry immutable record of a settled position. Written once by the
// settlement engine; liquidations are never recorded.
type HistoryEntry struct {
	ID         string    `json:"id"`
	PositionID int64     `json:"positionId"`
	Kind       Kind      `json:"kind"`
	Pair       string    `json:"pair"`
	Amount     float64   `json:"amount"`
	Profit     float64   `json:"profit"`
	ROI        float64   `json:"roi"`
	EntryPrice float64   `json:"entryPrice"`
	ExitPrice  float64   `json:"exitPrice"`
	OpenedAt   time.Time `json:"openedAt"`
	ClosedAt   time.Time `json:"closedAt"`
}
