// Package model price model
package model

import "time"

// Price latest known quote for a trading pair. Synthetic is set when the
// external source was unreachable and the value comes from the fallback walk.
type Price struct {
	Pair      string    `json:"pair"`
	Value     float64   `json:"value"`
	Synthetic bool      `json:"synthetic"`
	Updated   time.Time `json:"updated"`
}
