// Package repository open positions arena
package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
)

// openRecord a live position together with the handle of its expiry timer.
// The record owns the handle: removing the record stops the timer, so a
// cancelled position can never produce a stale settlement call.
type openRecord struct {
	position *model.Position
	timer    *time.Timer
}

// OpenPositions in-memory ordered arena of open positions indexed by id.
// Authoritative for the running process; the postgres mirror only exists to
// survive restarts. The single-open-position invariant is enforced at
// creation by the trading service, not here.
type OpenPositions struct {
	mu      sync.RWMutex
	records map[int64]*openRecord
	order   []int64
}

// NewOpenPositionsRepository constructor
func NewOpenPositionsRepository() *OpenPositions {
	return &OpenPositions{records: make(map[int64]*openRecord)}
}

// Add append a position to the arena
func (o *OpenPositions) Add(position *model.Position) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.records[position.ID]; ok {
		return fmt.Errorf("openPositions - Add: position with this id already exists")
	}
	o.records[position.ID] = &openRecord{position: position}
	o.order = append(o.order, position.ID)
	return nil
}

// Arm attach the expiry timer handle to a position. A position holds at most
// one handle for its whole life.
func (o *OpenPositions) Arm(id int64, timer *time.Timer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	record, ok := o.records[id]
	if !ok {
		timer.Stop()
		return model.ErrPositionNotFound
	}
	if record.timer != nil {
		timer.Stop()
		return fmt.Errorf("openPositions - Arm: position already has a pending timer")
	}
	record.timer = timer
	return nil
}

// Get position by id
func (o *OpenPositions) Get(id int64) (*model.Position, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	record, ok := o.records[id]
	if !ok {
		return nil, false
	}
	return record.position, true
}

// Remove drop a position and its timer handle. Returns false when the id is
// unknown, which is how settlement stays a no-op the second time around.
func (o *OpenPositions) Remove(id int64) (*model.Position, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	record, ok := o.records[id]
	if !ok {
		return nil, false
	}
	if record.timer != nil {
		record.timer.Stop()
	}
	delete(o.records, id)
	for i, oid := range o.order {
		if oid == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return record.position, true
}

// List open positions in opening order
func (o *OpenPositions) List() []*model.Position {
	o.mu.RLock()
	defer o.mu.RUnlock()
	positions := make([]*model.Position, 0, len(o.order))
	for _, id := range o.order {
		positions = append(positions, o.records[id].position)
	}
	return positions
}

// Len number of open positions
func (o *OpenPositions) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.records)
}

// ArmedTimers number of positions holding a live timer handle. Diagnostic
// accessor: the scheduler never reads it, it exists so tests can observe
// the one-timer-per-position invariant from the outside.
func (o *OpenPositions) ArmedTimers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var armed int
	for _, record := range o.records {
		if record.timer != nil {
			armed++
		}
	}
	return armed
}
