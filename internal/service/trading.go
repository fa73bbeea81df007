// Package service trading
package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Trading limits and payout policy. Manual settlements pay fixed odds on the
// margin regardless of the actual price move; the automated variant pays a
// constant and is allowed once per session.
const (
	minDeposit     = 10.0
	minTradeAmount = 10.0
	minDuration    = time.Minute

	automatedMinBalance  = 1000.0
	automatedOrderAmount = 10000.0
	automatedPayout      = 876.0
	automatedDuration    = time.Minute

	winPayoutRatio = 0.8
	winROI         = 80.0

	// reconcileThreshold per-position P&L deltas below this are noise
	reconcileThreshold = 0.001
)

// PositionsMirror durable mirror of the open-position arena
//
//go:generate mockery --name=PositionsMirror --case=underscore --output=./mocks
type PositionsMirror interface {
	CreatePosition(ctx context.Context, position *model.Position) error
	ListOpen(ctx context.Context) ([]*model.Position, error)
	DeletePosition(ctx context.Context, id int64) error
}

// HistoryRepository append-only settlement ledger
//
//go:generate mockery --name=HistoryRepository --case=underscore --output=./mocks
type HistoryRepository interface {
	CreateEntry(ctx context.Context, entry *model.HistoryEntry) error
	ListEntries(ctx context.Context) ([]*model.HistoryEntry, error)
}

// UserService remote balance service
//
//go:generate mockery --name=UserService --case=underscore --output=./mocks
type UserService interface {
	GetBalance(ctx context.Context) (float64, error)
	UpdateBalance(ctx context.Context, amountChange float64) (float64, error)
	SavePositionHistory(ctx context.Context, entry *model.HistoryEntry) error
}

// PriceFeed price feed adapter
//
//go:generate mockery --name=PriceFeed --case=underscore --output=./mocks
type PriceFeed interface {
	TrackPair(pair string)
	LatestPrice(pair string) *model.Price
	Poll(ctx context.Context)
}

// StateCache ephemeral local state mirror
//
//go:generate mockery --name=StateCache --case=underscore --output=./mocks
type StateCache interface {
	Balance(ctx context.Context) (balance float64, found bool, err error)
	SetBalance(ctx context.Context, balance float64) error
	HasTraded(ctx context.Context) (bool, error)
	SetHasTraded(ctx context.Context) error
}

// OpenPosition a live position with its current valuation and countdown
type OpenPosition struct {
	*model.Position
	PnL       model.PnL     `json:"pnl"`
	Remaining time.Duration `json:"remaining"`
}

// Trading position lifecycle engine: creation, expiry scheduling, settlement
// and the balance reconciliation loop. All state mutation funnels through a
// single mutex so a settlement's read-modify-write of the balance can never
// interleave with a reconciler tick, and settlement always observes the
// reconciler's most recent cached valuation.
type Trading struct {
	mu         sync.Mutex
	positions  *repository.OpenPositions
	mirror     PositionsMirror
	history    HistoryRepository
	users      UserService
	priceFeed  PriceFeed
	cache      StateCache
	transactor repository.PgxTransactor

	balance      float64
	hasTraded    bool
	selectedPair string
	lastPnL      map[int64]model.PnL
	lastID       int64

	reconcileInterval time.Duration
}

// NewTrading constructor
func NewTrading(positions *repository.OpenPositions, mirror PositionsMirror, history HistoryRepository,
	users UserService, priceFeed PriceFeed, cache StateCache, transactor repository.PgxTransactor,
	defaultPair string, reconcileInterval time.Duration,
) *Trading {
	return &Trading{
		positions:         positions,
		mirror:            mirror,
		history:           history,
		users:             users,
		priceFeed:         priceFeed,
		cache:             cache,
		transactor:        transactor,
		selectedPair:      defaultPair,
		lastPnL:           make(map[int64]model.PnL),
		reconcileInterval: reconcileInterval,
	}
}

// Hydrate load the displayed balance and the session trade flag: local cache
// first, remote service when nothing was cached yet
func (t *Trading) Hydrate(ctx context.Context) error {
	t.priceFeed.TrackPair(t.selectedPair)

	balance, found, err := t.cache.Balance(ctx)
	if err != nil {
		logrus.Errorf("trading - Hydrate - Balance: %v", err)
	}
	if !found {
		balance, err = t.users.GetBalance(ctx)
		if err != nil {
			return fmt.Errorf("trading - Hydrate - GetBalance: %w", err)
		}
	}

	hasTraded, err := t.cache.HasTraded(ctx)
	if err != nil {
		logrus.Errorf("trading - Hydrate - HasTraded: %v", err)
	}

	t.mu.Lock()
	t.balance = balance
	t.hasTraded = hasTraded
	t.mu.Unlock()
	return nil
}

// Restore re-hydrate persisted open positions and re-arm exactly one expiry
// timer per position; positions whose expiry already passed settle at once
func (t *Trading) Restore(ctx context.Context) error {
	persisted, err := t.mirror.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("trading - Restore - ListOpen: %w", err)
	}

	now := time.Now()
	var expired []int64
	t.mu.Lock()
	for _, pos := range persisted {
		if err = t.positions.Add(pos); err != nil {
			logrus.Errorf("trading - Restore - Add: %v", err)
			continue
		}
		if pos.ID > t.lastID {
			t.lastID = pos.ID
		}
		t.priceFeed.TrackPair(pos.Pair)
		if pos.Remaining(now) > 0 {
			t.arm(pos)
		} else {
			expired = append(expired, pos.ID)
		}
	}
	t.mu.Unlock()

	for _, id := range expired {
		t.settle(ctx, id)
	}
	return nil
}

// Run starts the price poll and the reconciliation loop until ctx is done
func (t *Trading) Run(ctx context.Context) {
	go t.priceFeed.Poll(ctx)
	go func() {
		ticker := time.NewTicker(t.reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.reconcile(ctx)
			}
		}
	}()
}

// OpenPosition open a manual long or short position
func (t *Trading) OpenPosition(ctx context.Context, kind model.Kind, pair string, amount, leverage float64, duration time.Duration) (*model.Position, error) {
	if kind != model.KindLong && kind != model.KindShort {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
	if pair == "" {
		pair = t.SelectedPair()
	}
	if leverage < 1 {
		leverage = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.balance < minDeposit:
		return nil, model.ErrInsufficientFunds
	case amount < minTradeAmount:
		return nil, model.ErrBelowMinimum
	case amount > t.balance:
		return nil, model.ErrInsufficientFunds
	case duration < minDuration:
		return nil, model.ErrDurationTooShort
	case t.positions.Len() >= 1:
		return nil, model.ErrPositionLimit
	}

	return t.openLocked(ctx, kind, pair, amount, amount, leverage, duration)
}

// OpenAutomatedPosition open the automated variant: whole balance as margin,
// fixed notional and a fixed one-minute expiry. Allowed once per session.
func (t *Trading) OpenAutomatedPosition(ctx context.Context, pair string) (*model.Position, error) {
	if pair == "" {
		pair = t.SelectedPair()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.hasTraded:
		return nil, model.ErrTradeLimitReached
	case t.balance < automatedMinBalance:
		return nil, model.ErrInsufficientFunds
	case t.positions.Len() >= 1:
		return nil, model.ErrPositionLimit
	}

	return t.openLocked(ctx, model.KindAutomated, pair, automatedOrderAmount, t.balance, 1, automatedDuration)
}

// openLocked creates the position, mirrors it and arms its expiry timer.
// Callers hold t.mu and have validated the inputs.
func (t *Trading) openLocked(ctx context.Context, kind model.Kind, pair string, amount, margin, leverage float64, duration time.Duration) (*model.Position, error) {
	t.priceFeed.TrackPair(pair)
	price := t.priceFeed.LatestPrice(pair)

	now := time.Now()
	position := &model.Position{
		ID:         t.nextID(now),
		Kind:       kind,
		Pair:       pair,
		EntryPrice: price.Value,
		Amount:     amount,
		Leverage:   leverage,
		Margin:     margin,
		OpenedAt:   now,
		ExpiresAt:  now.Add(duration),
		Duration:   duration,
	}

	if err := t.positions.Add(position); err != nil {
		return nil, fmt.Errorf("trading - openLocked - Add: %w", err)
	}
	if err := t.mirror.CreatePosition(ctx, position); err != nil {
		// mirror failures only cost restart durability
		logrus.Errorf("trading - openLocked - CreatePosition: %v", err)
	}
	t.arm(position)

	logrus.WithFields(logrus.Fields{
		"ID":   position.ID,
		"Kind": position.Kind,
		"Pair": position.Pair,
	}).Info("position opened")
	return position, nil
}

// nextID time-derived id, forced strictly increasing
func (t *Trading) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id
	return id
}

// arm one-shot expiry timer for a position. An already-expired position
// settles on its own goroutine immediately. Callers hold t.mu.
func (t *Trading) arm(position *model.Position) {
	id := position.ID
	delay := position.Remaining(time.Now())
	timer := time.AfterFunc(delay, func() {
		t.settle(context.Background(), id)
	})
	if err := t.positions.Arm(id, timer); err != nil {
		logrus.Errorf("trading - arm - Arm: %v", err)
	}
}

// settle resolves a position once: decide the outcome from the reconciler's
// last cached valuation, mutate the balance, remove the position and persist
// the result. A second call for the same id is a no-op because the position
// is gone from the arena.
func (t *Trading) settle(ctx context.Context, id int64) {
	t.mu.Lock()
	position, ok := t.positions.Get(id)
	if !ok {
		t.mu.Unlock()
		return
	}

	last := t.lastPnL[id]
	price := t.priceFeed.LatestPrice(position.Pair)
	now := time.Now()

	// the arena's struct is shared with in-flight response serialization,
	// settlement works on a private copy
	settled := *position

	var balanceChange float64
	var entry *model.HistoryEntry

	switch {
	case settled.Kind == model.KindAutomated:
		balanceChange = automatedPayout
		exit := price.Value
		settled.ExitPrice = &exit
		entry = t.newEntry(&settled, automatedPayout, automatedPayout/settled.Amount*100, now)
		t.hasTraded = true
	case last.Amount < 0:
		// liquidation forfeits the margin; no exit price, no history entry
		balanceChange = -settled.Margin
		settled.ExitPrice = nil
	default:
		profit := settled.Margin * winPayoutRatio
		balanceChange = profit
		exit := price.Value
		settled.ExitPrice = &exit
		entry = t.newEntry(&settled, profit, winROI, now)
	}

	t.balance += balanceChange
	balance := t.balance
	t.positions.Remove(id)
	delete(t.lastPnL, id)
	hasTraded := t.hasTraded
	t.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"ID":      id,
		"Kind":    settled.Kind,
		"Change":  balanceChange,
		"Balance": balance,
	}).Info("position settled")

	t.persistSettlement(ctx, &settled, entry, balance, hasTraded)
	t.syncSettlement(ctx, balanceChange, entry)
}

func (t *Trading) newEntry(position *model.Position, profit, roi float64, closedAt time.Time) *model.HistoryEntry {
	var exit float64
	if position.ExitPrice != nil {
		exit = *position.ExitPrice
	}
	return &model.HistoryEntry{
		ID:         uuid.NewString(),
		PositionID: position.ID,
		Kind:       position.Kind,
		Pair:       position.Pair,
		Amount:     position.Amount,
		Profit:     profit,
		ROI:        roi,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exit,
		OpenedAt:   position.OpenedAt,
		ClosedAt:   closedAt,
	}
}

// persistSettlement best-effort local persistence: mirror row removal plus
// the history entry in one transaction, balance and trade flag to the cache
func (t *Trading) persistSettlement(ctx context.Context, position *model.Position, entry *model.HistoryEntry, balance float64, hasTraded bool) {
	var err error
	if entry != nil {
		err = t.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			if txErr := t.mirror.DeletePosition(txCtx, position.ID); txErr != nil {
				return txErr
			}
			return t.history.CreateEntry(txCtx, entry)
		})
	} else {
		err = t.mirror.DeletePosition(ctx, position.ID)
	}
	if err != nil {
		logrus.Errorf("trading - persistSettlement - mirror: %v", err)
	}

	if err = t.cache.SetBalance(ctx, balance); err != nil {
		logrus.Errorf("trading - persistSettlement - SetBalance: %v", err)
	}
	if hasTraded {
		if err = t.cache.SetHasTraded(ctx); err != nil {
			logrus.Errorf("trading - persistSettlement - SetHasTraded: %v", err)
		}
	}
}

// syncSettlement one remote balance push and at most one remote history
// write per settlement; failures are logged, local state stays authoritative
func (t *Trading) syncSettlement(ctx context.Context, balanceChange float64, entry *model.HistoryEntry) {
	if _, err := t.users.UpdateBalance(ctx, balanceChange); err != nil {
		logrus.Errorf("trading - syncSettlement - UpdateBalance: %v", err)
	}
	if entry != nil {
		if err := t.users.SavePositionHistory(ctx, entry); err != nil {
			logrus.Errorf("trading - syncSettlement - SavePositionHistory: %v", err)
		}
	}
}

// reconcile one balance reconciliation tick: diff every open position's
// valuation against the previous tick, fold the deltas into one aggregate
// balance update and remember this tick's valuations for settlement to read
func (t *Trading) reconcile(ctx context.Context) {
	t.mu.Lock()
	open := t.positions.List()
	if len(open) == 0 {
		t.mu.Unlock()
		return
	}

	var total float64
	var changed bool
	for _, position := range open {
		price := t.priceFeed.LatestPrice(position.Pair)
		current := ComputeUnrealized(position, price.Value)
		previous := t.lastPnL[position.ID]

		delta := math.Round((current.Amount-previous.Amount)*100) / 100
		if math.Abs(delta) > reconcileThreshold {
			total += delta
			changed = true
		}
		t.lastPnL[position.ID] = current
	}

	if changed {
		t.balance += total
		if err := t.cache.SetBalance(ctx, t.balance); err != nil {
			logrus.Errorf("trading - reconcile - SetBalance: %v", err)
		}
	}
	t.mu.Unlock()

	if changed {
		if _, err := t.users.UpdateBalance(ctx, total); err != nil {
			logrus.Errorf("trading - reconcile - UpdateBalance: %v", err)
		}
	}
}

// Positions open positions with their current valuation and countdown
func (t *Trading) Positions() []*OpenPosition {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	open := t.positions.List()
	result := make([]*OpenPosition, 0, len(open))
	for _, position := range open {
		price := t.priceFeed.LatestPrice(position.Pair)
		result = append(result, &OpenPosition{
			Position:  position,
			PnL:       ComputeUnrealized(position, price.Value),
			Remaining: position.Remaining(now),
		})
	}
	return result
}

// Balance displayed account balance
func (t *Trading) Balance() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// HasTraded whether the automated variant is blocked for this session
func (t *Trading) HasTraded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasTraded
}

// History settled positions, newest first
func (t *Trading) History(ctx context.Context) ([]*model.HistoryEntry, error) {
	entries, err := t.history.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("trading - History - ListEntries: %w", err)
	}
	return entries, nil
}

// CurrentPrice latest quote for a pair, the selected pair when empty
func (t *Trading) CurrentPrice(pair string) *model.Price {
	if pair == "" {
		pair = t.SelectedPair()
	}
	t.priceFeed.TrackPair(pair)
	return t.priceFeed.LatestPrice(pair)
}

// SelectedPair currently selected trading pair
func (t *Trading) SelectedPair() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selectedPair
}

// SelectPair switch the selected pair, rejected while a position is open
func (t *Trading) SelectPair(pair string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.positions.Len() > 0 {
		return model.ErrPairLocked
	}
	t.selectedPair = pair
	t.priceFeed.TrackPair(pair)
	return nil
}
