// Package repository price feed
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"

	"github.com/sirupsen/logrus"
)

// Synthetic fallback parameters: the walk is seeded at the default chart
// price and drifts by at most half a step per poll.
const (
	syntheticSeed = 50000.0
	syntheticStep = 1000.0
)

// PriceService price feed adapter. Polls the external quote source for every
// tracked pair on a fixed interval and keeps the latest quote in memory.
// When the source is unreachable it degrades to a synthetic random walk, so
// LatestPrice always returns a finite value and never blocks.
type PriceService struct {
	client   *http.Client
	baseURL  string
	interval time.Duration

	mu     sync.RWMutex
	prices map[string]*model.Price
	pairs  map[string]struct{}
	rnd    *rand.Rand
}

// NewPriceServiceRepository price service repository constructor
func NewPriceServiceRepository(baseURL string, interval time.Duration) *PriceService {
	return &PriceService{
		client:   &http.Client{Timeout: 5 * time.Second},
		baseURL:  baseURL,
		interval: interval,
		prices:   make(map[string]*model.Price),
		pairs:    make(map[string]struct{}),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// TrackPair start polling quotes for a pair
func (ps *PriceService) TrackPair(pair string) {
	ps.mu.Lock()
	ps.pairs[pair] = struct{}{}
	ps.mu.Unlock()
}

// Poll blocks polling all tracked pairs until the context is done
func (ps *PriceService) Poll(ctx context.Context) {
	ps.refresh(ctx)

	ticker := time.NewTicker(ps.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ps.refresh(ctx)
		}
	}
}

// LatestPrice latest known quote for a pair. A pair that was never fetched
// gets a synthetic quote so valuation always has a finite input.
func (ps *PriceService) LatestPrice(pair string) *model.Price {
	ps.mu.RLock()
	price, ok := ps.prices[pair]
	ps.mu.RUnlock()
	if ok {
		return price
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if price, ok = ps.prices[pair]; ok {
		return price
	}
	price = ps.syntheticLocked(pair)
	ps.prices[pair] = price
	return price
}

func (ps *PriceService) refresh(ctx context.Context) {
	ps.mu.RLock()
	pairs := make([]string, 0, len(ps.pairs))
	for pair := range ps.pairs {
		pairs = append(pairs, pair)
	}
	ps.mu.RUnlock()

	for _, pair := range pairs {
		value, err := ps.fetch(ctx, pair)

		ps.mu.Lock()
		if err != nil {
			logrus.Debugf("priceService - refresh - fetch %s: %v", pair, err)
			ps.prices[pair] = ps.syntheticLocked(pair)
		} else {
			ps.prices[pair] = &model.Price{Pair: pair, Value: value, Updated: time.Now()}
		}
		ps.mu.Unlock()
	}
}

func (ps *PriceService) fetch(ctx context.Context, pair string) (float64, error) {
	quoteURL := fmt.Sprintf("%s/ticker/price?symbol=%s", ps.baseURL, url.QueryEscape(pair))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return 0, fmt.Errorf("priceService - fetch - NewRequest: %w", err)
	}

	resp, err := ps.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", model.ErrFeedUnavailable, resp.StatusCode)
	}

	var payload struct {
		Price string `json:"price"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrFeedUnavailable, err)
	}
	value, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, fmt.Errorf("%w: bad quote %q", model.ErrFeedUnavailable, payload.Price)
	}
	return value, nil
}

// syntheticLocked next step of the fallback walk, continued from the last
// known quote when there is one. Callers hold ps.mu.
func (ps *PriceService) syntheticLocked(pair string) *model.Price {
	last := syntheticSeed
	if prev, ok := ps.prices[pair]; ok {
		last = prev.Value
	}
	value := last + (ps.rnd.Float64()-0.5)*syntheticStep
	if value <= 0 {
		value = syntheticSeed
	}
	return &model.Price{Pair: pair, Value: value, Synthetic: true, Updated: time.Now()}
}
