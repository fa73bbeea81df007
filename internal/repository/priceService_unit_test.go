package repository

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPriceService_FetchesQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"64123.50000000"}`))
	}))
	defer server.Close()

	ps := NewPriceServiceRepository(server.URL, time.Second)
	ps.TrackPair("BTCUSDT")
	ps.refresh(context.Background())

	price := ps.LatestPrice("BTCUSDT")
	require.False(t, price.Synthetic)
	require.Equal(t, 64123.5, price.Value)
}

func TestPriceService_SyntheticFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ps := NewPriceServiceRepository(server.URL, time.Second)
	ps.TrackPair("BTCUSDT")

	// every poll fails: the synthetic walk must keep producing finite quotes
	for i := 0; i < 10; i++ {
		ps.refresh(context.Background())
		price := ps.LatestPrice("BTCUSDT")
		require.True(t, price.Synthetic)
		require.False(t, math.IsNaN(price.Value))
		require.False(t, math.IsInf(price.Value, 0))
		require.Greater(t, price.Value, 0.0)
		require.LessOrEqual(t, math.Abs(price.Value-syntheticSeed), syntheticStep*float64(i+1))
	}
}

func TestPriceService_BadPayloadFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"price":"not-a-number"}`))
	}))
	defer server.Close()

	ps := NewPriceServiceRepository(server.URL, time.Second)
	ps.TrackPair("BTCUSDT")
	ps.refresh(context.Background())

	require.True(t, ps.LatestPrice("BTCUSDT").Synthetic)
}

func TestPriceService_UntrackedPairGetsSyntheticQuote(t *testing.T) {
	ps := NewPriceServiceRepository("http://127.0.0.1:0", time.Second)

	price := ps.LatestPrice("ETHUSDT")
	require.True(t, price.Synthetic)
	require.Greater(t, price.Value, 0.0)

	// stable until the next poll
	require.Equal(t, price.Value, ps.LatestPrice("ETHUSDT").Value)
}
