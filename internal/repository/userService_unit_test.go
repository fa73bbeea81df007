package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"

	"github.com/stretchr/testify/require"
)

func TestUserService_GetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get_balance", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"balance": 1500.5}`))
	}))
	defer server.Close()

	us := NewUserServiceRepository(server.URL, "test-token")
	balance, err := us.GetBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1500.5, balance)
}

func TestUserService_UpdateBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/update_balance", r.URL.Path)
		var body struct {
			AmountChange float64 `json:"amount_change"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, -50.0, body.AmountChange)
		w.Write([]byte(`{"balance": 50}`))
	}))
	defer server.Close()

	us := NewUserServiceRepository(server.URL, "")
	balance, err := us.UpdateBalance(context.Background(), -50)
	require.NoError(t, err)
	require.Equal(t, 50.0, balance)
}

func TestUserService_SavePositionHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/save_position_history", r.URL.Path)
		var body struct {
			Type   string  `json:"type"`
			Amount float64 `json:"amount"`
			Profit float64 `json:"profit"`
			ROI    float64 `json:"roi"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "long", body.Type)
		require.Equal(t, 40.0, body.Profit)
		require.Equal(t, 80.0, body.ROI)
	}))
	defer server.Close()

	us := NewUserServiceRepository(server.URL, "")
	err := us.SavePositionHistory(context.Background(), &model.HistoryEntry{
		Kind:     model.KindLong,
		Amount:   50,
		Profit:   40,
		ROI:      80,
		ClosedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestUserService_AuthExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	us := NewUserServiceRepository(server.URL, "stale")
	_, err := us.GetBalance(context.Background())
	require.ErrorIs(t, err, model.ErrAuthExpired)

	_, err = us.UpdateBalance(context.Background(), 10)
	require.ErrorIs(t, err, model.ErrAuthExpired)
}

func TestUserService_RemoteSyncFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	us := NewUserServiceRepository(server.URL, "")
	_, err := us.UpdateBalance(context.Background(), 10)
	require.ErrorIs(t, err, model.ErrRemoteSyncFailed)

	// unreachable host counts too
	down := NewUserServiceRepository("http://127.0.0.1:1", "")
	_, err = down.GetBalance(context.Background())
	require.ErrorIs(t, err, model.ErrRemoteSyncFailed)
}
