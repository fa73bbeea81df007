// Package repository remote user service
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
)

// UserService client of the remote balance/profile service. Responses are
// advisory: callers keep the local balance authoritative and swallow
// ErrRemoteSyncFailed after logging it.
type UserService struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewUserServiceRepository user service repository constructor
func NewUserServiceRepository(baseURL, token string) *UserService {
	return &UserService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type updateBalanceRequest struct {
	AmountChange float64 `json:"amount_change"`
}

type historyRequest struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Profit float64 `json:"profit"`
	ROI    float64 `json:"roi"`
}

// GetBalance fetch the remote balance
func (u *UserService) GetBalance(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/get_balance", nil)
	if err != nil {
		return 0, fmt.Errorf("userService - GetBalance - NewRequest: %w", err)
	}
	var response balanceResponse
	if err = u.do(req, &response); err != nil {
		return 0, fmt.Errorf("userService - GetBalance - do: %w", err)
	}
	return response.Balance, nil
}

// UpdateBalance push an amount change, returning the balance the remote
// service now holds
func (u *UserService) UpdateBalance(ctx context.Context, amountChange float64) (float64, error) {
	body, err := json.Marshal(updateBalanceRequest{AmountChange: amountChange})
	if err != nil {
		return 0, fmt.Errorf("userService - UpdateBalance - Marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/update_balance", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("userService - UpdateBalance - NewRequest: %w", err)
	}
	var response balanceResponse
	if err = u.do(req, &response); err != nil {
		return 0, fmt.Errorf("userService - UpdateBalance - do: %w", err)
	}
	return response.Balance, nil
}

// SavePositionHistory push a settlement outcome to the remote ledger
func (u *UserService) SavePositionHistory(ctx context.Context, entry *model.HistoryEntry) error {
	body, err := json.Marshal(historyRequest{
		Type:   string(entry.Kind),
		Amount: entry.Amount,
		Profit: entry.Profit,
		ROI:    entry.ROI,
	})
	if err != nil {
		return fmt.Errorf("userService - SavePositionHistory - Marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/save_position_history", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("userService - SavePositionHistory - NewRequest: %w", err)
	}
	if err = u.do(req, nil); err != nil {
		return fmt.Errorf("userService - SavePositionHistory - do: %w", err)
	}
	return nil
}

func (u *UserService) do(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteSyncFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return model.ErrAuthExpired
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", model.ErrRemoteSyncFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteSyncFailed, err)
	}
	return nil
}
