// Package handler trading
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TradingService trading service
//
//go:generate mockery --name=TradingService --case=underscore --output=./mocks
type TradingService interface {
	OpenPosition(ctx context.Context, kind model.Kind, pair string, amount, leverage float64, duration time.Duration) (*model.Position, error)
	OpenAutomatedPosition(ctx context.Context, pair string) (*model.Position, error)
	Positions() []*service.OpenPosition
	Balance() float64
	History(ctx context.Context) ([]*model.HistoryEntry, error)
	CurrentPrice(pair string) *model.Price
	SelectedPair() string
	SelectPair(pair string) error
}

// Trading handler
type Trading struct {
	service TradingService
}

// NewTrading constructor
func NewTrading(s TradingService) *Trading {
	return &Trading{service: s}
}

// Register mounts the trading routes
func (t *Trading) Register(router gin.IRouter) {
	api := router.Group("/api/trading")
	api.POST("/positions", t.OpenPosition)
	api.POST("/positions/automated", t.OpenAutomatedPosition)
	api.GET("/positions", t.GetPositions)
	api.GET("/balance", t.GetBalance)
	api.GET("/history", t.GetHistory)
	api.GET("/price", t.GetPrice)
	api.POST("/pair", t.SelectPair)
}

type openPositionRequest struct {
	Kind            string  `json:"kind" binding:"required"`
	Pair            string  `json:"pair"`
	Amount          float64 `json:"amount" binding:"required"`
	Leverage        float64 `json:"leverage"`
	DurationSeconds int64   `json:"durationSeconds" binding:"required"`
}

// OpenPosition open new manual position
func (t *Trading) OpenPosition(c *gin.Context) {
	var request openPositionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	position, err := t.service.OpenPosition(c.Request.Context(), model.Kind(request.Kind), request.Pair,
		request.Amount, request.Leverage, time.Duration(request.DurationSeconds)*time.Second)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"Kind":   request.Kind,
			"Pair":   request.Pair,
			"Amount": request.Amount,
		}).Errorf("trading - OpenPosition - OpenPosition: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, position)
}

type automatedPositionRequest struct {
	Pair string `json:"pair"`
}

// OpenAutomatedPosition open new automated position
func (t *Trading) OpenAutomatedPosition(c *gin.Context) {
	// body is optional, the selected pair is used when omitted
	var request automatedPositionRequest
	_ = c.ShouldBindJSON(&request)

	position, err := t.service.OpenAutomatedPosition(c.Request.Context(), request.Pair)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"Pair": request.Pair,
		}).Errorf("trading - OpenAutomatedPosition - OpenAutomatedPosition: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, position)
}

// GetPositions open positions with valuation and countdown
func (t *Trading) GetPositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": t.service.Positions()})
}

// GetBalance displayed balance
func (t *Trading) GetBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": t.service.Balance()})
}

// GetHistory settled position history
func (t *Trading) GetHistory(c *gin.Context) {
	entries, err := t.service.History(c.Request.Context())
	if err != nil {
		logrus.Errorf("trading - GetHistory - History: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// GetPrice latest quote for a pair, the selected pair when omitted
func (t *Trading) GetPrice(c *gin.Context) {
	c.JSON(http.StatusOK, t.service.CurrentPrice(c.Query("pair")))
}

type selectPairRequest struct {
	Pair string `json:"pair" binding:"required"`
}

// SelectPair switch the selected trading pair
func (t *Trading) SelectPair(c *gin.Context) {
	var request selectPairRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := t.service.SelectPair(request.Pair); err != nil {
		logrus.WithFields(logrus.Fields{
			"Pair": request.Pair,
		}).Errorf("trading - SelectPair - SelectPair: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": t.service.SelectedPair()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, model.ErrAuthExpired):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrPositionLimit),
		errors.Is(err, model.ErrPairLocked),
		errors.Is(err, model.ErrTradeLimitReached):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrBelowMinimum),
		errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrDurationTooShort):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
