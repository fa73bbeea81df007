package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"

	"github.com/stretchr/testify/require"
)

func TestStatusFromError(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, statusFromError(model.ErrAuthExpired))
	require.Equal(t, http.StatusNotFound, statusFromError(model.ErrPositionNotFound))

	require.Equal(t, http.StatusConflict, statusFromError(model.ErrPositionLimit))
	require.Equal(t, http.StatusConflict, statusFromError(model.ErrPairLocked))
	require.Equal(t, http.StatusConflict, statusFromError(model.ErrTradeLimitReached))

	require.Equal(t, http.StatusUnprocessableEntity, statusFromError(model.ErrBelowMinimum))
	require.Equal(t, http.StatusUnprocessableEntity, statusFromError(model.ErrInsufficientFunds))
	require.Equal(t, http.StatusUnprocessableEntity, statusFromError(model.ErrDurationTooShort))

	// invalid input stays a client error even when wrapped
	require.Equal(t, http.StatusUnprocessableEntity,
		statusFromError(fmt.Errorf("%w: %q", model.ErrUnknownKind, "margin")))

	require.Equal(t, http.StatusInternalServerError, statusFromError(errors.New("connection reset")))
}
