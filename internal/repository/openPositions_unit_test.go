package repository

import (
	"testing"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"

	"github.com/stretchr/testify/require"
)

func openTestPosition(id int64) *model.Position {
	now := time.Now()
	return &model.Position{
		ID:         id,
		Kind:       model.KindLong,
		Pair:       "BTCUSDT",
		EntryPrice: 100,
		Amount:     50,
		Margin:     50,
		Leverage:   1,
		OpenedAt:   now,
		ExpiresAt:  now.Add(time.Hour),
		Duration:   time.Hour,
	}
}

func TestOpenPositions_AddGetRemove(t *testing.T) {
	arena := NewOpenPositionsRepository()

	position := openTestPosition(1)
	require.NoError(t, arena.Add(position))
	require.Error(t, arena.Add(position))
	require.Equal(t, 1, arena.Len())

	got, ok := arena.Get(1)
	require.True(t, ok)
	require.Equal(t, position, got)

	removed, ok := arena.Remove(1)
	require.True(t, ok)
	require.Equal(t, position, removed)
	require.Zero(t, arena.Len())

	_, ok = arena.Remove(1)
	require.False(t, ok)
	_, ok = arena.Get(1)
	require.False(t, ok)
}

func TestOpenPositions_ListKeepsOpeningOrder(t *testing.T) {
	arena := NewOpenPositionsRepository()
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, arena.Add(openTestPosition(id)))
	}

	list := arena.List()
	require.Len(t, list, 3)
	require.Equal(t, int64(3), list[0].ID)
	require.Equal(t, int64(1), list[1].ID)
	require.Equal(t, int64(2), list[2].ID)

	arena.Remove(1)
	list = arena.List()
	require.Len(t, list, 2)
	require.Equal(t, int64(3), list[0].ID)
	require.Equal(t, int64(2), list[1].ID)
}

func TestOpenPositions_ArmOneTimerPerPosition(t *testing.T) {
	arena := NewOpenPositionsRepository()
	require.NoError(t, arena.Add(openTestPosition(1)))

	fired := make(chan struct{}, 2)
	first := time.AfterFunc(time.Hour, func() { fired <- struct{}{} })
	require.NoError(t, arena.Arm(1, first))
	require.Equal(t, 1, arena.ArmedTimers())

	// a second handle for the same id is rejected and stopped
	second := time.AfterFunc(time.Hour, func() { fired <- struct{}{} })
	require.Error(t, arena.Arm(1, second))
	require.Equal(t, 1, arena.ArmedTimers())

	require.ErrorIs(t, arena.Arm(2, time.AfterFunc(time.Hour, func() {})), model.ErrPositionNotFound)

	// removing the record drops the handle: the timer must never fire
	_, ok := arena.Remove(1)
	require.True(t, ok)
	require.False(t, first.Stop())

	select {
	case <-fired:
		t.Fatal("stale timer fired after removal")
	case <-time.After(50 * time.Millisecond):
	}
}
