// Package repository position mirror
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
)

// Position postgres mirror of the open-position arena. The arena stays
// authoritative for the running process; rows here only have to survive
// restarts so the scheduler can re-arm timers.
type Position struct {
	runner PgxWithinTransactionRunner
}

// NewPositionRepository creating new Position repository
func NewPositionRepository(ctx context.Context, runner PgxWithinTransactionRunner) (*Position, error) {
	r := &Position{runner: runner}
	_, err := runner.Exec(ctx,
		`create table if not exists positions
		(
			id          bigint primary key,
			kind        text             not null,
			pair        text             not null,
			entry_price double precision not null,
			amount      double precision not null,
			leverage    double precision not null,
			margin      double precision not null,
			opened_at   timestamptz      not null,
			expires_at  timestamptz      not null,
			duration_ms bigint           not null
		);`)
	if err != nil {
		return nil, fmt.Errorf("position - NewPositionRepository - Exec: %w", err)
	}
	return r, nil
}

// CreatePosition mirror a freshly opened position
func (r *Position) CreatePosition(ctx context.Context, position *model.Position) error {
	_, err := r.runner.Exec(ctx,
		`insert into positions (id, kind, pair, entry_price, amount, leverage, margin, opened_at, expires_at, duration_ms)
			 values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		position.ID, position.Kind, position.Pair, position.EntryPrice, position.Amount,
		position.Leverage, position.Margin, position.OpenedAt, position.ExpiresAt,
		position.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("position - CreatePosition - Exec: %w", err)
	}

	return nil
}

// ListOpen all mirrored positions ordered by id, used at startup to restore
// the arena and re-arm expiry timers
func (r *Position) ListOpen(ctx context.Context) ([]*model.Position, error) {
	rows, err := r.runner.Query(ctx,
		`select id, kind, pair, entry_price, amount, leverage, margin, opened_at, expires_at, duration_ms
			 from positions order by id;`)
	if err != nil {
		return nil, fmt.Errorf("position - ListOpen - Query: %w", err)
	}
	defer rows.Close()

	var positions []*model.Position
	for rows.Next() {
		pos := model.Position{}
		var durationMs int64
		err = rows.Scan(&pos.ID, &pos.Kind, &pos.Pair, &pos.EntryPrice, &pos.Amount,
			&pos.Leverage, &pos.Margin, &pos.OpenedAt, &pos.ExpiresAt, &durationMs)
		if err != nil {
			return nil, fmt.Errorf("position - ListOpen - Scan: %w", err)
		}
		pos.Duration = time.Duration(durationMs) * time.Millisecond
		positions = append(positions, &pos)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("position - ListOpen - Rows: %w", err)
	}

	return positions, nil
}

// DeletePosition drop the mirror row of a settled position. Runs inside the
// settlement transaction when a history entry is written alongside.
func (r *Position) DeletePosition(ctx context.Context, id int64) error {
	var idCheck int64
	err := r.runner.QueryRow(ctx, "delete from positions where id=$1 returning id", id).Scan(&idCheck)
	if err != nil {
		return fmt.Errorf("position - DeletePosition - QueryRow: %w", err)
	}

	return nil
}
