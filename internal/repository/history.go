// Package repository history ledger
package repository

import (
	"context"
	"fmt"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/model"
)

// History append-only ledger of settled positions. Entries are written once
// by the settlement engine and never updated; liquidations never reach it.
type History struct {
	runner PgxWithinTransactionRunner
}

// NewHistoryRepository creating new History repository
func NewHistoryRepository(ctx context.Context, runner PgxWithinTransactionRunner) (*History, error) {
	r := &History{runner: runner}
	_, err := runner.Exec(ctx,
		`create table if not exists position_history
		(
			id          uuid primary key,
			position_id bigint           not null,
			kind        text             not null,
			pair        text             not null,
			amount      double precision not null,
			profit      double precision not null,
			roi         double precision not null,
			entry_price double precision not null,
			exit_price  double precision not null,
			opened_at   timestamptz      not null,
			closed_at   timestamptz      not null
		);`)
	if err != nil {
		return nil, fmt.Errorf("history - NewHistoryRepository - Exec: %w", err)
	}
	return r, nil
}

// CreateEntry append a settlement outcome
func (r *History) CreateEntry(ctx context.Context, entry *model.HistoryEntry) error {
	_, err := r.runner.Exec(ctx,
		`insert into position_history (id, position_id, kind, pair, amount, profit, roi, entry_price, exit_price, opened_at, closed_at)
			 values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		entry.ID, entry.PositionID, entry.Kind, entry.Pair, entry.Amount, entry.Profit,
		entry.ROI, entry.EntryPrice, entry.ExitPrice, entry.OpenedAt, entry.ClosedAt)
	if err != nil {
		return fmt.Errorf("history - CreateEntry - Exec: %w", err)
	}

	return nil
}

// ListEntries settled positions, newest first
func (r *History) ListEntries(ctx context.Context) ([]*model.HistoryEntry, error) {
	rows, err := r.runner.Query(ctx,
		`select id, position_id, kind, pair, amount, profit, roi, entry_price, exit_price, opened_at, closed_at
			 from position_history order by closed_at desc;`)
	if err != nil {
		return nil, fmt.Errorf("history - ListEntries - Query: %w", err)
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		e := model.HistoryEntry{}
		err = rows.Scan(&e.ID, &e.PositionID, &e.Kind, &e.Pair, &e.Amount, &e.Profit,
			&e.ROI, &e.EntryPrice, &e.ExitPrice, &e.OpenedAt, &e.ClosedAt)
		if err != nil {
			return nil, fmt.Errorf("history - ListEntries - Scan: %w", err)
		}
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("history - ListEntries - Rows: %w", err)
	}

	return entries, nil
}
