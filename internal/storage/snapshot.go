package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grus/internal/tree"
)

// Snapshot is a read transaction over the store. It implements tree.Snapshot
// so a rebuild sees one consistent state.
type Snapshot struct {
	ctx context.Context
	tx  *sql.Tx
}

var _ tree.Store = (*Store)(nil)

func (s *Store) Snapshot(ctx context.Context) (tree.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	return &Snapshot{ctx: ctx, tx: tx}, nil
}

func (sn *Snapshot) Close() error {
	err := sn.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (sn *Snapshot) Names() ([]tree.Entry, error) {
	rows, err := sn.tx.QueryContext(sn.ctx, `SELECT id, name FROM nodes ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tree.Entry
	for rows.Next() {
		var e tree.Entry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (sn *Snapshot) DueDate(id uint64) (*time.Time, error) {
	var due sql.NullString
	err := sn.tx.QueryRowContext(sn.ctx, `SELECT due FROM nodes WHERE id = ?;`, id).Scan(&due)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !due.Valid || due.String == "" {
		return nil, nil
	}
	t, err := parseTime(due.String)
	if err != nil {
		return nil, fmt.Errorf("node %d due date: %w", id, err)
	}
	return &t, nil
}

func (sn *Snapshot) FirstSession(id uint64) (*tree.Session, error) {
	var start, end string
	err := sn.tx.QueryRowContext(sn.ctx,
		`SELECT start_at, end_at FROM sessions WHERE node_id = ? ORDER BY start_at, id LIMIT 1;`, id).
		Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st, err := parseTime(start)
	if err != nil {
		return nil, fmt.Errorf("node %d session start: %w", id, err)
	}
	en, err := parseTime(end)
	if err != nil {
		return nil, fmt.Errorf("node %d session end: %w", id, err)
	}
	return &tree.Session{Start: st, End: en}, nil
}

func (sn *Snapshot) ChildIDs(id uint64) ([]uint64, error) {
	return childIDs(sn.ctx, sn.tx, id)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func childIDs(ctx context.Context, q querier, id uint64) ([]uint64, error) {
	rows, err := q.QueryContext(ctx, `SELECT child_id FROM links WHERE parent_id = ? ORDER BY position, child_id;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var c uint64
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
