package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"grus/internal/tree"
)

// AddChild creates a node named name as the last child of parent and returns
// its id.
func (s *Store) AddChild(ctx context.Context, parent uint64, name string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}
	var id uint64
	err := s.withinTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, parent); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO nodes (name, created_at) VALUES (?, ?);`, name, formatTime(time.Now()))
		if err != nil {
			return err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = uint64(last)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO links (child_id, parent_id, position)
			 VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM links WHERE parent_id = ?));`,
			id, parent, parent)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Delete removes id from under parent together with its whole structural
// subtree and their sessions.
func (s *Store) Delete(ctx context.Context, parent, id uint64) error {
	if id == RootID || parent == id {
		return ErrRootDelete
	}
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		var owner uint64
		err := tx.QueryRowContext(ctx, `SELECT parent_id FROM links WHERE child_id = ?;`, id).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("node %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if owner != parent {
			return fmt.Errorf("node %d under %d: %w", id, parent, ErrNotChild)
		}

		const subtree = `WITH RECURSIVE sub(id) AS (
			SELECT ?
			UNION ALL
			SELECT l.child_id FROM links l JOIN sub ON l.parent_id = sub.id
		)`
		stmts := []string{
			subtree + ` DELETE FROM sessions WHERE node_id IN (SELECT id FROM sub);`,
			subtree + ` DELETE FROM nodes WHERE id IN (SELECT id FROM sub);`,
			subtree + ` DELETE FROM links WHERE child_id IN (SELECT id FROM sub);`,
		}
		// links go last: the CTE walks them.
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Rename gives every node in ids the same name.
func (s *Store) Rename(ctx context.Context, ids []uint64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.updateEach(ctx, ids, `UPDATE nodes SET name = ? WHERE id = ?;`, name)
}

// SetDueDate sets the due date of every node in ids.
func (s *Store) SetDueDate(ctx context.Context, ids []uint64, due time.Time) error {
	return s.updateEach(ctx, ids, `UPDATE nodes SET due = ? WHERE id = ?;`, formatTime(due))
}

// ClearDueDate removes the due date of every node in ids.
func (s *Store) ClearDueDate(ctx context.Context, ids []uint64) error {
	return s.updateEach(ctx, ids, `UPDATE nodes SET due = ? WHERE id = ?;`, nil)
}

// AddSession records session against every node in ids.
func (s *Store) AddSession(ctx context.Context, ids []uint64, session tree.Session) error {
	if session.End.Before(session.Start) {
		return fmt.Errorf("session ends before it starts")
	}
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := mustExist(ctx, tx, id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (node_id, start_at, end_at) VALUES (?, ?, ?);`,
				id, formatTime(session.Start), formatTime(session.End)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) updateEach(ctx context.Context, ids []uint64, query string, value any) error {
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, query, value, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("node %d: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

func mustExist(ctx context.Context, tx *sql.Tx, id uint64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?;`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	return err
}
