package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const dumpVersion = 1

// Dump is the portable form of a whole store. Nodes are listed in pre-order,
// so sibling order is the order of appearance.
type Dump struct {
	Version int        `toml:"version"`
	Nodes   []DumpNode `toml:"node"`
}

type DumpNode struct {
	ID       uint64        `toml:"id"`
	Parent   *uint64       `toml:"parent,omitempty"`
	Name     string        `toml:"name"`
	Due      *time.Time    `toml:"due,omitempty"`
	Sessions []DumpSession `toml:"session,omitempty"`
}

type DumpSession struct {
	Start time.Time `toml:"start"`
	End   time.Time `toml:"end"`
}

func MarshalDump(d Dump) ([]byte, error) {
	return toml.Marshal(d)
}

func UnmarshalDump(data []byte) (Dump, error) {
	var d Dump
	if err := toml.Unmarshal(data, &d); err != nil {
		return Dump{}, fmt.Errorf("decoding dump: %w", err)
	}
	return d, nil
}

// Export reads the entire store.
func (s *Store) Export(ctx context.Context) (Dump, error) {
	d := Dump{Version: dumpVersion}
	err := s.withinTx(ctx, func(tx *sql.Tx) error {
		roots, err := rootIDs(ctx, tx)
		if err != nil {
			return err
		}
		var walk func(id uint64, parent *uint64) error
		walk = func(id uint64, parent *uint64) error {
			n, err := dumpNode(ctx, tx, id)
			if err != nil {
				return err
			}
			n.Parent = parent
			d.Nodes = append(d.Nodes, n)
			children, err := childIDs(ctx, tx, id)
			if err != nil {
				return err
			}
			for _, c := range children {
				pid := id
				if err := walk(c, &pid); err != nil {
					return err
				}
			}
			return nil
		}
		for _, r := range roots {
			if err := walk(r, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Dump{}, err
	}
	return d, nil
}

// Import replaces the store's contents with d.
func (s *Store) Import(ctx context.Context, d Dump) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{`DELETE FROM sessions;`, `DELETE FROM links;`, `DELETE FROM nodes;`} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return err
			}
		}
		positions := map[uint64]int{}
		now := formatTime(time.Now())
		for _, n := range d.Nodes {
			var due any
			if n.Due != nil {
				due = formatTime(*n.Due)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO nodes (id, name, due, created_at) VALUES (?, ?, ?, ?);`,
				n.ID, n.Name, due, now); err != nil {
				return err
			}
			if n.Parent != nil {
				pid := *n.Parent
				if _, err := tx.ExecContext(ctx, `INSERT INTO links (child_id, parent_id, position) VALUES (?, ?, ?);`,
					n.ID, pid, positions[pid]); err != nil {
					return err
				}
				positions[pid]++
			}
			for _, ss := range n.Sessions {
				if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (node_id, start_at, end_at) VALUES (?, ?, ?);`,
					n.ID, formatTime(ss.Start), formatTime(ss.End)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Validate checks that d describes a forest containing the root node.
func (d Dump) Validate() error {
	if d.Version != dumpVersion {
		return fmt.Errorf("unsupported dump version %d", d.Version)
	}
	seen := make(map[uint64]bool, len(d.Nodes))
	hasRoot := false
	for _, n := range d.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("node %d: %w", n.ID, ErrEmptyName)
		}
		if n.Parent != nil && !seen[*n.Parent] {
			// Pre-order: a parent is always listed before its children,
			// which also rules out cycles.
			return fmt.Errorf("node %d listed before its parent %d", n.ID, *n.Parent)
		}
		if n.ID == RootID {
			if n.Parent != nil {
				return errors.New("root node cannot have a parent")
			}
			hasRoot = true
		}
		seen[n.ID] = true
	}
	if !hasRoot {
		return fmt.Errorf("dump has no root node %d", RootID)
	}
	return nil
}

func rootIDs(ctx context.Context, tx *sql.Tx) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM nodes WHERE id NOT IN (SELECT child_id FROM links) ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func dumpNode(ctx context.Context, tx *sql.Tx, id uint64) (DumpNode, error) {
	n := DumpNode{ID: id}
	var due sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT name, due FROM nodes WHERE id = ?;`, id).Scan(&n.Name, &due); err != nil {
		return n, err
	}
	if due.Valid && due.String != "" {
		t, err := parseTime(due.String)
		if err != nil {
			return n, fmt.Errorf("node %d due date: %w", id, err)
		}
		n.Due = &t
	}
	rows, err := tx.QueryContext(ctx, `SELECT start_at, end_at FROM sessions WHERE node_id = ? ORDER BY start_at, id;`, id)
	if err != nil {
		return n, err
	}
	defer rows.Close()
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return n, err
		}
		st, err := parseTime(start)
		if err != nil {
			return n, err
		}
		en, err := parseTime(end)
		if err != nil {
			return n, err
		}
		n.Sessions = append(n.Sessions, DumpSession{Start: st, End: en})
	}
	return n, rows.Err()
}
