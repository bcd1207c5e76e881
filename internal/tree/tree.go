// Package tree holds the in-memory task model: node records, the structural
// ownership links (a forest, one owner per node) and the membership relation
// that lets a node also be shown under any number of other parents.
package tree

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"
)

// Session is a worked interval recorded against a node.
type Session struct {
	Start time.Time
	End   time.Time
}

type Node struct {
	ID      uint64
	Name    string
	Due     *time.Time
	Session *Session
}

// Entry is one (id, name) pair of a store snapshot.
type Entry struct {
	ID   uint64
	Name string
}

// Snapshot is a consistent read view of the backing store.
type Snapshot interface {
	Names() ([]Entry, error)
	DueDate(id uint64) (*time.Time, error)
	FirstSession(id uint64) (*Session, error)
	ChildIDs(id uint64) ([]uint64, error)
	Close() error
}

// Store hands out snapshots for rebuilding a Tree.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

type Tree struct {
	nodes map[uint64]*Node
	links map[uint64][]uint64
	// parent id -> ids displayed (and marked) under it
	selections map[uint64]map[uint64]struct{}

	highlighted    uint64
	hasHighlighted bool
}

func New() *Tree {
	return &Tree{
		nodes:      map[uint64]*Node{},
		links:      map[uint64][]uint64{},
		selections: map[uint64]map[uint64]struct{}{},
	}
}

// FromStore builds a tree from a fresh snapshot of store.
func FromStore(ctx context.Context, store Store) (*Tree, error) {
	t := New()
	if err := t.Rebuild(ctx, store); err != nil {
		return nil, err
	}
	return t, nil
}

// Rebuild replaces nodes and links with the store's current contents. The
// replacement is all or nothing: on error the tree is left untouched.
// Membership survives, minus pairs that name ids which no longer exist.
func (t *Tree) Rebuild(ctx context.Context, store Store) (err error) {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() {
		if cerr := snap.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing snapshot: %w", cerr)
		}
	}()

	entries, err := snap.Names()
	if err != nil {
		return fmt.Errorf("reading names: %w", err)
	}
	nodes := make(map[uint64]*Node, len(entries))
	links := make(map[uint64][]uint64, len(entries))
	for _, e := range entries {
		due, err := snap.DueDate(e.ID)
		if err != nil {
			return fmt.Errorf("reading due date of %d: %w", e.ID, err)
		}
		session, err := snap.FirstSession(e.ID)
		if err != nil {
			return fmt.Errorf("reading session of %d: %w", e.ID, err)
		}
		children, err := snap.ChildIDs(e.ID)
		if err != nil {
			return fmt.Errorf("reading children of %d: %w", e.ID, err)
		}
		nodes[e.ID] = &Node{ID: e.ID, Name: e.Name, Due: due, Session: session}
		links[e.ID] = children
	}
	for id, children := range links {
		for _, c := range children {
			if _, ok := nodes[c]; !ok {
				return fmt.Errorf("node %d lists unknown child %d", id, c)
			}
		}
	}

	t.nodes = nodes
	t.links = links
	t.pruneSelections()
	if t.hasHighlighted && !t.Has(t.highlighted) {
		t.ClearHighlighted()
	}
	return nil
}

func (t *Tree) pruneSelections() {
	for pid, ids := range t.selections {
		if !t.Has(pid) {
			delete(t.selections, pid)
			continue
		}
		for id := range ids {
			if !t.Has(id) {
				delete(ids, id)
			}
		}
		if len(ids) == 0 {
			delete(t.selections, pid)
		}
	}
}

// Toggle flips the membership of id under pid.
func (t *Tree) Toggle(pid, id uint64) {
	ids, ok := t.selections[pid]
	if !ok {
		t.selections[pid] = map[uint64]struct{}{id: {}}
		return
	}
	if _, ok := ids[id]; !ok {
		ids[id] = struct{}{}
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(t.selections, pid)
	}
}

// Node returns the node for id. Asking for an id that did not come from this
// tree generation is a programming error and panics.
func (t *Tree) Node(id uint64) *Node {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("tree: node %d is not in the current generation", id))
	}
	return n
}

func (t *Tree) Has(id uint64) bool {
	_, ok := t.nodes[id]
	return ok
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Children returns the structural children of id in sibling order.
func (t *Tree) Children(id uint64) []*Node {
	ids := t.links[id]
	out := make([]*Node, 0, len(ids))
	for _, c := range ids {
		out = append(out, t.Node(c))
	}
	return out
}

// DisplayChildren returns what is shown under id: its structural children in
// order, then every other member of id in ascending id order. id itself is
// never its own display child.
func (t *Tree) DisplayChildren(id uint64) []*Node {
	out := t.Children(id)
	members := t.selections[id]
	if len(members) == 0 {
		return out
	}
	owned := make(map[uint64]struct{}, len(out))
	for _, n := range out {
		owned[n.ID] = struct{}{}
	}
	for _, m := range slices.Sorted(maps.Keys(members)) {
		if _, ok := owned[m]; ok || m == id {
			continue
		}
		out = append(out, t.Node(m))
	}
	return out
}

func (t *Tree) IsSelected(pid, id uint64) bool {
	_, ok := t.selections[pid][id]
	return ok
}

// Selections yields every (parent, id) membership pair, parents ascending
// and ids ascending within a parent.
func (t *Tree) Selections() iter.Seq2[uint64, uint64] {
	return func(yield func(uint64, uint64) bool) {
		for _, pid := range slices.Sorted(maps.Keys(t.selections)) {
			for _, id := range slices.Sorted(maps.Keys(t.selections[pid])) {
				if !yield(pid, id) {
					return
				}
			}
		}
	}
}

// SelectionIDs yields each selected id once, ascending.
func (t *Tree) SelectionIDs() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		seen := map[uint64]struct{}{}
		for _, ids := range t.selections {
			for id := range ids {
				seen[id] = struct{}{}
			}
		}
		for _, id := range slices.Sorted(maps.Keys(seen)) {
			if !yield(id) {
				return
			}
		}
	}
}

func (t *Tree) SetHighlighted(id uint64) {
	t.highlighted = id
	t.hasHighlighted = true
}

func (t *Tree) ClearHighlighted() {
	t.highlighted = 0
	t.hasHighlighted = false
}

func (t *Tree) IsHighlighted(id uint64) bool {
	return t.hasHighlighted && t.highlighted == id
}
