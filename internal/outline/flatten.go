// Package outline turns a tree into the rows visible in one frame: a
// viewport-bounded breadth-first flatten, a terminal layout of each row's
// widgets, and painting of the connector lines between rows.
package outline

import (
	"slices"
	"sort"

	"grus/internal/tree"
)

// Rank is a row's position among its displayed siblings.
type Rank struct {
	Det   int
	Total int
}

// IsLast reports whether the row is the last of its siblings. Only the
// connector shape depends on it.
func (r Rank) IsLast() bool {
	return r.Det+1 == r.Total
}

// FlatNode is one occurrence of a node in a flatten pass. The same node may
// occur many times, once per path that reaches it.
type FlatNode struct {
	Node        *tree.Node
	Parent      uint64
	Depth       int
	Path        []int
	Selected    bool
	Highlighted bool
	Rank        Rank
}

// SelfReferencing is true for the top-level root row, which is shown as its
// own parent.
func (f FlatNode) SelfReferencing() bool {
	return f.Parent == f.Node.ID
}

// childIter hands out the displayed children of one placed row.
type childIter struct {
	children []FlatNode
	next     int
}

func newChildIter(parent FlatNode, t *tree.Tree) *childIter {
	nodes := t.DisplayChildren(parent.Node.ID)
	children := make([]FlatNode, len(nodes))
	for i, n := range nodes {
		children[i] = FlatNode{
			Node:        n,
			Parent:      parent.Node.ID,
			Depth:       len(parent.Path),
			Path:        slices.Clone(parent.Path),
			Selected:    t.IsSelected(parent.Node.ID, n.ID),
			Highlighted: t.IsHighlighted(n.ID),
			Rank:        Rank{Det: i, Total: len(nodes)},
		}
	}
	return &childIter{children: children}
}

func (it *childIter) pop() (FlatNode, bool) {
	if it.next >= len(it.children) {
		return FlatNode{}, false
	}
	c := it.children[it.next]
	it.next++
	return c, true
}

// Flatten lays out the subtree shown under (rootParent, rootID) until the
// placer's next free line would pass maxY. Children are discovered wave by
// wave through a queue of per-row iterators, so only what fits is ever
// placed; the result is then sorted by path back into pre-order. A root that
// does not fit yields nil.
func Flatten(t *tree.Tree, rootParent, rootID uint64, maxY int, p Placer) []Row {
	root := FlatNode{
		Node:        t.Node(rootID),
		Parent:      rootParent,
		Depth:       0,
		Path:        []int{0},
		Selected:    t.IsSelected(rootParent, rootID),
		Highlighted: t.IsHighlighted(rootID),
		Rank:        Rank{Det: 0, Total: 1},
	}
	row := p.Place(root)
	if p.NextY() > maxY {
		return nil
	}
	rows := []Row{row}

	var queue []*childIter
	start := 0
outer:
	for {
		for i := start; i < len(rows); i++ {
			queue = append(queue, newChildIter(rows[i].Flat, t))
		}
		start = len(rows)

		for len(queue) > 0 {
			it := queue[0]
			queue = queue[1:]
			child, ok := it.pop()
			if !ok {
				continue
			}
			child.Path = append(child.Path, len(rows))
			row := p.Place(child)
			if p.NextY() > maxY {
				break outer
			}
			queue = append(queue, it)
			rows = append(rows, row)
		}
		if start == len(rows) {
			break
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return slices.Compare(rows[i].Flat.Path, rows[j].Flat.Path) < 0
	})
	return rows
}
