// Package app applies actions to the store and keeps the in-memory tree and
// the current view root in step with it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"grus/internal/action"
	"grus/internal/logging"
	"grus/internal/storage"
	"grus/internal/tree"
)

// Store is the persistence the dispatcher needs on top of tree snapshots.
type Store interface {
	tree.Store
	AddChild(ctx context.Context, parent uint64, name string) (uint64, error)
	Delete(ctx context.Context, parent, id uint64) error
	Rename(ctx context.Context, ids []uint64, name string) error
	SetDueDate(ctx context.Context, ids []uint64, due time.Time) error
	AddSession(ctx context.Context, ids []uint64, session tree.Session) error
	Export(ctx context.Context) (storage.Dump, error)
	Import(ctx context.Context, d storage.Dump) error
}

// Input carries what the user typed for actions that need it.
type Input struct {
	Text  string
	Start time.Time
	End   time.Time
}

type view struct {
	pid, id uint64
}

type App struct {
	store  Store
	bridge Bridge
	log    *slog.Logger
	tree   *tree.Tree

	root  view
	stack []view
}

func New(ctx context.Context, store Store, bridge Bridge, log *slog.Logger) (*App, error) {
	t, err := tree.FromStore(ctx, store)
	if err != nil {
		return nil, storeErr("rebuild", err)
	}
	if !t.Has(storage.RootID) {
		return nil, storeErr("rebuild", fmt.Errorf("root %d: %w", storage.RootID, storage.ErrNotFound))
	}
	if log == nil {
		log = logging.Discard()
	}
	return &App{
		store:  store,
		bridge: bridge,
		log:    log,
		tree:   t,
		root:   view{pid: storage.RootID, id: storage.RootID},
	}, nil
}

func (a *App) Tree() *tree.Tree { return a.tree }

// Root is the (parent, id) pair the outline is currently drawn from.
func (a *App) Root() (pid, id uint64) { return a.root.pid, a.root.id }

// Depth is how many MoveInto steps MoveOut can undo.
func (a *App) Depth() int { return len(a.stack) }

// Breadcrumbs names the views from the top down to the current one.
func (a *App) Breadcrumbs() []string {
	out := make([]string, 0, len(a.stack)+1)
	for _, v := range append(slices.Clone(a.stack), a.root) {
		out = append(out, a.tree.Node(v.id).Name)
	}
	return out
}

// Perform applies one action. Store mutations are followed by a rebuild;
// membership and navigation only touch memory.
func (a *App) Perform(ctx context.Context, act action.Action, in Input) error {
	if act.IsNone() {
		return nil
	}
	err := a.perform(ctx, act, in)
	if err != nil {
		a.log.ErrorContext(ctx, "action_failed", "action", act.String(), "error", err.Error())
		return err
	}
	a.log.InfoContext(ctx, "action", "action", act.String(), "root", a.root.id, "depth", len(a.stack))
	return nil
}

func (a *App) perform(ctx context.Context, act action.Action, in Input) error {
	a.tree.ClearHighlighted()
	switch act.Kind {
	case action.Add:
		id, err := a.store.AddChild(ctx, act.ID, in.Text)
		if err != nil {
			return storeErr("add", err)
		}
		if err := a.rebuild(ctx); err != nil {
			return err
		}
		a.tree.SetHighlighted(id)
		return nil

	case action.Delete:
		if a.isMemberOnly(act.Parent, act.ID) {
			a.tree.Toggle(act.Parent, act.ID)
			return nil
		}
		if err := a.store.Delete(ctx, act.Parent, act.ID); err != nil {
			return storeErr("delete", err)
		}
		return a.rebuild(ctx)

	case action.Rename:
		return a.onSelection(ctx, "rename", func(ids []uint64) error {
			return a.store.Rename(ctx, ids, in.Text)
		})

	case action.SetDueDate:
		return a.onSelection(ctx, "set due date", func(ids []uint64) error {
			return a.store.SetDueDate(ctx, ids, in.End)
		})

	case action.AddSession:
		return a.onSelection(ctx, "add session", func(ids []uint64) error {
			return a.store.AddSession(ctx, ids, tree.Session{Start: in.Start, End: in.End})
		})

	case action.Toggle:
		if act.Parent != act.ID {
			a.tree.Toggle(act.Parent, act.ID)
		}
		return nil

	case action.MoveInto:
		if act.Parent == act.ID || !a.tree.Has(act.ID) {
			return nil
		}
		a.stack = append(a.stack, a.root)
		a.root = view{pid: act.Parent, id: act.ID}
		return a.rebuild(ctx)

	case action.MoveOut:
		if len(a.stack) == 0 {
			return nil
		}
		a.root = a.stack[len(a.stack)-1]
		a.stack = a.stack[:len(a.stack)-1]
		return a.rebuild(ctx)

	case action.Import:
		return a.importDump(ctx)

	case action.Export:
		return a.exportDump(ctx)
	}
	return fmt.Errorf("unknown action %s", act)
}

// Link shows every selected node under target as well. It returns how many
// links were made; target itself is skipped.
func (a *App) Link(ctx context.Context, target uint64) int {
	ids := slices.Collect(a.tree.SelectionIDs())
	n := 0
	for _, id := range ids {
		if id == target || a.tree.IsSelected(target, id) {
			continue
		}
		a.tree.Toggle(target, id)
		n++
	}
	a.log.InfoContext(ctx, "link", "target", target, "count", n)
	return n
}

// isMemberOnly reports whether id is shown under pid by membership alone.
// Deleting such a row removes the membership, not the node.
func (a *App) isMemberOnly(pid, id uint64) bool {
	if !a.tree.IsSelected(pid, id) {
		return false
	}
	for _, c := range a.tree.Children(pid) {
		if c.ID == id {
			return false
		}
	}
	return true
}

func (a *App) onSelection(ctx context.Context, op string, fn func(ids []uint64) error) error {
	ids := slices.Collect(a.tree.SelectionIDs())
	if len(ids) == 0 {
		return ErrNoSelection
	}
	if err := fn(ids); err != nil {
		return storeErr(op, err)
	}
	return a.rebuild(ctx)
}

func (a *App) importDump(ctx context.Context) error {
	data, err := a.bridge.Import()
	if err != nil {
		return &BridgeError{Op: "import", Err: err}
	}
	d, err := storage.UnmarshalDump(data)
	if err != nil {
		return &BridgeError{Op: "import", Err: err}
	}
	if err := a.store.Import(ctx, d); err != nil {
		return storeErr("import", err)
	}
	return a.rebuild(ctx)
}

func (a *App) exportDump(ctx context.Context) error {
	d, err := a.store.Export(ctx)
	if err != nil {
		return storeErr("export", err)
	}
	data, err := storage.MarshalDump(d)
	if err != nil {
		return &BridgeError{Op: "export", Err: err}
	}
	if err := a.bridge.Export(data); err != nil {
		return &BridgeError{Op: "export", Err: err}
	}
	return nil
}

// rebuild reloads the tree and walks the view back up while its root no
// longer exists.
func (a *App) rebuild(ctx context.Context) error {
	if err := a.tree.Rebuild(ctx, a.store); err != nil {
		return storeErr("rebuild", err)
	}
	a.stack = slices.DeleteFunc(a.stack, func(v view) bool { return !a.viewable(v) })
	for !a.viewable(a.root) {
		if len(a.stack) == 0 {
			a.root = view{pid: storage.RootID, id: storage.RootID}
			break
		}
		a.root = a.stack[len(a.stack)-1]
		a.stack = a.stack[:len(a.stack)-1]
	}
	return nil
}

func (a *App) viewable(v view) bool {
	return a.tree.Has(v.id) && a.tree.Has(v.pid)
}
