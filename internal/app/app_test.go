package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grus/internal/action"
	"grus/internal/logging"
	"grus/internal/storage"
)

type fakeBridge struct {
	data      []byte
	importErr error
	exportErr error
	exported  []byte
}

func (b *fakeBridge) Import() ([]byte, error) { return b.data, b.importErr }

func (b *fakeBridge) Export(data []byte) error {
	if b.exportErr != nil {
		return b.exportErr
	}
	b.exported = data
	return nil
}

func newTestApp(t *testing.T) (*App, *storage.Store, *fakeBridge) {
	t.Helper()
	store, err := storage.Open(":memory:", "Inbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	bridge := &fakeBridge{}
	a, err := New(context.Background(), store, bridge, logging.Discard())
	require.NoError(t, err)
	return a, store, bridge
}

func add(t *testing.T, a *App, parent uint64, name string) uint64 {
	t.Helper()
	require.NoError(t, a.Perform(context.Background(), action.On(action.Add, parent, parent), Input{Text: name}))
	for _, n := range a.Tree().Children(parent) {
		if n.Name == name {
			return n.ID
		}
	}
	t.Fatalf("%q not added under %d", name, parent)
	return 0
}

func TestNewStartsAtRoot(t *testing.T) {
	a, _, _ := newTestApp(t)

	pid, id := a.Root()
	assert.Equal(t, storage.RootID, pid)
	assert.Equal(t, storage.RootID, id)
	assert.Equal(t, 0, a.Depth())
	assert.Equal(t, []string{"Inbox"}, a.Breadcrumbs())
}

func TestAddHighlightsNewNode(t *testing.T) {
	a, _, _ := newTestApp(t)

	id := add(t, a, 0, "buy milk")

	assert.True(t, a.Tree().IsHighlighted(id))
	assert.Equal(t, "buy milk", a.Tree().Node(id).Name)
}

func TestAddEmptyNameIsStoreError(t *testing.T) {
	a, _, _ := newTestApp(t)

	err := a.Perform(context.Background(), action.On(action.Add, 0, 0), Input{Text: "  "})

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "add", se.Op)
	assert.ErrorIs(t, err, storage.ErrEmptyName)
	assert.Equal(t, 1, a.Tree().Len())
}

func TestDeleteRemovesSubtree(t *testing.T) {
	a, _, _ := newTestApp(t)
	x := add(t, a, 0, "x")
	add(t, a, x, "y")

	require.NoError(t, a.Perform(context.Background(), action.On(action.Delete, 0, x), Input{}))

	assert.Equal(t, 1, a.Tree().Len())
	assert.False(t, a.Tree().Has(x))
}

func TestDeleteMemberRowDropsMembership(t *testing.T) {
	a, _, _ := newTestApp(t)
	x := add(t, a, 0, "x")
	b := add(t, a, 0, "b")
	ctx := context.Background()
	require.NoError(t, a.Perform(ctx, action.On(action.Toggle, b, x), Input{}))

	require.NoError(t, a.Perform(ctx, action.On(action.Delete, b, x), Input{}))

	assert.True(t, a.Tree().Has(x))
	assert.False(t, a.Tree().IsSelected(b, x))
}

func TestToggleIgnoresSelfReference(t *testing.T) {
	a, _, _ := newTestApp(t)

	require.NoError(t, a.Perform(context.Background(), action.On(action.Toggle, 0, 0), Input{}))

	assert.False(t, a.Tree().IsSelected(0, 0))
}

func TestSelectionActions(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()
	x := add(t, a, 0, "x")
	y := add(t, a, 0, "y")

	t.Run("nothing selected", func(t *testing.T) {
		for _, k := range []action.Kind{action.Rename, action.SetDueDate, action.AddSession} {
			assert.ErrorIs(t, a.Perform(ctx, action.Of(k), Input{Text: "z"}), ErrNoSelection)
		}
	})

	require.NoError(t, a.Perform(ctx, action.On(action.Toggle, 0, x), Input{}))
	require.NoError(t, a.Perform(ctx, action.On(action.Toggle, 0, y), Input{}))

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, a.Perform(ctx, action.Of(action.Rename), Input{Text: "same"}))
		assert.Equal(t, "same", a.Tree().Node(x).Name)
		assert.Equal(t, "same", a.Tree().Node(y).Name)
		assert.True(t, a.Tree().IsSelected(0, x), "membership survives the rebuild")
	})

	t.Run("due date", func(t *testing.T) {
		due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, a.Perform(ctx, action.Of(action.SetDueDate), Input{End: due}))
		require.NotNil(t, a.Tree().Node(x).Due)
		assert.True(t, due.Equal(*a.Tree().Node(x).Due))
	})

	t.Run("session", func(t *testing.T) {
		start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		end := start.Add(time.Hour)
		require.NoError(t, a.Perform(ctx, action.Of(action.AddSession), Input{Start: start, End: end}))
		s := a.Tree().Node(y).Session
		require.NotNil(t, s)
		assert.True(t, start.Equal(s.Start))
		assert.True(t, end.Equal(s.End))
	})

	t.Run("bad session", func(t *testing.T) {
		start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		err := a.Perform(ctx, action.Of(action.AddSession), Input{Start: start, End: start.Add(-time.Minute)})
		var se *StoreError
		assert.ErrorAs(t, err, &se)
	})
}

func TestMoveIntoAndOut(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()
	x := add(t, a, 0, "x")
	y := add(t, a, x, "y")

	require.NoError(t, a.Perform(ctx, action.On(action.MoveInto, 0, x), Input{}))
	require.NoError(t, a.Perform(ctx, action.On(action.MoveInto, x, y), Input{}))
	pid, id := a.Root()
	assert.Equal(t, x, pid)
	assert.Equal(t, y, id)
	assert.Equal(t, 2, a.Depth())
	assert.Equal(t, []string{"Inbox", "x", "y"}, a.Breadcrumbs())

	require.NoError(t, a.Perform(ctx, action.Of(action.MoveOut), Input{}))
	pid, id = a.Root()
	assert.Equal(t, uint64(0), pid)
	assert.Equal(t, x, id)

	require.NoError(t, a.Perform(ctx, action.Of(action.MoveOut), Input{}))
	require.NoError(t, a.Perform(ctx, action.Of(action.MoveOut), Input{}))
	pid, id = a.Root()
	assert.Equal(t, uint64(0), pid)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, 0, a.Depth())
}

func TestMoveIntoSelfReferenceIsIgnored(t *testing.T) {
	a, _, _ := newTestApp(t)

	require.NoError(t, a.Perform(context.Background(), action.On(action.MoveInto, 0, 0), Input{}))

	assert.Equal(t, 0, a.Depth())
}

func TestDeletingViewRootWalksBackUp(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()
	x := add(t, a, 0, "x")
	y := add(t, a, x, "y")
	// y shows x as a member, so x can be deleted from inside its own view.
	require.NoError(t, a.Perform(ctx, action.On(action.Toggle, y, x), Input{}))
	require.NoError(t, a.Perform(ctx, action.On(action.MoveInto, 0, x), Input{}))
	require.NoError(t, a.Perform(ctx, action.On(action.MoveInto, x, y), Input{}))

	require.NoError(t, a.Perform(ctx, action.On(action.Delete, 0, x), Input{}))

	pid, id := a.Root()
	assert.Equal(t, uint64(0), pid)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, 0, a.Depth())
}

func TestExportImportThroughBridge(t *testing.T) {
	a, _, bridge := newTestApp(t)
	ctx := context.Background()
	x := add(t, a, 0, "x")
	add(t, a, x, "y")

	require.NoError(t, a.Perform(ctx, action.Of(action.Export), Input{}))
	require.NotEmpty(t, bridge.exported)

	require.NoError(t, a.Perform(ctx, action.On(action.Delete, 0, x), Input{}))
	require.Equal(t, 1, a.Tree().Len())

	bridge.data = bridge.exported
	require.NoError(t, a.Perform(ctx, action.Of(action.Import), Input{}))
	assert.Equal(t, 3, a.Tree().Len())
	require.Len(t, a.Tree().Children(0), 1)
	assert.Equal(t, "x", a.Tree().Children(0)[0].Name)
}

func TestBridgeFailures(t *testing.T) {
	a, _, bridge := newTestApp(t)
	ctx := context.Background()
	add(t, a, 0, "x")
	boom := errors.New("boom")

	bridge.importErr = boom
	err := a.Perform(ctx, action.Of(action.Import), Input{})
	var be *BridgeError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "import", be.Op)
	assert.ErrorIs(t, err, boom)

	bridge.importErr = nil
	bridge.data = []byte("not = [valid")
	require.ErrorAs(t, a.Perform(ctx, action.Of(action.Import), Input{}), &be)
	assert.Equal(t, 2, a.Tree().Len(), "tree untouched")

	bridge.exportErr = boom
	require.ErrorAs(t, a.Perform(ctx, action.Of(action.Export), Input{}), &be)
	assert.Equal(t, "export", be.Op)
}

func TestClipboardBridge(t *testing.T) {
	origRead, origWrite, origOSC := clipboardReadAll, clipboardWriteAll, writeOSC52
	t.Cleanup(func() {
		clipboardReadAll, clipboardWriteAll, writeOSC52 = origRead, origWrite, origOSC
	})

	var written, osc string
	clipboardReadAll = func() (string, error) { return "version = 1\n", nil }
	clipboardWriteAll = func(s string) error { written = s; return nil }
	writeOSC52 = func(s string) error { osc = s; return nil }

	data, err := ClipboardBridge{}.Import()
	require.NoError(t, err)
	assert.Equal(t, "version = 1\n", string(data))

	require.NoError(t, ClipboardBridge{}.Export([]byte("dump")))
	assert.Equal(t, "dump", written)
	assert.Empty(t, osc)

	clipboardWriteAll = func(string) error { return errors.New("no helper") }
	require.NoError(t, ClipboardBridge{}.Export([]byte("dump2")))
	assert.Equal(t, "dump2", osc)

	writeOSC52 = func(string) error { return errors.New("dumb terminal") }
	assert.Error(t, ClipboardBridge{}.Export([]byte("dump3")))

	clipboardReadAll = func() (string, error) { return " \n", nil }
	_, err = ClipboardBridge{}.Import()
	assert.Error(t, err)
}
