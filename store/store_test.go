package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/amartya2002/uptime-checker-core/kv"
	"github.com/amartya2002/uptime-checker-core/model"
)

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	s := New(mem, "", zaptest.NewLogger(t))
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return s, mem
}

func addFolder(t *testing.T, s *Store, name string, parent *string) model.Node {
	t.Helper()
	n, err := s.Add(context.Background(), model.Node{Type: model.TypeFolder, Name: name, ParentID: parent})
	require.NoError(t, err)
	return n
}

func addEndpoint(t *testing.T, s *Store, name string, parent *string) model.Node {
	t.Helper()
	n, err := s.Add(context.Background(), model.Node{Type: model.TypeEndpoint, Name: name, URL: "https://example.com/" + name, ParentID: parent})
	require.NoError(t, err)
	return n
}

func childNames(t *testing.T, s *Store, parent *string) []string {
	t.Helper()
	children, err := s.Children(context.Background(), parent)
	require.NoError(t, err)
	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	return names
}

func TestAdd_SortOrderIsSequentialPerParent(t *testing.T) {
	s, _ := newTestStore(t)
	f := addFolder(t, s, "f", nil)

	var rootOrders, folderOrders []int
	for i := 0; i < 4; i++ {
		rootOrders = append(rootOrders, addEndpoint(t, s, fmt.Sprintf("r%d", i), nil).SortOrder)
		folderOrders = append(folderOrders, addEndpoint(t, s, fmt.Sprintf("c%d", i), &f.ID).SortOrder)
	}

	assert.Equal(t, []int{1, 2, 3, 4}, rootOrders) // the folder took 0
	assert.Equal(t, []int{0, 1, 2, 3}, folderOrders)
}

func TestAdd_AppliesDefaultsAndRejectsBadParent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ep := addEndpoint(t, s, "api", nil)
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, 200, ep.ExpectedStatusCode)
	assert.False(t, ep.IsPaused)

	_, err := s.Add(ctx, model.Node{Type: model.TypeEndpoint, URL: "https://x", ParentID: model.StrPtr("missing")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.Add(ctx, model.Node{Type: model.TypeEndpoint, URL: "https://x", ParentID: &ep.ID})
	assert.ErrorIs(t, err, ErrValidation, "endpoints cannot be parents")

	_, err = s.Add(ctx, model.Node{Type: model.TypeEndpoint, URL: ""})
	assert.ErrorIs(t, err, ErrValidation)

	nodes, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1, "failed adds must not write")
}

func TestDelete_RemovesExactlyTheSubtree(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := addFolder(t, s, "a", nil)
	b := addFolder(t, s, "b", &a.ID)
	addEndpoint(t, s, "a1", &a.ID)
	addEndpoint(t, s, "b1", &b.ID)
	other := addFolder(t, s, "other", nil)
	keep := addEndpoint(t, s, "o1", &other.ID)
	rootEp := addEndpoint(t, s, "root", nil)

	removed, err := s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 4)

	nodes, err := s.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{other.ID, keep.ID, rootEp.ID}, ids)

	removed, err = s.Delete(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestMove_RejectsCycles(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := addFolder(t, s, "a", nil)
	b := addFolder(t, s, "b", &a.ID)
	c := addFolder(t, s, "c", &b.ID)
	d := addFolder(t, s, "d", nil)

	assert.ErrorIs(t, s.Move(ctx, a.ID, &a.ID), ErrCycle)
	assert.ErrorIs(t, s.Move(ctx, a.ID, &b.ID), ErrCycle)
	assert.ErrorIs(t, s.Move(ctx, a.ID, &c.ID), ErrCycle)

	var cerr *CycleError
	require.ErrorAs(t, s.Move(ctx, b.ID, &c.ID), &cerr)
	assert.Equal(t, b.ID, cerr.NodeID)

	require.NoError(t, s.Move(ctx, a.ID, &d.ID))
	moved, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, d.ID, *moved.ParentID)

	require.NoError(t, s.Move(ctx, c.ID, nil))
	moved, err = s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	assert.ErrorIs(t, s.Move(ctx, "ghost", nil), ErrNotFound)
}

func TestReorder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	f := addFolder(t, s, "f", nil)
	addEndpoint(t, s, "x", &f.ID)
	y := addEndpoint(t, s, "y", &f.ID)
	z := addEndpoint(t, s, "z", &f.ID)
	w := addEndpoint(t, s, "w", nil)

	require.NoError(t, s.Reorder(ctx, z.ID, &y.ID, &f.ID))
	assert.Equal(t, []string{"x", "z", "y"}, childNames(t, s, &f.ID))

	// re-applying yields the same order
	require.NoError(t, s.Reorder(ctx, z.ID, &y.ID, &f.ID))
	assert.Equal(t, []string{"x", "z", "y"}, childNames(t, s, &f.ID))

	// cross-folder move, appended when target is nil
	require.NoError(t, s.Reorder(ctx, w.ID, nil, &f.ID))
	assert.Equal(t, []string{"x", "z", "y", "w"}, childNames(t, s, &f.ID))

	children, err := s.Children(ctx, &f.ID)
	require.NoError(t, err)
	for i, c := range children {
		assert.Equal(t, i, c.SortOrder)
	}

	assert.ErrorIs(t, s.Reorder(ctx, f.ID, nil, &f.ID), ErrCycle)
}

func TestDuplicate_FolderSubtree(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	root := addFolder(t, s, "root", nil)
	sub := addFolder(t, s, "sub", &root.ID)
	e1 := addEndpoint(t, s, "e1", &root.ID)
	addEndpoint(t, s, "e2", &sub.ID)
	require.NoError(t, s.SetStatus(ctx, e1.ID, model.StatusUp))

	dup, err := s.Duplicate(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "root (copy)", dup.Name)
	assert.Equal(t, 1, dup.SortOrder)

	nodes, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 8)

	original := model.DescendantIDs(nodes, root.ID)
	copied := model.DescendantIDs(nodes, dup.ID)
	assert.Len(t, copied, len(original))
	for id := range copied {
		_, shared := original[id]
		assert.False(t, shared, "id %s shared between original and copy", id)
	}

	copiedEndpoints := model.DescendantEndpoints(nodes, dup.ID)
	require.Len(t, copiedEndpoints, 2)
	for _, ep := range copiedEndpoints {
		assert.Equal(t, model.StatusUnset, ep.LastStatus)
		assert.Nil(t, ep.LastChecked)
	}

	var names []string
	for _, ep := range copiedEndpoints {
		names = append(names, ep.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"e1", "e2"}, names)

	_, err = s.Duplicate(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_MergesAndValidates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ep, err := s.Add(ctx, model.Node{Type: model.TypeEndpoint, Name: "api", URL: "https://a", Interval: 30, Headers: map[string]string{"X-Key": "1"}})
	require.NoError(t, err)

	interval := 120
	require.NoError(t, s.Update(ctx, ep.ID, model.NodePatch{Interval: &interval}))

	got, err := s.Get(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Interval)
	assert.Equal(t, "https://a", got.URL)
	assert.Equal(t, map[string]string{"X-Key": "1"}, got.Headers)

	bad := "not a url"
	assert.ErrorIs(t, s.Update(ctx, ep.ID, model.NodePatch{URL: &bad}), ErrValidation)
	assert.NoError(t, s.Update(ctx, "ghost", model.NodePatch{Interval: &interval}))
}

func TestSetStatusAndPause_IgnoreFolders(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	f := addFolder(t, s, "f", nil)
	a := addEndpoint(t, s, "a", &f.ID)
	b := addEndpoint(t, s, "b", nil)

	require.NoError(t, s.SetStatus(ctx, f.ID, model.StatusDown))
	require.NoError(t, s.SetStatus(ctx, a.ID, model.StatusDown))
	require.NoError(t, s.SetPaused(ctx, f.ID, true))

	folder, _ := s.Get(ctx, f.ID)
	assert.Equal(t, model.StatusUnset, folder.LastStatus)
	assert.False(t, folder.IsPaused)

	got, _ := s.Get(ctx, a.ID)
	assert.Equal(t, model.StatusDown, got.LastStatus)
	require.NotNil(t, got.LastChecked)
	assert.True(t, fixed.Equal(*got.LastChecked))

	require.NoError(t, s.SetPausedMany(ctx, []string{a.ID, f.ID}, true))
	got, _ = s.Get(ctx, a.ID)
	assert.True(t, got.IsPaused)

	require.NoError(t, s.SetPausedAll(ctx, true))
	got, _ = s.Get(ctx, b.ID)
	assert.True(t, got.IsPaused)

	require.NoError(t, s.SetPausedAll(ctx, false))
	nodes, _ := s.List(ctx)
	for _, n := range nodes {
		assert.False(t, n.IsPaused)
	}
}

func TestAddBatch_OrphansGoToRoot(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	existing := addFolder(t, s, "existing", nil)

	err := s.AddBatch(ctx, []model.Node{
		{ID: "f1", Type: model.TypeFolder, Name: "f1"},
		{ID: "e1", Type: model.TypeEndpoint, URL: "https://a", ParentID: model.StrPtr("f1")},
		{ID: "e2", Type: model.TypeEndpoint, URL: "https://b", ParentID: model.StrPtr("gone")},
		{ID: "e3", Type: model.TypeEndpoint, URL: "https://c", ParentID: &existing.ID},
	})
	require.NoError(t, err)

	e1, _ := s.Get(ctx, "e1")
	e2, _ := s.Get(ctx, "e2")
	e3, _ := s.Get(ctx, "e3")
	assert.Equal(t, "f1", *e1.ParentID)
	assert.Nil(t, e2.ParentID)
	assert.Equal(t, existing.ID, *e3.ParentID)
}

func TestAddBatch_BreaksParentCycles(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.AddBatch(ctx, []model.Node{
		{ID: "a", Type: model.TypeFolder, Name: "a", ParentID: model.StrPtr("b")},
		{ID: "b", Type: model.TypeFolder, Name: "b", ParentID: model.StrPtr("a")},
		{ID: "e", Type: model.TypeEndpoint, URL: "https://e", ParentID: model.StrPtr("a")},
	})
	require.NoError(t, err)

	nodes, err := s.List(ctx)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.ParentID != nil {
			assert.False(t, model.IsAncestorOrSelf(nodes, n.ID, *n.ParentID), "%s sits on a cycle", n.ID)
		}
	}
	reachable := 0
	for _, root := range nodes {
		if root.ParentID == nil {
			reachable += len(model.DescendantIDs(nodes, root.ID))
		}
	}
	assert.Equal(t, 3, reachable, "every item hangs off the root")
}

func sortOrders(t *testing.T, s *Store, parent *string) []int {
	t.Helper()
	children, err := s.Children(context.Background(), parent)
	require.NoError(t, err)
	var orders []int
	for _, c := range children {
		orders = append(orders, c.SortOrder)
	}
	return orders
}

func TestImport_AppendsAfterExistingSiblings(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	addEndpoint(t, s, "a", nil)
	addEndpoint(t, s, "b", nil)
	group := addFolder(t, s, "group", nil)
	addEndpoint(t, s, "inside", &group.ID)

	// the same sortOrders the existing items already use, plus a folder of its own
	err := s.Import(ctx, []model.Node{
		{ID: "x", Type: model.TypeEndpoint, Name: "x", URL: "https://x", SortOrder: 1},
		{ID: "y", Type: model.TypeEndpoint, Name: "y", URL: "https://y", SortOrder: 0},
		{ID: "f", Type: model.TypeFolder, Name: "f", SortOrder: 2},
		{ID: "fe", Type: model.TypeEndpoint, Name: "fe", URL: "https://fe", ParentID: model.StrPtr("f"), SortOrder: 7},
		{ID: "g", Type: model.TypeEndpoint, Name: "g", URL: "https://g", ParentID: &group.ID, SortOrder: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, sortOrders(t, s, nil))
	assert.Equal(t, []string{"a", "b", "group", "y", "x", "f"}, childNames(t, s, nil))
	assert.Equal(t, []int{0}, sortOrders(t, s, model.StrPtr("f")))
	assert.Equal(t, []string{"inside", "g"}, childNames(t, s, &group.ID))
	assert.Equal(t, []int{0, 1}, sortOrders(t, s, &group.ID))
}

func TestList_MigratesLegacyData(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	legacy := `[{"id":"a","name":"A","url":"https://a","interval":30},{"id":"b","name":"B","url":"https://b","interval":30}]`
	require.NoError(t, mem.Put(ctx, DefaultKey, []byte(legacy)))

	nodes, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for i, n := range nodes {
		assert.Equal(t, model.TypeEndpoint, n.Type)
		assert.Nil(t, n.ParentID)
		assert.Equal(t, i, n.SortOrder)
		assert.False(t, n.IsPaused)
	}

	raw, err := mem.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"url"`)
	assert.Contains(t, string(raw), `"sortOrder":1`)

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, nodes, again)
}

type brokenKV struct{ *kv.Memory }

func (b *brokenKV) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestStorageErrorsSurface(t *testing.T) {
	s := New(&brokenKV{Memory: kv.NewMemory()}, "", zaptest.NewLogger(t))
	_, err := s.Add(context.Background(), model.Node{Type: model.TypeFolder, Name: "f"})

	assert.ErrorIs(t, err, ErrStorage)
	var serr *StorageIOError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "write", serr.Op)
}
