package status

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amartya2002/uptime-checker-core/model"
)

func folder(id string, parent *string) model.Node {
	return model.Node{ID: id, Type: model.TypeFolder, ParentID: parent}
}

func endpoint(id string, parent *string, s model.Status) model.Node {
	return model.Node{ID: id, Type: model.TypeEndpoint, ParentID: parent, LastStatus: s}
}

func TestFolderStatus(t *testing.T) {
	f := model.StrPtr("f")
	sub := model.StrPtr("sub")

	tests := []struct {
		name  string
		nodes []model.Node
		want  model.Status
	}{
		{"empty folder", []model.Node{folder("f", nil)}, model.StatusUnknown},
		{"only empty subfolders", []model.Node{folder("f", nil), folder("sub", f)}, model.StatusUnknown},
		{"all up", []model.Node{folder("f", nil), endpoint("a", f, model.StatusUp), endpoint("b", f, model.StatusUp)}, model.StatusUp},
		{"one nested down among many up", []model.Node{
			folder("f", nil), folder("sub", f),
			endpoint("a", f, model.StatusUp), endpoint("b", f, model.StatusUp), endpoint("c", sub, model.StatusDown),
		}, model.StatusDown},
		{"unchecked endpoint", []model.Node{folder("f", nil), endpoint("a", f, model.StatusUp), endpoint("b", f, model.StatusUnset)}, model.StatusUnknown},
		{"outside endpoints ignored", []model.Node{folder("f", nil), endpoint("a", f, model.StatusUp), endpoint("x", nil, model.StatusDown)}, model.StatusUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FolderStatus(tt.nodes, "f"))
		})
	}
}

type staticLister []model.Node

func (s staticLister) List(context.Context) ([]model.Node, error) { return s, nil }

func TestAggregator_RefreshNotifiesInOrder(t *testing.T) {
	nodes := staticLister{
		endpoint("a", nil, model.StatusDown),
		endpoint("b", nil, model.StatusDown),
		endpoint("c", nil, model.StatusUp),
		folder("f", nil),
	}
	bus := NewBroadcaster()

	var calls []string
	var counts []int
	bus.Subscribe(func(n int) { calls = append(calls, "first"); counts = append(counts, n) })
	unsubscribe := bus.Subscribe(func(n int) { calls = append(calls, "second") })
	bus.Subscribe(func(n int) { calls = append(calls, "third") })

	agg := NewAggregator(nodes, bus, nil)
	agg.Refresh(context.Background())
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, []int{2}, counts)

	unsubscribe()
	calls = nil
	agg.Refresh(context.Background())
	assert.Equal(t, []string{"first", "third"}, calls)

	n, err := agg.GlobalErrorCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st, err := agg.FolderStatus(context.Background(), "f")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnknown, st)
}
