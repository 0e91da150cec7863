// Package status derives folder and global status from endpoint verdicts.
package status

import (
	"context"

	"go.uber.org/zap"

	"github.com/amartya2002/uptime-checker-core/model"
)

// FolderStatus is down if any endpoint below folderID is down, up if all are up,
// and unknown otherwise, including for folders with no endpoints.
func FolderStatus(nodes []model.Node, folderID string) model.Status {
	endpoints := model.DescendantEndpoints(nodes, folderID)
	if len(endpoints) == 0 {
		return model.StatusUnknown
	}
	allUp := true
	for _, ep := range endpoints {
		if ep.LastStatus == model.StatusDown {
			return model.StatusDown
		}
		if ep.LastStatus != model.StatusUp {
			allUp = false
		}
	}
	if allUp {
		return model.StatusUp
	}
	return model.StatusUnknown
}

// ErrorCount is the number of endpoints whose last check was down.
func ErrorCount(nodes []model.Node) int {
	count := 0
	for _, n := range nodes {
		if n.IsEndpoint() && n.LastStatus == model.StatusDown {
			count++
		}
	}
	return count
}

// Lister is the part of the item store the aggregator reads.
type Lister interface {
	List(ctx context.Context) ([]model.Node, error)
}

type Aggregator struct {
	items  Lister
	bus    *Broadcaster
	logger *zap.Logger
}

func NewAggregator(items Lister, bus *Broadcaster, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{items: items, bus: bus, logger: logger}
}

func (a *Aggregator) FolderStatus(ctx context.Context, folderID string) (model.Status, error) {
	nodes, err := a.items.List(ctx)
	if err != nil {
		return model.StatusUnknown, err
	}
	return FolderStatus(nodes, folderID), nil
}

func (a *Aggregator) GlobalErrorCount(ctx context.Context) (int, error) {
	nodes, err := a.items.List(ctx)
	if err != nil {
		return 0, err
	}
	return ErrorCount(nodes), nil
}

// Refresh recomputes the error count and notifies listeners.
func (a *Aggregator) Refresh(ctx context.Context) {
	count, err := a.GlobalErrorCount(ctx)
	if err != nil {
		a.logger.Warn("failed to recompute status", zap.Error(err))
		return
	}
	if a.bus != nil {
		a.bus.Publish(count)
	}
}
