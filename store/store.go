// Package store is the single source of truth for the monitored item tree.
// Every mutation reads the whole collection, changes it in memory and writes it back
// under one lock, so hierarchy rules are enforced in one place.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amartya2002/uptime-checker-core/kv"
	"github.com/amartya2002/uptime-checker-core/model"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "monitoredItems"

const copySuffix = " (copy)"

type Store struct {
	kv     kv.Store
	key    string
	logger *zap.Logger

	newID func() string
	now   func() time.Time

	mu sync.Mutex
}

func New(backend kv.Store, key string, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:     backend,
		key:    key,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// ===== Persistence =====

func (s *Store) load(ctx context.Context) ([]model.Node, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageIOError{Op: "read", Err: err}
	}
	nodes, migrated, err := decodeNodes(data)
	if err != nil {
		return nil, &StorageIOError{Op: "decode", Err: err}
	}
	if migrated {
		s.logger.Info("migrated stored items", zap.Int("count", len(nodes)))
		if err := s.save(ctx, nodes); err != nil {
			s.logger.Warn("failed to persist migrated items", zap.Error(err))
		}
	}
	return nodes, nil
}

func (s *Store) save(ctx context.Context, nodes []model.Node) error {
	if nodes == nil {
		nodes = []model.Node{}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return &StorageIOError{Op: "encode", Err: err}
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return &StorageIOError{Op: "write", Err: err}
	}
	return nil
}

// mutate runs fn over the full collection and persists the result when fn reports a change.
func (s *Store) mutate(ctx context.Context, fn func(nodes []model.Node) ([]model.Node, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, err := s.load(ctx)
	if err != nil {
		return err
	}
	nodes, changed, err := fn(nodes)
	if err != nil || !changed {
		return err
	}
	return s.save(ctx, nodes)
}

func cloneAll(nodes []model.Node) []model.Node {
	out := make([]model.Node, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].Clone()
	}
	return out
}

// ===== Reads =====

// List returns every stored node in stored order.
func (s *Store) List(ctx context.Context) ([]model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneAll(nodes), nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Node, error) {
	nodes, err := s.List(ctx)
	if err != nil {
		return model.Node{}, err
	}
	i := model.IndexOf(nodes, id)
	if i < 0 {
		return model.Node{}, &NotFoundError{ID: id}
	}
	return nodes[i], nil
}

// Children returns the direct children of parentID (nil = root) in display order.
func (s *Store) Children(ctx context.Context, parentID *string) ([]model.Node, error) {
	nodes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := model.SiblingIndexes(nodes, parentID)
	out := make([]model.Node, 0, len(idx))
	for _, i := range idx {
		out = append(out, nodes[i])
	}
	return out, nil
}

// GetDescendantEndpoints returns all endpoints below folderID, depth-first in display order.
func (s *Store) GetDescendantEndpoints(ctx context.Context, folderID string) ([]model.Node, error) {
	nodes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.DescendantEndpoints(nodes, folderID), nil
}

// ===== Create =====

func requireFolder(nodes []model.Node, parentID *string) error {
	if parentID == nil {
		return nil
	}
	i := model.IndexOf(nodes, *parentID)
	if i < 0 || !nodes[i].IsFolder() {
		return &ValidationError{Message: fmt.Sprintf("parent folder %s does not exist", *parentID)}
	}
	return nil
}

// Add assigns an id and the next sortOrder among its siblings, then stores n.
func (s *Store) Add(ctx context.Context, n model.Node) (model.Node, error) {
	n.ApplyDefaults()
	if err := n.Validate(); err != nil {
		return model.Node{}, &ValidationError{Message: err.Error()}
	}

	var created model.Node
	err := s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		if err := requireFolder(nodes, n.ParentID); err != nil {
			return nil, false, err
		}
		n.ID = s.newID()
		n.SortOrder = model.NextSortOrder(nodes, n.ParentID)
		created = n.Clone()
		return append(nodes, n), true, nil
	})
	if err != nil {
		return model.Node{}, err
	}

	s.logger.Debug("item added", zap.String("id", created.ID), zap.String("type", string(created.Type)), zap.String("name", created.Name))
	return created, nil
}

// AddBatch appends nodes that already carry ids, keeping their sortOrder.
// A parentId that resolves to no folder in the batch or the store is reset to root,
// as is any batch node whose parent chain leads back to itself.
func (s *Store) AddBatch(ctx context.Context, batch []model.Node) error {
	if len(batch) == 0 {
		return nil
	}
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		nodes, _ = s.appendBatch(nodes, batch)
		return nodes, true, nil
	})
}

// Import adds an imported batch like AddBatch, then renumbers sortOrder per parent so the
// new nodes follow any existing siblings. Relative order within the batch is kept.
func (s *Store) Import(ctx context.Context, batch []model.Node) error {
	if len(batch) == 0 {
		return nil
	}
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		existing := len(nodes)
		nodes, added := s.appendBatch(nodes, batch)

		groups := make(map[string][]int)
		var parents []*string
		for _, i := range added {
			key := ""
			if p := nodes[i].ParentID; p != nil {
				key = *p
			}
			if _, ok := groups[key]; !ok {
				parents = append(parents, nodes[i].ParentID)
			}
			groups[key] = append(groups[key], i)
		}
		for _, parent := range parents {
			key := ""
			if parent != nil {
				key = *parent
			}
			idx := groups[key]
			sort.SliceStable(idx, func(a, b int) bool {
				return nodes[idx[a]].SortOrder < nodes[idx[b]].SortOrder
			})
			next := model.NextSortOrder(nodes[:existing], parent)
			for k, i := range idx {
				nodes[i].SortOrder = next + k
			}
		}
		return nodes, true, nil
	})
}

// appendBatch appends batch to nodes and returns the positions of the appended nodes.
func (s *Store) appendBatch(nodes, batch []model.Node) ([]model.Node, []int) {
	folders := make(map[string]struct{})
	for _, n := range nodes {
		if n.IsFolder() {
			folders[n.ID] = struct{}{}
		}
	}
	for _, n := range batch {
		if n.IsFolder() {
			folders[n.ID] = struct{}{}
		}
	}

	added := make([]int, 0, len(batch))
	for _, n := range batch {
		n = n.Clone()
		if n.ID == "" {
			n.ID = s.newID()
		}
		if n.ParentID != nil {
			if _, ok := folders[*n.ParentID]; !ok || *n.ParentID == n.ID {
				s.logger.Debug("orphaned item moved to root", zap.String("id", n.ID), zap.String("parent_id", *n.ParentID))
				n.ParentID = nil
			}
		}
		added = append(added, len(nodes))
		nodes = append(nodes, n)
	}

	// existing nodes are acyclic and never point into the batch, so only batch links can loop
	for _, i := range added {
		if p := nodes[i].ParentID; p != nil && model.IsAncestorOrSelf(nodes, nodes[i].ID, *p) {
			s.logger.Warn("parent cycle broken, item moved to root", zap.String("id", nodes[i].ID), zap.String("parent_id", *p))
			nodes[i].ParentID = nil
		}
	}
	return nodes, added
}

// ===== Update =====

// Update merges patch into the node with the given id. Missing ids are ignored.
func (s *Store) Update(ctx context.Context, id string, patch model.NodePatch) error {
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		i := model.IndexOf(nodes, id)
		if i < 0 {
			return nil, false, nil
		}
		updated := nodes[i].Clone()
		patch.Apply(&updated)
		updated.ApplyDefaults()
		if err := updated.Validate(); err != nil {
			return nil, false, &ValidationError{Message: err.Error()}
		}
		nodes[i] = updated
		return nodes, true, nil
	})
}

// SetStatus records a check verdict on an endpoint. Folders and missing ids are ignored.
func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) error {
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		i := model.IndexOf(nodes, id)
		if i < 0 || !nodes[i].IsEndpoint() {
			return nil, false, nil
		}
		now := s.now().UTC()
		nodes[i].LastStatus = status
		nodes[i].LastChecked = &now
		return nodes, true, nil
	})
}

func (s *Store) setPaused(ctx context.Context, match func(model.Node) bool, paused bool) error {
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		changed := false
		for i := range nodes {
			if nodes[i].IsEndpoint() && match(nodes[i]) && nodes[i].IsPaused != paused {
				nodes[i].IsPaused = paused
				changed = true
			}
		}
		return nodes, changed, nil
	})
}

func (s *Store) SetPaused(ctx context.Context, id string, paused bool) error {
	return s.setPaused(ctx, func(n model.Node) bool { return n.ID == id }, paused)
}

func (s *Store) SetPausedMany(ctx context.Context, ids []string, paused bool) error {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return s.setPaused(ctx, func(n model.Node) bool {
		_, ok := set[n.ID]
		return ok
	}, paused)
}

func (s *Store) SetPausedAll(ctx context.Context, paused bool) error {
	return s.setPaused(ctx, func(model.Node) bool { return true }, paused)
}

// ===== Hierarchy =====

// checkReparent validates moving id under newParentID.
func checkReparent(nodes []model.Node, id string, newParentID *string) (int, error) {
	i := model.IndexOf(nodes, id)
	if i < 0 {
		return -1, &NotFoundError{ID: id}
	}
	if newParentID == nil {
		return i, nil
	}
	if *newParentID == id {
		return -1, &CycleError{NodeID: id, ParentID: *newParentID}
	}
	if err := requireFolder(nodes, newParentID); err != nil {
		return -1, err
	}
	if model.IsAncestorOrSelf(nodes, id, *newParentID) {
		return -1, &CycleError{NodeID: id, ParentID: *newParentID}
	}
	return i, nil
}

// Move reparents id and places it last among its new siblings.
func (s *Store) Move(ctx context.Context, id string, newParentID *string) error {
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		i, err := checkReparent(nodes, id, newParentID)
		if err != nil {
			return nil, false, err
		}
		if nodes[i].InParent(newParentID) {
			return nodes, false, nil
		}
		nodes[i].SortOrder = model.NextSortOrder(nodes, newParentID)
		nodes[i].ParentID = copyID(newParentID)
		return nodes, true, nil
	})
}

// Reorder moves draggedID under newParentID, immediately before targetID
// (or last when targetID is nil or not a sibling), and renumbers the siblings 0..n-1.
func (s *Store) Reorder(ctx context.Context, draggedID string, targetID, newParentID *string) error {
	return s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		d, err := checkReparent(nodes, draggedID, newParentID)
		if err != nil {
			return nil, false, err
		}
		nodes[d].ParentID = copyID(newParentID)

		var order []int
		for _, i := range model.SiblingIndexes(nodes, newParentID) {
			if i != d {
				order = append(order, i)
			}
		}

		pos := len(order)
		if targetID != nil {
			for k, i := range order {
				if nodes[i].ID == *targetID {
					pos = k
					break
				}
			}
		}
		order = append(order[:pos], append([]int{d}, order[pos:]...)...)

		for k, i := range order {
			nodes[i].SortOrder = k
		}
		return nodes, true, nil
	})
}

// Duplicate deep-copies id (and, for folders, its subtree) under fresh ids.
// The copy is appended after its siblings and returned.
func (s *Store) Duplicate(ctx context.Context, id string) (model.Node, error) {
	var root model.Node
	err := s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		r := model.IndexOf(nodes, id)
		if r < 0 {
			return nil, false, &NotFoundError{ID: id}
		}

		subtree := model.DescendantIDs(nodes, id)
		idMap := make(map[string]string, len(subtree))
		for _, n := range nodes {
			if _, ok := subtree[n.ID]; ok {
				idMap[n.ID] = s.newID()
			}
		}

		var copies []model.Node
		for _, n := range nodes {
			if _, ok := subtree[n.ID]; !ok {
				continue
			}
			c := n.Clone()
			c.ID = idMap[n.ID]
			if n.ID == id {
				c.Name += copySuffix
				c.SortOrder = model.NextSortOrder(nodes, n.ParentID)
			} else if c.ParentID != nil {
				if mapped, ok := idMap[*c.ParentID]; ok {
					c.ParentID = &mapped
				}
			}
			if c.IsEndpoint() {
				c.ResetStatus()
			}
			if n.ID == id {
				root = c.Clone()
			}
			copies = append(copies, c)
		}
		return append(nodes, copies...), true, nil
	})
	if err != nil {
		return model.Node{}, err
	}
	s.logger.Debug("item duplicated", zap.String("source_id", id), zap.String("id", root.ID))
	return root, nil
}

// Delete removes id and all of its descendants in one write and returns the removed ids.
func (s *Store) Delete(ctx context.Context, id string) ([]string, error) {
	var removed []string
	err := s.mutate(ctx, func(nodes []model.Node) ([]model.Node, bool, error) {
		if model.IndexOf(nodes, id) < 0 {
			return nil, false, nil
		}
		doomed := model.DescendantIDs(nodes, id)
		kept := nodes[:0]
		for _, n := range nodes {
			if _, ok := doomed[n.ID]; ok {
				removed = append(removed, n.ID)
				continue
			}
			kept = append(kept, n)
		}
		return kept, true, nil
	})
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.Debug("items deleted", zap.String("id", id), zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, nil)
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
