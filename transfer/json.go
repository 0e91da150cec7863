// Package transfer converts item trees to and from portable formats:
// JSON export files and single cURL command lines.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/amartya2002/uptime-checker-core/model"
)

// ErrNotArray is returned when an import file holds something other than a JSON array.
var ErrNotArray = errors.New("import file must contain a JSON array of items")

// ErrParentCycle is returned when parent references inside an import file form a loop.
var ErrParentCycle = errors.New("import file contains a parent cycle")

// Export writes nodes as an indented JSON array.
func Export(nodes []model.Node) ([]byte, error) {
	if nodes == nil {
		nodes = []model.Node{}
	}
	return json.MarshalIndent(nodes, "", "  ")
}

// Subtrees returns the nodes under any of rootIDs (roots included), in input order.
// Roots whose parent is not part of the selection are detached to the top level.
func Subtrees(nodes []model.Node, rootIDs ...string) []model.Node {
	keep := make(map[string]struct{})
	for _, id := range rootIDs {
		for d := range model.DescendantIDs(nodes, id) {
			keep[d] = struct{}{}
		}
	}
	var out []model.Node
	for _, n := range nodes {
		if _, ok := keep[n.ID]; !ok {
			continue
		}
		c := n.Clone()
		if c.ParentID != nil {
			if _, ok := keep[*c.ParentID]; !ok {
				c.ParentID = nil
			}
		}
		out = append(out, c)
	}
	return out
}

type importNode struct {
	model.Node
	SortOrder *int `json:"sortOrder"`
}

// Import parses an exported array. Every node gets a fresh id and parent references
// inside the file are translated to the new ids; references to ids outside the file
// are left for the store to resolve. Check state is cleared.
// Nothing is returned unless the whole file is valid.
func Import(data []byte) ([]model.Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("parse import file: invalid JSON")
		}
		return nil, ErrNotArray
	}

	var raw []importNode
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}

	idMap := make(map[string]string, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		if _, dup := idMap[r.ID]; dup {
			return nil, fmt.Errorf("parse import file: duplicate id %q", r.ID)
		}
		idMap[r.ID] = uuid.NewString()
	}

	var errs error
	nodes := make([]model.Node, 0, len(raw))
	for i, r := range raw {
		n := r.Node
		if mapped, ok := idMap[n.ID]; ok {
			n.ID = mapped
		} else {
			n.ID = uuid.NewString()
		}
		if n.ParentID != nil {
			if *n.ParentID == "" {
				n.ParentID = nil
			} else if mapped, ok := idMap[*n.ParentID]; ok {
				n.ParentID = &mapped
			}
		}
		if r.SortOrder != nil {
			n.SortOrder = *r.SortOrder
		} else {
			n.SortOrder = i
		}
		n.ResetStatus()
		n.ApplyDefaults()
		if err := n.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %d: %w", i, err))
		}
		nodes = append(nodes, n)
	}
	if errs != nil {
		return nil, errs
	}
	for _, n := range nodes {
		if n.ParentID != nil && model.IsAncestorOrSelf(nodes, n.ID, *n.ParentID) {
			return nil, fmt.Errorf("%w: item %q", ErrParentCycle, n.Name)
		}
	}
	return nodes, nil
}
