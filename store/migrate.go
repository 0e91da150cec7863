package store

import (
	"encoding/json"

	"github.com/amartya2002/uptime-checker-core/model"
)

// storedNode shadows the fields whose absence marks data written by older versions.
type storedNode struct {
	model.Node
	Type      *model.NodeType `json:"type"`
	SortOrder *int            `json:"sortOrder"`
	IsPaused  *bool           `json:"isPaused"`
}

// decodeNodes parses the persisted blob and upgrades legacy entries in place.
// The second return value is true when anything was upgraded and should be written back.
func decodeNodes(data []byte) ([]model.Node, bool, error) {
	var raw []storedNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	migrated := false
	nodes := make([]model.Node, len(raw))
	for i, sn := range raw {
		n := sn.Node

		if sn.Type == nil || *sn.Type == "" {
			n.Type = model.TypeEndpoint
			migrated = true
		} else {
			n.Type = *sn.Type
		}

		if n.ParentID != nil && *n.ParentID == "" {
			n.ParentID = nil
			migrated = true
		}

		if sn.SortOrder == nil {
			n.SortOrder = i
			migrated = true
		} else {
			n.SortOrder = *sn.SortOrder
		}

		if sn.IsPaused == nil {
			n.IsPaused = false
			if n.IsEndpoint() {
				migrated = true
			}
		} else {
			n.IsPaused = *sn.IsPaused
		}

		nodes[i] = n
	}
	return nodes, migrated, nil
}
