package model

import "sort"

// IndexOf returns the position of id in nodes, or -1.
func IndexOf(nodes []Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// DescendantIDs returns rootID plus every node whose parent chain reaches it.
// It follows parent links breadth-first, so it terminates even on corrupt cyclic data.
func DescendantIDs(nodes []Node, rootID string) map[string]struct{} {
	set := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, n := range nodes {
			if n.ParentID == nil || *n.ParentID != parent {
				continue
			}
			if _, seen := set[n.ID]; seen {
				continue
			}
			set[n.ID] = struct{}{}
			queue = append(queue, n.ID)
		}
	}
	return set
}

// IsAncestorOrSelf reports whether ancestorID is nodeID or appears on nodeID's parent chain.
func IsAncestorOrSelf(nodes []Node, ancestorID, nodeID string) bool {
	seen := make(map[string]struct{})
	current := nodeID
	for {
		if current == ancestorID {
			return true
		}
		if _, loop := seen[current]; loop {
			return false
		}
		seen[current] = struct{}{}

		i := IndexOf(nodes, current)
		if i < 0 || nodes[i].ParentID == nil {
			return false
		}
		current = *nodes[i].ParentID
	}
}

// SiblingIndexes returns the positions of the nodes under parentID ordered by SortOrder.
// Ties keep stored order.
func SiblingIndexes(nodes []Node, parentID *string) []int {
	var idx []int
	for i := range nodes {
		if nodes[i].InParent(parentID) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return nodes[idx[a]].SortOrder < nodes[idx[b]].SortOrder
	})
	return idx
}

// NextSortOrder is max(sibling sortOrder)+1, or 0 for an empty parent.
func NextSortOrder(nodes []Node, parentID *string) int {
	next := 0
	for _, n := range nodes {
		if n.InParent(parentID) && n.SortOrder+1 > next {
			next = n.SortOrder + 1
		}
	}
	return next
}

// DescendantEndpoints walks the folder depth-first in sortOrder and returns its endpoints.
func DescendantEndpoints(nodes []Node, folderID string) []Node {
	var out []Node
	visited := map[string]struct{}{folderID: {}}
	var walk func(parent string)
	walk = func(parent string) {
		for _, i := range SiblingIndexes(nodes, &parent) {
			n := nodes[i]
			if _, seen := visited[n.ID]; seen {
				continue
			}
			visited[n.ID] = struct{}{}
			if n.IsFolder() {
				walk(n.ID)
				continue
			}
			out = append(out, n)
		}
	}
	walk(folderID)
	return out
}
