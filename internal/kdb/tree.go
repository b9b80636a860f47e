// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// NodeID indexes into a tree's node arena. Parent, children, and
// ownership links are all NodeID indices rather than pointers, per
// spec.md §9's re-architecture note: this breaks the owning/weak-parent
// reference cycle the original engine relies on and makes wiping
// deterministic (no cycle to walk carefully).
type NodeID int32

// RootID is the synthetic root's NodeID. The root is level -1 and is
// never persisted as a Group record (spec.md §9).
const RootID NodeID = 0

type node struct {
	group    *Group // nil only for the root
	parent   NodeID
	children []NodeID
	entries  []*Entry // direct non-meta entries owned by this group
}

// tree is the in-memory arena backing a Database's group hierarchy.
type tree struct {
	nodes []*node // nodes[RootID] is the synthetic root
	byID  map[int32]NodeID
}

func newTree() *tree {
	root := &node{parent: -1}
	return &tree{nodes: []*node{root}, byID: map[int32]NodeID{}}
}

func (t *tree) get(id NodeID) *node { return t.nodes[id] }

func (t *tree) addGroup(g *Group, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &node{group: g, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.byID[g.ID] = id
	return id
}

// detach removes id from its parent's children list. id's own node record
// is left in the arena (callers overwrite parent/children as needed); the
// arena never reclaims slots, matching the spec's single-owner, no-
// concurrent-mutation model (spec.md §5).
func (t *tree) detach(id NodeID) {
	p := t.nodes[id].parent
	if p < 0 {
		return
	}
	siblings := t.nodes[p].children
	for i, c := range siblings {
		if c == id {
			t.nodes[p].children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	t.nodes[id].parent = -1
}

func (t *tree) reattach(id, newParent NodeID) {
	t.detach(id)
	t.nodes[id].parent = newParent
	t.nodes[newParent].children = append(t.nodes[newParent].children, id)
}

// assembleTree implements spec.md §4.5's tree-build algorithm: groups
// carry a Level inline; the parent of a group at level L is the most
// recently seen group at level L-1 (root stands in for level -1), which
// reconstructs the pre-order tree the reference KDB writer emits. This is
// the standard single-pass "last group seen per level" formulation of the
// spec's level-scan description; see DESIGN.md for the equivalence
// argument.
func assembleTree(groups []*Group, entries []*Entry) (*tree, []*Entry, []Warning, error) {
	t := newTree()
	var warnings []Warning

	lastAtLevel := map[uint16]NodeID{}
	for _, g := range groups {
		var parent NodeID
		if g.Level == 0 {
			parent = RootID
		} else if p, ok := lastAtLevel[g.Level-1]; ok {
			parent = p
		} else {
			parent = RootID
			warnings = append(warnings, Warning{
				Code:    "orphan-level",
				Message: "group level has no enclosing parent at level-1; attached under root",
			})
		}
		if _, dup := t.byID[g.ID]; dup {
			warnings = append(warnings, Warning{
				Code:    "duplicate-group-id",
				Message: "duplicate group id encountered; later group wins in lookups",
			})
		}
		id := t.addGroup(g, parent)
		lastAtLevel[g.Level] = id
	}

	var meta []*Entry
	for _, e := range entries {
		if isMetaStream(e) {
			meta = append(meta, e)
			continue
		}
		nodeID, ok := t.byID[int32(e.GroupID)]
		if !ok {
			return nil, nil, nil, newErr(OrphanedEntryKind, nil)
		}
		e.isDeleted = t.nodes[nodeID].group.IsDeleted()
		t.nodes[nodeID].entries = append(t.nodes[nodeID].entries, e)
	}

	return t, meta, warnings, nil
}

// preorderNodeIDs returns the NodeIDs of the groups attached under root in
// parent-before-children, depth-first order. It does not touch Level;
// serializeTree recomputes each group's Level from its depth (root depth
// is 0, so a direct child of root is Level 0).
func (t *tree) preorderNodeIDs() []NodeID {
	var out []NodeID
	var visit func(id NodeID)
	visit = func(id NodeID) {
		for _, c := range t.nodes[id].children {
			out = append(out, c)
			visit(c)
		}
	}
	visit(RootID)
	return out
}

func (t *tree) depth(id NodeID) int {
	d := 0
	for cur := id; cur != RootID; cur = t.nodes[cur].parent {
		d++
	}
	return d
}

// serializeTree is the inverse of assembleTree: a pre-order traversal
// emits groups with their levels, then all non-meta entries grouped by
// their owning group's id in the same pre-order, per spec.md §4.5.
func serializeTree(t *tree, meta []*Entry) (groups []*Group, entries []*Entry) {
	ids := t.preorderNodeIDs()
	groups = make([]*Group, 0, len(ids))
	for _, id := range ids {
		g := t.nodes[id].group
		g.Level = uint16(t.depth(id) - 1)
		groups = append(groups, g)
	}
	for _, id := range ids {
		entries = append(entries, t.nodes[id].entries...)
	}
	entries = append(entries, meta...)
	return groups, entries
}
