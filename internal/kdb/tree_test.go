// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

import (
	"errors"
	"testing"
)

func TestAssembleTreeLevels(t *testing.T) {
	// root
	//  |- 1 (level 0)
	//  |   |- 2 (level 1)
	//  |- 3 (level 0)
	groups := []*Group{
		{ID: 1, Level: 0},
		{ID: 2, Level: 1},
		{ID: 3, Level: 0},
	}
	tr, meta, warnings, err := assembleTree(groups, nil)
	if err != nil {
		t.Fatalf("assembleTree: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(meta) != 0 {
		t.Fatalf("unexpected meta entries: %+v", meta)
	}

	rootChildren := tr.nodes[RootID].children
	if len(rootChildren) != 2 {
		t.Fatalf("root has %d children, want 2", len(rootChildren))
	}
	g1ID := tr.byID[1]
	if len(tr.nodes[g1ID].children) != 1 {
		t.Fatalf("group 1 has %d children, want 1", len(tr.nodes[g1ID].children))
	}
	g2ID := tr.byID[2]
	if tr.nodes[g2ID].parent != g1ID {
		t.Fatalf("group 2's parent = %v, want group 1", tr.nodes[g2ID].parent)
	}
}

func TestAssembleTreeOrphanedEntry(t *testing.T) {
	groups := []*Group{{ID: 1, Level: 0}}
	entries := []*Entry{{UUID: [16]byte{1}, GroupID: 99}}
	_, _, _, err := assembleTree(groups, entries)
	if !errors.Is(err, ErrOrphanedEntry) {
		t.Fatalf("orphaned entry: got %v, want OrphanedEntry", err)
	}
}

func TestAssembleTreePropagatesDeletedFlag(t *testing.T) {
	backup := &Group{ID: 1, Level: 0}
	backup.SetDeleted(true)
	groups := []*Group{backup}
	entries := []*Entry{{UUID: [16]byte{1}, GroupID: 1}}
	tr, _, _, err := assembleTree(groups, entries)
	if err != nil {
		t.Fatalf("assembleTree: %v", err)
	}
	owned := tr.nodes[tr.byID[1]].entries
	if len(owned) != 1 || !owned[0].IsDeleted() {
		t.Fatal("entry under deleted group should have isDeleted propagated")
	}
}

func TestSerializeTreeIsInverseOfAssemble(t *testing.T) {
	groups := []*Group{
		{ID: 1, Level: 0, Name: "A"},
		{ID: 2, Level: 1, Name: "B"},
		{ID: 3, Level: 0, Name: "C"},
	}
	e1 := &Entry{UUID: [16]byte{1}, GroupID: 1}
	e2 := &Entry{UUID: [16]byte{2}, GroupID: 2}
	entries := []*Entry{e1, e2}

	tr, meta, _, err := assembleTree(groups, entries)
	if err != nil {
		t.Fatalf("assembleTree: %v", err)
	}

	outGroups, outEntries := serializeTree(tr, meta)
	if len(outGroups) != 3 {
		t.Fatalf("got %d groups, want 3", len(outGroups))
	}
	// Pre-order: A, B (child of A), C.
	wantOrder := []int32{1, 2, 3}
	for i, g := range outGroups {
		if g.ID != wantOrder[i] {
			t.Fatalf("group[%d].ID = %d, want %d", i, g.ID, wantOrder[i])
		}
	}
	if outGroups[0].Level != 0 || outGroups[1].Level != 1 || outGroups[2].Level != 0 {
		t.Fatalf("levels = %d,%d,%d, want 0,1,0", outGroups[0].Level, outGroups[1].Level, outGroups[2].Level)
	}
	if len(outEntries) != 2 {
		t.Fatalf("got %d entries, want 2", len(outEntries))
	}

	// Round trip through assembleTree again should reproduce the same shape.
	tr2, meta2, _, err := assembleTree(outGroups, outEntries)
	if err != nil {
		t.Fatalf("second assembleTree: %v", err)
	}
	if len(meta2) != 0 {
		t.Fatalf("unexpected meta on second pass: %+v", meta2)
	}
	if len(tr2.nodes[RootID].children) != 2 {
		t.Fatalf("second pass root children = %d, want 2", len(tr2.nodes[RootID].children))
	}
}
