// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// DefaultTemplateGroups is the historical KeePass 1.x default group set,
// applied by `kdbvault create` unless a vault profile overrides it
// (SPEC_FULL.md §5).
var DefaultTemplateGroups = []TemplateGroup{
	{Name: "General", IconID: 48},
	{Name: "Internet", IconID: 1},
	{Name: "Email", IconID: 19},
	{Name: "Finance", IconID: 30},
	{Name: "Network", IconID: 3},
	{Name: "OS", IconID: 39},
}

// TemplateGroup is one entry of a named default-group profile.
type TemplateGroup struct {
	Name   string
	IconID uint32
}

// ApplyTemplate creates one top-level group per entry in groups, in
// order, and returns their NodeIDs in the same order.
func (db *Database) ApplyTemplate(groups []TemplateGroup) []NodeID {
	ids := make([]NodeID, 0, len(groups))
	for _, tg := range groups {
		g := db.CreateGroup(RootID, tg.Name)
		g.IconID = tg.IconID
		ids = append(ids, db.tree.byID[g.ID])
	}
	return ids
}
