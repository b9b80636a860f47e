// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

import (
	"crypto/rand"
	"crypto/sha256"
	"time"
)

// Database is the top-level facade of spec.md §4.6: it owns exactly one
// root group (synthetic, accessible via RootID), a composite key, a
// derived master key, a header, and a list of meta-stream entries. A
// single Database is single-owner; concurrent mutation from multiple
// goroutines is undefined, per spec.md §5.
type Database struct {
	header       *Header
	compositeKey *SecureBytes
	masterKey    *SecureBytes
	tree         *tree
	meta         []*Entry
	backup       NodeID
	hasBackup    bool
	Warnings     []Warning
}

// New creates an empty database (a bare synthetic root, no groups or
// entries) with the given cipher and KDF round count, ready for
// mutation and Save. The caller must call SetCompositeKey before Save.
func New(kind CipherKind, transformRounds uint32) *Database {
	return &Database{
		header: NewHeader(kind, transformRounds),
		tree:   newTree(),
	}
}

// SetCompositeKey stores the composite key used to derive the master key
// on the next Save, and retained for subsequent Save calls after Load, per
// spec.md §4.6's change_composite_key operation.
func (db *Database) SetCompositeKey(compositeKey *SecureBytes) {
	if db.compositeKey != nil {
		db.compositeKey.Wipe()
	}
	db.compositeKey = compositeKey
}

// Root returns the synthetic root's NodeID.
func (db *Database) Root() NodeID { return RootID }

// Group looks up a non-synthetic group by NodeID.
func (db *Database) Group(id NodeID) *Group {
	if id <= RootID || int(id) >= len(db.tree.nodes) {
		return nil
	}
	return db.tree.nodes[id].group
}

// Children returns the NodeIDs of id's direct child groups, in order.
func (db *Database) Children(id NodeID) []NodeID { return db.tree.nodes[id].children }

// Entries returns the non-meta entries directly owned by group id.
func (db *Database) Entries(id NodeID) []*Entry { return db.tree.nodes[id].entries }

// IterAllGroups returns every non-synthetic group's NodeID in pre-order.
func (db *Database) IterAllGroups() []NodeID { return db.tree.preorderNodeIDs() }

// IterAllEntries returns every non-meta entry across the whole tree.
func (db *Database) IterAllEntries() []*Entry {
	var out []*Entry
	for _, id := range db.tree.preorderNodeIDs() {
		out = append(out, db.tree.nodes[id].entries...)
	}
	return out
}

// MetaStreamEntries returns the format-internal entries kept outside the
// user-visible tree.
func (db *Database) MetaStreamEntries() []*Entry { return db.meta }

// CreateGroupID computes the next free non-synthetic group id: max
// existing id + 1, linear-probing upward with wrapping add if that
// successor overflows int32 or collides, per spec.md §4.6.
func (db *Database) CreateGroupID() int32 {
	var max int32
	for id, n := range db.tree.nodes {
		if NodeID(id) == RootID {
			continue
		}
		if n.group.ID > max {
			max = n.group.ID
		}
	}
	candidate := max + 1 // wraps to math.MinInt32 if max == MaxInt32
	for {
		if _, used := db.tree.byID[candidate]; !used && candidate != 0 {
			return candidate
		}
		candidate++ // wrapping add
	}
}

// CreateGroup creates a new group named name under parent and returns it.
func (db *Database) CreateGroup(parent NodeID, name string) *Group {
	now := TimestampFromTime(time.Now())
	g := &Group{
		ID:         db.CreateGroupID(),
		Name:       name,
		Created:    now,
		LastMod:    now,
		LastAccess: now,
		Expires:    NeverExpires,
	}
	db.tree.addGroup(g, parent)
	return g
}

// CreateEntry creates a new entry under the group identified by parent
// and returns it.
func (db *Database) CreateEntry(parent NodeID) *Entry {
	now := TimestampFromTime(time.Now())
	var uuid [16]byte
	_, _ = rand.Read(uuid[:])
	e := &Entry{
		UUID:       uuid,
		GroupID:    uint32(db.tree.nodes[parent].group.ID),
		Created:    now,
		LastMod:    now,
		LastAccess: now,
		Expires:    NeverExpires,
		isDeleted:  db.tree.nodes[parent].group.IsDeleted(),
	}
	db.tree.nodes[parent].entries = append(db.tree.nodes[parent].entries, e)
	return e
}

// MoveEntry relocates an entry to a new owning group, updating its
// group-id foreign key and deleted-propagation flag.
func (db *Database) MoveEntry(e *Entry, newParent NodeID) {
	db.removeEntryFromOwner(e)
	g := db.tree.nodes[newParent].group
	e.GroupID = uint32(g.ID)
	e.isDeleted = g.IsDeleted()
	db.tree.nodes[newParent].entries = append(db.tree.nodes[newParent].entries, e)
}

func (db *Database) removeEntryFromOwner(e *Entry) (NodeID, bool) {
	for id, n := range db.tree.nodes {
		for i, cand := range n.entries {
			if cand == e {
				n.entries = append(n.entries[:i], n.entries[i+1:]...)
				return NodeID(id), true
			}
		}
	}
	return 0, false
}

// BackupGroup returns the designated deleted-flag group (spec.md §3,
// §4.6). When multiple groups have the deleted flag set, the last one
// encountered during Load wins, per spec.md §9's documented open
// question ("last wins", left unchanged from the reference behavior).
// If none exists and createIfMissing is true, a new child of root is
// created with the deleted flag and canonical name/icon.
func (db *Database) BackupGroup(createIfMissing bool) *Group {
	if db.hasBackup {
		return db.tree.nodes[db.backup].group
	}
	if !createIfMissing {
		return nil
	}
	g := db.CreateGroup(RootID, DefaultBackupGroupName)
	g.IconID = DefaultBackupGroupIcon
	g.SetDeleted(true)
	db.backup = db.tree.byID[g.ID]
	db.hasBackup = true
	return g
}

// nominateBackupGroup scans the freshly assembled tree for deleted-flag
// groups, keeping the last match (spec.md §9). Called once after Load.
func (db *Database) nominateBackupGroup() {
	for id, n := range db.tree.nodes {
		if NodeID(id) == RootID {
			continue
		}
		if n.group.IsDeleted() || looksLikeBackupName(n.group.Name) {
			db.backup = NodeID(id)
			db.hasBackup = true
		}
	}
}

// DeleteGroup detaches group id from its parent and moves every
// descendant entry into the backup group (creating it if needed),
// updating each moved entry's last-accessed timestamp, per spec.md §4.6.
func (db *Database) DeleteGroup(id NodeID) {
	backup := db.BackupGroup(true)
	backupID := db.tree.byID[backup.ID]

	var collect func(NodeID)
	var moved []*Entry
	collect = func(n NodeID) {
		moved = append(moved, db.tree.nodes[n].entries...)
		db.tree.nodes[n].entries = nil
		for _, c := range db.tree.nodes[n].children {
			collect(c)
		}
	}
	collect(id)

	db.tree.detach(id)

	now := TimestampFromTime(time.Now())
	for _, e := range moved {
		e.GroupID = uint32(backup.ID)
		e.isDeleted = true
		e.LastAccess = now
		db.tree.nodes[backupID].entries = append(db.tree.nodes[backupID].entries, e)
	}
}

// DeleteEntry moves e to the backup group (creating it if needed) and
// updates its accessed timestamp; if e is already in the backup group, it
// is detached permanently instead, per spec.md §4.6.
func (db *Database) DeleteEntry(e *Entry) {
	owner, _ := db.removeEntryFromOwner(e)
	if db.hasBackup && owner == db.backup {
		// already in backup: permanent delete, nothing left to re-attach
		return
	}
	backup := db.BackupGroup(true)
	backupID := db.tree.byID[backup.ID]
	e.GroupID = uint32(backup.ID)
	e.isDeleted = true
	e.LastAccess = TimestampFromTime(time.Now())
	db.tree.nodes[backupID].entries = append(db.tree.nodes[backupID].entries, e)
}

// Erase recursively wipes all secrets (composite key, master key, every
// entry password, every attachment) and drops the tree (spec.md §5).
func (db *Database) Erase() {
	db.compositeKey.Wipe()
	db.masterKey.Wipe()
	for _, e := range db.IterAllEntries() {
		e.Wipe()
	}
	for _, e := range db.meta {
		e.Wipe()
	}
	db.tree = newTree()
	db.meta = nil
	db.hasBackup = false
}

// contentHash returns SHA-256 of the serialized, decrypted payload.
func contentHash(payload []byte) [32]byte { return sha256.Sum256(payload) }
