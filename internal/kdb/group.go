// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// groupFlagDeleted marks a group as the backup/recycle-bin destination,
// per spec.md §3's "isDeleted flag" invariant.
const groupFlagDeleted uint32 = 1

// Group is a KDB v1 group record (spec.md §3). ID is unique among all
// non-synthetic groups and must be >= 1; the synthetic root (Level -1)
// is represented separately by the tree, never as a Group value.
type Group struct {
	ID         int32
	Name       string
	IconID     uint32
	Created    Timestamp
	LastMod    Timestamp
	LastAccess Timestamp
	Expires    Timestamp
	UsageCount uint32
	Level      uint16
	Flags      uint32
}

// IsDeleted reports whether this group is flagged as a backup/recycle-bin
// destination.
func (g *Group) IsDeleted() bool { return g.Flags&groupFlagDeleted != 0 }

// SetDeleted sets or clears the deleted flag.
func (g *Group) SetDeleted(deleted bool) {
	if deleted {
		g.Flags |= groupFlagDeleted
	} else {
		g.Flags &^= groupFlagDeleted
	}
}

// looksLikeBackupName reports whether name matches the conventional
// "Backup" / "Recycle Bin" naming KeePass 1.x uses for its deleted-items
// group, per spec.md §3's backup-group nomination rule. On Load a
// matching name nominates a group exactly as the IsDeleted flag does.
func looksLikeBackupName(name string) bool {
	switch name {
	case "Backup", "Recycle Bin":
		return true
	default:
		return false
	}
}

const (
	// DefaultBackupGroupName is used when creating a new backup group on demand.
	DefaultBackupGroupName = "Backup"
	// DefaultBackupGroupIcon is the canonical icon id KeePass 1.x uses for
	// the backup group.
	DefaultBackupGroupIcon uint32 = 2
)
