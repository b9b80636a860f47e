// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// Attachment is an entry's optional binary payload: a name plus data.
// KDB v1 never compresses attachments and has no global binary pool
// (spec.md §3).
type Attachment struct {
	Name string
	Data []byte
}

// Wipe zeroes the attachment's data in place.
func (a *Attachment) Wipe() {
	wipeBytes(a.Data)
}

// Entry is a KDB v1 entry record (spec.md §3). GroupID references the
// owning Group.ID. Password is a Go string; Wipe clears the reference but
// cannot zero its bytes.
type Entry struct {
	UUID       [16]byte
	GroupID    uint32
	IconID     uint32
	Title      string
	URL        string
	Username   string
	Password   string
	Notes      string
	Created    Timestamp
	LastMod    Timestamp
	LastAccess Timestamp
	Expires    Timestamp
	Attachment *Attachment

	// isDeleted is propagated from the owning group at tree-assembly time
	// (spec.md §4.5 step 4); it is not itself a wire field.
	isDeleted bool
}

// IsDeleted reports whether the entry's owning group carries the deleted
// flag, or whether DeleteEntry/DeleteGroup moved it to the backup group.
func (e *Entry) IsDeleted() bool { return e.isDeleted }

// Wipe zeroes the entry's password and attachment data in place. Title/
// URL/username/notes are not secret per spec.md's data model and are
// left alone.
func (e *Entry) Wipe() {
	if e.Password != "" {
		// strings are immutable in Go; the best we can do without unsafe
		// is drop the reference and let the GC reclaim the backing
		// array. Note this is weaker than SecureBytes's guaranteed
		// zeroing, which is why the engine never stores decrypted bulk
		// content inside a string for longer than necessary to hand it
		// to the caller.
		e.Password = ""
	}
	if e.Attachment != nil {
		e.Attachment.Wipe()
	}
}

// reservedMetaStreamNotes are the small set of notes values that, combined
// with the rest of isMetaStream's predicate, mark an entry as format-
// internal rather than user content (spec.md §3, §9).
var reservedMetaStreamNotes = map[string]bool{
	"KPX_CUSTOM_ICONS_4":  true,
	"KPX_GROUP_TREE_STATE": true,
}

// isMetaStream implements the single pure predicate spec.md §3/§9
// requires, reused identically by both the load and save paths: binary
// data length > 0, notes in the reserved set, title == "Meta-Info",
// username == "SYSTEM", URL == "$", and icon id == 0.
func isMetaStream(e *Entry) bool {
	return e.Attachment != nil &&
		len(e.Attachment.Data) > 0 &&
		reservedMetaStreamNotes[e.Notes] &&
		e.Title == "Meta-Info" &&
		e.Username == "SYSTEM" &&
		e.URL == "$" &&
		e.IconID == 0
}
