// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// SecureBytes is a byte buffer whose backing storage is explicitly zeroed
// when Wipe is called. The composite key and the master key are held in
// one of these. The KDF's transform output is a plain []byte zeroed with
// wipeBytes, and entry passwords are Go strings (see Entry.Wipe); neither
// is held in a SecureBytes.
//
// SecureBytes does not forbid copying at the language level (Go has no
// move-only types), but callers must treat a SecureBytes value as
// single-owner and call Wipe on every exit path, including failures and
// cancellation.
type SecureBytes struct {
	b []byte
}

// NewSecureBytes takes ownership of b; the caller must not read or write
// b directly afterwards.
func NewSecureBytes(b []byte) *SecureBytes {
	return &SecureBytes{b: b}
}

// Bytes returns the underlying slice. The slice aliases SecureBytes'
// storage and becomes invalid after Wipe.
func (s *SecureBytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len reports the number of bytes held, or 0 for a nil receiver.
func (s *SecureBytes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe zeroes the backing storage. Safe to call multiple times and on nil.
func (s *SecureBytes) Wipe() {
	if s == nil {
		return
	}
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = nil
}

// Clone returns a new SecureBytes holding a copy of the data. Used where
// an explicit duplication is wanted rather than an implicit alias (e.g.
// Load keeping its own copy of the caller's composite key).
func (s *SecureBytes) Clone() *SecureBytes {
	if s == nil {
		return nil
	}
	cp := make([]byte, len(s.b))
	copy(cp, s.b)
	return &SecureBytes{b: cp}
}

// wipeBytes zeroes a plain slice in place, for transient buffers that
// never warranted a full SecureBytes wrapper (e.g. intermediate cipher
// output already copied elsewhere).
func wipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
