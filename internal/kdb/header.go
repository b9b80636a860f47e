// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

import (
	"crypto/rand"
	"encoding/binary"
)

// HeaderLen is the fixed on-disk header size; the payload begins here.
const HeaderLen = 124

// Required magic values and version mask identifying a KDB v1 file,
// grounded on the gokeepasslib reference signature constants (adapted to
// v1's distinct values) and spec.md §6.
const (
	signature1 uint32 = 0x9AA2D903
	signature2 uint32 = 0xB54BFB65

	versionMask uint32 = 0xFFFFFF00
	versionWant uint32 = 0x00030004
)

// Flag bits within Header.Flags.
const (
	flagAES     uint32 = 1 << 2
	flagTwofish uint32 = 1 << 3
)

// Header is the fixed-layout 124-byte KDB v1 file header (spec.md §3, §6).
type Header struct {
	Flags           uint32
	Version         uint32
	MasterSeed      [16]byte
	IV              [16]byte
	GroupCount      uint32
	EntryCount      uint32
	ContentHash     [32]byte
	TransformSeed   [32]byte
	TransformRounds uint32
}

// Cipher reports which bulk cipher the header selects.
func (h *Header) Cipher() (CipherKind, error) {
	switch {
	case h.Flags&flagAES != 0 && h.Flags&flagTwofish == 0:
		return CipherAES, nil
	case h.Flags&flagTwofish != 0 && h.Flags&flagAES == 0:
		return CipherTwofish, nil
	default:
		return 0, newErr(CorruptedHeaderKind, nil)
	}
}

func (h *Header) setCipher(kind CipherKind) {
	h.Flags &^= flagAES | flagTwofish
	switch kind {
	case CipherAES:
		h.Flags |= flagAES
	case CipherTwofish:
		h.Flags |= flagTwofish
	}
}

// IsSignatureMatch inspects only the first 12 bytes of b (the two
// signatures plus flags word is not required; spec.md §6 only requires
// the signatures) and reports whether they identify a KDB v1 file. It
// never validates the rest of the header and never returns an error.
func IsSignatureMatch(b []byte) bool {
	if len(b) < 12 {
		return false
	}
	return binary.LittleEndian.Uint32(b[0:4]) == signature1 &&
		binary.LittleEndian.Uint32(b[4:8]) == signature2
}

// ReadHeader parses the fixed 124-byte header from the front of b.
func ReadHeader(b []byte) (*Header, error) {
	if len(b) < HeaderLen {
		return nil, newErr(CorruptedHeaderKind, nil)
	}
	if !IsSignatureMatch(b) {
		return nil, newErr(CorruptedHeaderKind, nil)
	}
	r := NewReader(b[:HeaderLen])
	// signatures already validated by IsSignatureMatch
	if _, err := r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	if _, err := r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}

	h := &Header{}
	var err error
	if h.Flags, err = r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	if h.Version, err = r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	if h.Version&versionMask != versionWant&versionMask {
		return nil, newErr(CorruptedHeaderKind, nil)
	}
	ms, err := r.take(16)
	if err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	copy(h.MasterSeed[:], ms)
	iv, err := r.take(16)
	if err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	copy(h.IV[:], iv)
	if h.GroupCount, err = r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	if h.EntryCount, err = r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	ch, err := r.take(32)
	if err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	copy(h.ContentHash[:], ch)
	ts, err := r.take(32)
	if err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	copy(h.TransformSeed[:], ts)
	if h.TransformRounds, err = r.ReadU32(); err != nil {
		return nil, newErr(CorruptedHeaderKind, err)
	}
	if _, err := h.Cipher(); err != nil {
		return nil, err
	}
	return h, nil
}

// Write emits the 124-byte header in fixed layout order.
func (h *Header) Write(w *Writer) {
	w.WriteU32(signature1)
	w.WriteU32(signature2)
	w.WriteU32(h.Flags)
	w.WriteU32(h.Version)
	w.WriteBlob(h.MasterSeed[:])
	w.WriteBlob(h.IV[:])
	w.WriteU32(h.GroupCount)
	w.WriteU32(h.EntryCount)
	w.WriteBlob(h.ContentHash[:])
	w.WriteBlob(h.TransformSeed[:])
	w.WriteU32(h.TransformRounds)
}

// RandomizeSeeds fills MasterSeed, IV, and TransformSeed from a
// cryptographically secure RNG, per spec.md §4.3.
func (h *Header) RandomizeSeeds() error {
	if _, err := rand.Read(h.MasterSeed[:]); err != nil {
		return newErr(RngErrorKind, err)
	}
	if _, err := rand.Read(h.IV[:]); err != nil {
		return newErr(RngErrorKind, err)
	}
	if _, err := rand.Read(h.TransformSeed[:]); err != nil {
		return newErr(RngErrorKind, err)
	}
	return nil
}

// NewHeader returns a header with the fixed version/signature fields set,
// the given cipher selected, and the given transform rounds, but zeroed
// seeds/IV (call RandomizeSeeds before Save).
func NewHeader(kind CipherKind, rounds uint32) *Header {
	h := &Header{Version: versionWant, TransformRounds: rounds}
	h.setCipher(kind)
	return h
}
