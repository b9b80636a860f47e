// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

import "sync/atomic"

// Phase labels published on a Progress handle during Load/Save, per
// spec.md §6.
const (
	PhaseKeyDerivation = "Key derivation"
	PhaseDecryption    = "Decryption"
	PhaseEncryption    = "Encryption"
	PhaseParsing       = "Parsing content"
	PhasePacking       = "Packing the content"
)

// Stage weights out of 100, per spec.md §4.6.
const (
	weightKDF    = 60
	weightCipher = 30
	weightPack   = 10
)

// Progress is a small handle passed by reference into each pipeline
// stage. It carries a 0-100 completion scalar and a cooperative cancel
// flag; no global state is involved, so multiple Load/Save calls (not
// run concurrently on one Database, per spec.md §5) can each use their
// own handle.
type Progress struct {
	phase   atomic.Value // string
	percent atomic.Int64
	cancel  atomic.Bool
}

// NewProgress returns a handle with 0% complete and no cancellation requested.
func NewProgress() *Progress {
	p := &Progress{}
	p.phase.Store("")
	return p
}

// Phase reports the current phase label.
func (p *Progress) Phase() string {
	if p == nil {
		return ""
	}
	v, _ := p.phase.Load().(string)
	return v
}

// Percent reports 0-100 completion.
func (p *Progress) Percent() int {
	if p == nil {
		return 0
	}
	return int(p.percent.Load())
}

// RequestCancel asks the running operation to stop at its next poll point.
func (p *Progress) RequestCancel() {
	if p == nil {
		return
	}
	p.cancel.Store(true)
}

// cancelled reports whether cancellation was requested. Safe on a nil handle.
func (p *Progress) cancelled() bool {
	return p != nil && p.cancel.Load()
}

// setPhase starts a new named phase, resetting percent within it to the
// phase's starting weight.
func (p *Progress) setPhase(name string, base int) {
	if p == nil {
		return
	}
	p.phase.Store(name)
	p.percent.Store(int64(base))
}

// advance sets percent to an absolute 0-100 value within the current phase.
func (p *Progress) advance(percent int) {
	if p == nil {
		return
	}
	if percent > 100 {
		percent = 100
	}
	p.percent.Store(int64(percent))
}

// pollCancel checks the cancel flag at an inner-loop boundary (between KDF
// rounds, between field decodes) and returns a Cancelled error if set. The
// caller is responsible for wiping any transient buffers before returning.
func (p *Progress) pollCancel() error {
	if p.cancelled() {
		return newCancelled("cancelled by caller")
	}
	return nil
}
