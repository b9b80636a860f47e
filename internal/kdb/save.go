// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// Save serializes the tree, recomputes the content hash, randomizes the
// header's seeds, re-derives the master key, encrypts, and returns the
// concatenated header + ciphertext, per spec.md §2 and §4.6. progress may
// be nil.
func (db *Database) Save(progress *Progress) ([]byte, error) {
	cipherKind, err := db.header.Cipher()
	if err != nil {
		return nil, err
	}

	progress.setPhase(PhasePacking, 0)
	groups, entries := serializeTree(db.tree, db.meta)
	w := NewWriter()
	for _, g := range groups {
		if err := progress.pollCancel(); err != nil {
			return nil, err
		}
		SerializeGroup(w, g)
	}
	for _, e := range entries {
		if err := progress.pollCancel(); err != nil {
			return nil, err
		}
		SerializeEntry(w, e)
	}
	payload := w.Bytes()

	db.header.GroupCount = uint32(len(groups))
	db.header.EntryCount = uint32(len(entries))
	db.header.ContentHash = contentHash(payload)

	progress.advance(weightPack)

	if err := db.header.RandomizeSeeds(); err != nil {
		return nil, err
	}

	masterKey, err := deriveMasterKey(db.compositeKey, db.header.MasterSeed, db.header.TransformSeed, db.header.TransformRounds, progress, weightPack)
	if err != nil {
		wipeBytes(payload)
		return nil, err
	}

	progress.setPhase(PhaseEncryption, weightKDF+weightPack)
	ciphertext, err := cbcEncrypt(cipherKind, masterKey.Bytes(), db.header.IV[:], payload)
	wipeBytes(payload)
	if err != nil {
		masterKey.Wipe()
		return nil, err
	}
	progress.advance(100)

	if db.masterKey != nil {
		db.masterKey.Wipe()
	}
	db.masterKey = masterKey

	hw := NewWriter()
	db.header.Write(hw)
	out := append(hw.Bytes(), ciphertext...)
	return out, nil
}
