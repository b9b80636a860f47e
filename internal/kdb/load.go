// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// Load runs the pipeline of spec.md §2: header -> derive master key ->
// decrypt payload -> verify content hash -> parse groups/entries ->
// rebuild tree. On success the returned Database retains compositeKey for
// a subsequent Save. progress may be nil.
func Load(data []byte, compositeKey *SecureBytes, progress *Progress) (*Database, error) {
	header, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	cipherKind, err := header.Cipher()
	if err != nil {
		return nil, err
	}

	masterKey, err := deriveMasterKey(compositeKey, header.MasterSeed, header.TransformSeed, header.TransformRounds, progress, 0)
	if err != nil {
		return nil, err
	}

	progress.setPhase(PhaseDecryption, weightKDF)
	payload := data[HeaderLen:]
	plaintext, err := cbcDecrypt(cipherKind, masterKey.Bytes(), header.IV[:], payload, cipherKind == CipherTwofish /* lenient for Twofish only */)
	if err != nil {
		masterKey.Wipe()
		return nil, err
	}
	progress.advance(weightKDF + weightCipher)

	gotHash := contentHash(plaintext)
	if gotHash != header.ContentHash {
		wipeBytes(plaintext)
		masterKey.Wipe()
		return nil, newErr(InvalidKeyKind, nil)
	}

	progress.setPhase(PhaseParsing, weightKDF+weightCipher)
	groups, entries, err := parseContent(plaintext, header.GroupCount, header.EntryCount, progress)
	wipeBytes(plaintext)
	if err != nil {
		masterKey.Wipe()
		return nil, err
	}

	t, meta, warnings, err := assembleTree(groups, entries)
	if err != nil {
		masterKey.Wipe()
		return nil, err
	}

	db := &Database{
		header:       header,
		compositeKey: compositeKey.Clone(),
		masterKey:    masterKey,
		tree:         t,
		meta:         meta,
		Warnings:     warnings,
	}
	db.nominateBackupGroup()
	progress.advance(100)
	return db, nil
}

// parseContent reads GroupCount groups followed by EntryCount entries
// from the decrypted payload, polling for cancellation between records
// per spec.md §5's latency bound.
func parseContent(payload []byte, groupCount, entryCount uint32, progress *Progress) ([]*Group, []*Entry, error) {
	r := NewReader(payload)
	groups := make([]*Group, 0, groupCount)
	for i := uint32(0); i < groupCount; i++ {
		if err := progress.pollCancel(); err != nil {
			return nil, nil, err
		}
		g, err := ParseGroup(r)
		if err != nil {
			return nil, nil, err
		}
		groups = append(groups, g)
	}
	entries := make([]*Entry, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		if err := progress.pollCancel(); err != nil {
			return nil, nil, err
		}
		e, err := ParseEntry(r)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
	}
	return groups, entries, nil
}
