// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package db

import "time"

// OperationRecord is one row of the audit log: which vault operation ran
// against which file, when, and whether it succeeded. FailureKind holds
// the KDBError.Kind string on failure; it is empty on success. Nothing
// secret (keys, passwords, decrypted fields) is ever written here.
type OperationRecord struct {
	ID          uint `gorm:"primarykey"`
	Operation   string
	FilePath    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Succeeded   bool
	FailureKind string
	Warnings    int
}

// RecordOperation inserts one OperationRecord. Called by cmd/ after each
// create/open/rekey, never by the engine itself (spec.md §5 keeps the
// engine synchronous and side-effect free).
func (s *State) RecordOperation(rec OperationRecord) error {
	return s.DB.Create(&rec).Error
}

// RecentOperations returns the last n records, most recent first, for
// `kdbvault audit`.
func (s *State) RecentOperations(n int) ([]OperationRecord, error) {
	var out []OperationRecord
	err := s.DB.Order("started_at desc").Limit(n).Find(&out).Error
	return out, err
}
