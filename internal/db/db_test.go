// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package db

import (
	"testing"
	"time"
)

func TestInitDbRejectsUnknownDialect(t *testing.T) {
	if _, err := InitDb("oracle", "whatever"); err == nil {
		t.Fatal("expected an error for an unsupported database type")
	}
}

func TestRecordAndListOperations(t *testing.T) {
	state, err := InitDb("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("InitDb: %v", err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := state.RecordOperation(OperationRecord{
		Operation:  "open",
		FilePath:   "/tmp/test.kdb",
		StartedAt:  now,
		FinishedAt: now.Add(time.Millisecond),
		Succeeded:  true,
	}); err != nil {
		t.Fatalf("RecordOperation: %v", err)
	}
	if err := state.RecordOperation(OperationRecord{
		Operation:   "open",
		FilePath:    "/tmp/test.kdb",
		StartedAt:   now.Add(time.Second),
		FinishedAt:  now.Add(time.Second),
		Succeeded:   false,
		FailureKind: "InvalidKey",
	}); err != nil {
		t.Fatalf("RecordOperation: %v", err)
	}

	recs, err := state.RecentOperations(10)
	if err != nil {
		t.Fatalf("RecentOperations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].FailureKind != "InvalidKey" {
		t.Fatalf("most recent record = %+v, want the failed one first", recs[0])
	}
}
