// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package db backs the operation audit log, an optional, metadata-only
// record of vault operations (create/open/rekey), kept entirely
// separate from the kdb engine package per SPEC_FULL.md §4. It never
// sees composite keys, master keys, or decrypted field values.
package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// State wraps the gorm handle used by the audit log, mirroring the
// teacher's internal/db.State shape (a single *gorm.DB field reached
// through InitDb).
type State struct {
	DB *gorm.DB
}

// InitDb opens dialect ("sqlite" or "postgres") at dsn, migrates the
// OperationRecord table, and returns a ready State.
func InitDb(dialect, dsn string) (*State, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(dialect) {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s (must be 'sqlite' or 'postgres')", dialect)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("opening audit log database: %w", err)
	}
	if err := gdb.AutoMigrate(&OperationRecord{}); err != nil {
		return nil, fmt.Errorf("migrating audit log schema: %w", err)
	}
	return &State{DB: gdb}, nil
}
