// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/kdbvault/kdbvault/internal/kdb"
)

// unlockLimiter throttles composite-key attempts within a single process
// invocation to one every 200ms, bursting up to 3 — a per-process safety
// valve against a caller scripting many key-file guesses in a loop, not
// a network rate limit (SPEC_FULL.md §4).
var unlockLimiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 3)

// resolveCompositeKey builds the composite key from the --password and
// --key-file flags per spec.md §6: password alone, or password plus a
// detached key file's hash. Each call first waits on unlockLimiter.
func resolveCompositeKey(ctx context.Context, password, keyFilePath string) (*kdb.SecureBytes, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := unlockLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("unlock attempt throttled: %w", err)
	}
	if keyFilePath == "" {
		if password == "" {
			return nil, errors.New("either --password or --key-file (or both) is required")
		}
		return kdb.CompositeKeyFromPassword(password), nil
	}

	f, err := os.Open(keyFilePath)
	if err != nil {
		return nil, fmt.Errorf("opening key file: %w", err)
	}
	defer f.Close()

	hash, err := kdb.ReadKeyFileHash(f)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return kdb.CompositeKeyFromPasswordAndKeyFile(password, hash), nil
}
