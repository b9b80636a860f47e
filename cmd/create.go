// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdbvault/kdbvault/internal/db"
	"github.com/kdbvault/kdbvault/internal/kdb"
)

var createCmd = &cobra.Command{
	Use:   "create path",
	Short: "Create a new vault from the configured template",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadProfile(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, path string) error {
	started := time.Now()

	password, _ := cmd.Flags().GetString("password")
	keyFile, _ := cmd.Flags().GetString("key-file")
	compositeKey, err := resolveCompositeKey(cmd.Context(), password, keyFile)
	if err != nil {
		return err
	}

	vault := kdb.New(profile.CipherKind(), profile.TransformRounds)
	vault.SetCompositeKey(compositeKey)

	ids := vault.ApplyTemplate(profile.Groups())
	slog.Info("applied template", "groups", len(ids))

	data, err := vault.Save(nil)
	finished := time.Now()
	if err != nil {
		recordOperation(db.OperationRecord{
			Operation: "create", FilePath: path,
			StartedAt: started, FinishedAt: finished,
			FailureKind: kindOf(err),
		})
		return fmt.Errorf("saving new vault: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		recordOperation(db.OperationRecord{
			Operation: "create", FilePath: path,
			StartedAt: started, FinishedAt: time.Now(),
			FailureKind: "WriteError",
		})
		return fmt.Errorf("writing vault file: %w", err)
	}

	recordOperation(db.OperationRecord{
		Operation: "create", FilePath: path,
		StartedAt: started, FinishedAt: finished, Succeeded: true,
	})
	slog.Info("created vault", "path", path, "groups", len(ids))
	return nil
}

// kindOf extracts a *kdb.KDBError's Kind as a string for the audit log,
// or "" if err is not a *kdb.KDBError.
func kindOf(err error) string {
	var kerr *kdb.KDBError
	if errors.As(err, &kerr) {
		return kerr.Kind.String()
	}
	return ""
}
