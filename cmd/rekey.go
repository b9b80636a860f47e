// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdbvault/kdbvault/internal/db"
	"github.com/kdbvault/kdbvault/internal/kdb"
)

var rekeyCmd = &cobra.Command{
	Use:   "rekey path",
	Short: "Change a vault's composite key in place",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadProfile(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRekey(cmd, args[0])
	},
}

func init() {
	rekeyCmd.Flags().String("new-password", "", "the vault's new composite key password")
	rekeyCmd.Flags().String("new-key-file", "", "path to a new detached key file")
	rootCmd.AddCommand(rekeyCmd)
}

func runRekey(cmd *cobra.Command, path string) error {
	started := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading vault file: %w", err)
	}

	password, _ := cmd.Flags().GetString("password")
	keyFile, _ := cmd.Flags().GetString("key-file")
	oldKey, err := resolveCompositeKey(cmd.Context(), password, keyFile)
	if err != nil {
		return err
	}

	vault, err := kdb.Load(data, oldKey, nil)
	if err != nil {
		recordOperation(db.OperationRecord{
			Operation: "rekey", FilePath: path,
			StartedAt: started, FinishedAt: time.Now(),
			FailureKind: kindOf(err),
		})
		return fmt.Errorf("opening vault: %w", err)
	}

	newPassword, _ := cmd.Flags().GetString("new-password")
	newKeyFile, _ := cmd.Flags().GetString("new-key-file")
	newKey, err := resolveCompositeKey(cmd.Context(), newPassword, newKeyFile)
	if err != nil {
		return err
	}
	vault.ChangeCompositeKey(newKey)

	newData, err := vault.Save(nil)
	finished := time.Now()
	if err != nil {
		recordOperation(db.OperationRecord{
			Operation: "rekey", FilePath: path,
			StartedAt: started, FinishedAt: finished,
			FailureKind: kindOf(err),
		})
		return fmt.Errorf("saving rekeyed vault: %w", err)
	}

	if err := os.WriteFile(path, newData, 0o600); err != nil {
		return fmt.Errorf("writing vault file: %w", err)
	}

	recordOperation(db.OperationRecord{
		Operation: "rekey", FilePath: path,
		StartedAt: started, FinishedAt: finished, Succeeded: true,
	})
	return nil
}
