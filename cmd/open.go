// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdbvault/kdbvault/internal/db"
	"github.com/kdbvault/kdbvault/internal/kdb"
)

var openCmd = &cobra.Command{
	Use:   "open path",
	Short: "Open a vault and print its group/entry tree",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadProfile(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOpen(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, path string) error {
	started := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading vault file: %w", err)
	}

	password, _ := cmd.Flags().GetString("password")
	keyFile, _ := cmd.Flags().GetString("key-file")
	compositeKey, err := resolveCompositeKey(cmd.Context(), password, keyFile)
	if err != nil {
		return err
	}

	vault, err := kdb.Load(data, compositeKey, nil)
	finished := time.Now()
	if err != nil {
		recordOperation(db.OperationRecord{
			Operation: "open", FilePath: path,
			StartedAt: started, FinishedAt: finished,
			FailureKind: kindOf(err),
		})
		return fmt.Errorf("opening vault: %w", err)
	}

	for _, w := range vault.Warnings {
		slog.Warn(w.Message, "code", w.Code)
	}
	printTree(vault, vault.Root(), 0)

	recordOperation(db.OperationRecord{
		Operation: "open", FilePath: path,
		StartedAt: started, FinishedAt: finished, Succeeded: true,
		Warnings: len(vault.Warnings),
	})
	return nil
}

func printTree(vault *kdb.Database, id kdb.NodeID, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, child := range vault.Children(id) {
		g := vault.Group(child)
		fmt.Printf("%s%s\n", indent, g.Name)
		for _, e := range vault.Entries(child) {
			fmt.Printf("%s  - %s (%s)\n", indent, e.Title, e.Username)
		}
		printTree(vault, child, depth+1)
	}
}
