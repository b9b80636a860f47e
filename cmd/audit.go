// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print the operation audit log, if one is configured",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadProfile(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd)
	},
}

func init() {
	auditCmd.Flags().Int("limit", 20, "maximum number of records to print")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command) error {
	if auditState == nil {
		return errors.New("no audit log configured (set audit.type/audit.dsn in the vault profile)")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := auditState.RecentOperations(limit)
	if err != nil {
		return fmt.Errorf("reading audit log: %w", err)
	}
	for _, rec := range records {
		status := "ok"
		if !rec.Succeeded {
			status = "FAILED:" + rec.FailureKind
		}
		fmt.Printf("%s  %-8s %-30s %s\n", rec.StartedAt.Format("2006-01-02T15:04:05"), rec.Operation, rec.FilePath, status)
	}
	return nil
}
