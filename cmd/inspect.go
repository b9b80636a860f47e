// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdbvault/kdbvault/internal/kdb"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect path",
	Short: "Report a file's KDB v1 header without decrypting its contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if !kdb.IsSignatureMatch(data) {
		fmt.Println("not a KDB v1 file")
		return nil
	}

	header, err := kdb.ReadHeader(data)
	if err != nil {
		return fmt.Errorf("parsing header: %w", err)
	}
	cipher, err := header.Cipher()
	if err != nil {
		return fmt.Errorf("reading cipher flags: %w", err)
	}

	cipherName := "AES"
	if cipher == kdb.CipherTwofish {
		cipherName = "Twofish"
	}
	fmt.Printf("cipher: %s\n", cipherName)
	fmt.Printf("transform rounds: %d\n", header.TransformRounds)
	fmt.Printf("groups: %d\n", header.GroupCount)
	fmt.Printf("entries: %d\n", header.EntryCount)
	return nil
}
