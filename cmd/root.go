// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"hermannm.dev/devlog"

	"github.com/kdbvault/kdbvault/internal/db"
	"github.com/kdbvault/kdbvault/internal/vaultconfig"
)

var (
	debug    bool
	logLevel slog.LevelVar

	auditState *db.State
	profile    *vaultconfig.VaultProfile
)

var rootCmd = &cobra.Command{
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Use:   "kdbvault",
	Short: "Open, create, and rekey KeePass v1 (.kdb) databases",
	Long: `kdbvault drives the KDB v1 engine end to end: creating a new
	vault from the default template, opening and listing an existing
	one, changing its composite key, or inspecting a file's header
	without decrypting it.
`,
}

// Execute adds all child commands to the root command and runs it. It is
// called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{
		Level: &logLevel,
	})))

	rootCmd.PersistentFlags().Bool("debug", false, "print debug-level log output")
	rootCmd.PersistentFlags().String("config", "", "pathname of the vault profile configuration file")
	rootCmd.PersistentFlags().String("password", "", "composite key password")
	rootCmd.PersistentFlags().String("key-file", "", "path to a detached key file")
}

// loadProfile binds cmd's flags into viper, reads the config file if one
// was given, decodes the vault profile, and (if an audit DSN is
// configured) opens the audit log. The create, open, rekey, and audit
// subcommands call this from their PreRunE; inspect does not.
func loadProfile(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return err
	}

	if configFilePath := viper.GetString("config"); configFilePath != "" {
		viper.SetConfigFile(configFilePath)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	debug = viper.GetBool("debug")
	if debug {
		logLevel.Set(slog.LevelDebug)
	}

	p, err := vaultconfig.Decode(viper.AllSettings())
	if err != nil {
		return err
	}
	profile = p

	if profile.Audit.Enabled() {
		state, err := db.InitDb(profile.Audit.Type, profile.Audit.DSN)
		if err != nil {
			return err
		}
		auditState = state
	}
	return nil
}

// recordOperation writes an OperationRecord if an audit log is
// configured; it is a no-op otherwise.
func recordOperation(rec db.OperationRecord) {
	if auditState == nil {
		return
	}
	if err := auditState.RecordOperation(rec); err != nil {
		slog.Warn("failed to write audit log record", "err", err)
	}
}
