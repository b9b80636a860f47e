// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package vaultconfig decodes the vault profile: default transform
// rounds, cipher choice, and template group set, mirroring the
// teacher's FDOServerConfig/DatabaseConfig mapstructure idiom
// (SPEC_FULL.md §3).
package vaultconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kdbvault/kdbvault/internal/kdb"
)

// LogConfig configures the CLI's slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuditConfig configures the optional operation audit log.
type AuditConfig struct {
	Type string `mapstructure:"type"` // "sqlite" or "postgres"
	DSN  string `mapstructure:"dsn"`
}

// Enabled reports whether an audit log was configured.
func (a AuditConfig) Enabled() bool { return a.DSN != "" }

// TemplateGroupConfig is the on-disk shape of one default group entry.
type TemplateGroupConfig struct {
	Name   string `mapstructure:"name"`
	IconID uint32 `mapstructure:"icon"`
}

// VaultProfile is the top-level configuration file shape, decoded by
// viper + mapstructure in a single Decode call. Cipher only selects the
// kdb.CipherKind; there are no cipher-specific settings, and the template
// groups do not depend on it.
type VaultProfile struct {
	Log             LogConfig             `mapstructure:"log"`
	Audit           AuditConfig           `mapstructure:"audit"`
	Cipher          string                `mapstructure:"cipher"` // "aes" or "twofish"
	TransformRounds uint32                `mapstructure:"transform_rounds"`
	TemplateGroups  []TemplateGroupConfig `mapstructure:"template_groups"`
}

// DefaultTransformRounds matches the historical KeePass 1.x default.
const DefaultTransformRounds uint32 = 6000

// Decode decodes raw (as produced by viper.AllSettings()) into a
// VaultProfile, applying defaults for any field the file omits.
func Decode(raw map[string]interface{}) (*VaultProfile, error) {
	profile := &VaultProfile{
		Cipher:          "aes",
		TransformRounds: DefaultTransformRounds,
	}
	if err := mapstructure.Decode(raw, profile); err != nil {
		return nil, fmt.Errorf("decoding vault profile: %w", err)
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *VaultProfile) validate() error {
	switch strings.ToLower(p.Cipher) {
	case "aes", "twofish":
		p.Cipher = strings.ToLower(p.Cipher)
	default:
		return fmt.Errorf("unsupported cipher %q (must be 'aes' or 'twofish')", p.Cipher)
	}
	if p.TransformRounds == 0 {
		return errors.New("transform_rounds must be greater than zero")
	}
	if p.Audit.DSN != "" && p.Audit.Type == "" {
		return errors.New("audit.type is required when audit.dsn is set")
	}
	return nil
}

// CipherKind returns the kdb.CipherKind the profile selects.
func (p *VaultProfile) CipherKind() kdb.CipherKind {
	if p.Cipher == "twofish" {
		return kdb.CipherTwofish
	}
	return kdb.CipherAES
}

// Groups returns the configured template groups, falling back to
// kdb.DefaultTemplateGroups when the profile does not override them.
func (p *VaultProfile) Groups() []kdb.TemplateGroup {
	if len(p.TemplateGroups) == 0 {
		return kdb.DefaultTemplateGroups
	}
	out := make([]kdb.TemplateGroup, len(p.TemplateGroups))
	for i, g := range p.TemplateGroups {
		out[i] = kdb.TemplateGroup{Name: g.Name, IconID: g.IconID}
	}
	return out
}
