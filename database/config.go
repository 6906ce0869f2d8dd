// Package database is the ambient executor layer (§5, §7): it never
// constructs DDL, only runs the Statement stream a dialect's GenerateDDL
// produced against a live connection, and carries the config/logging
// surface around that.
package database

import (
	"bytes"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// GeneratorConfig mirrors the teacher's config file overrides
// (target_tables/skip_tables/skip_views/...), read via gopkg.in/yaml.v2,
// grounded on database/database.go's ParseGeneratorConfig.
type GeneratorConfig struct {
	TargetTables      []string
	SkipTables        []string
	SkipViews         []string
	TargetSchema      []string
	IncludePrivileges []string
	EnableDrop        bool
	DumpConcurrency   int
}

// ParseGeneratorConfig reads a YAML config file the same shape the
// teacher's does; a missing path is not an error (no overrides).
func ParseGeneratorConfig(configFile string) (GeneratorConfig, error) {
	if configFile == "" {
		return GeneratorConfig{}, nil
	}
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return GeneratorConfig{}, err
	}
	return parseGeneratorConfigFromBytes(buf)
}

func parseGeneratorConfigFromBytes(buf []byte) (GeneratorConfig, error) {
	var raw struct {
		TargetTables      string   `yaml:"target_tables"`
		SkipTables        string   `yaml:"skip_tables"`
		SkipViews         string   `yaml:"skip_views"`
		TargetSchema      string   `yaml:"target_schema"`
		IncludePrivileges []string `yaml:"include_privileges"`
		EnableDrop        bool     `yaml:"enable_drop"`
		DumpConcurrency   int      `yaml:"dump_concurrency"`
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return GeneratorConfig{}, err
	}

	return GeneratorConfig{
		TargetTables:      splitLines(raw.TargetTables),
		SkipTables:        splitLines(raw.SkipTables),
		SkipViews:         splitLines(raw.SkipViews),
		TargetSchema:      splitLines(raw.TargetSchema),
		IncludePrivileges: raw.IncludePrivileges,
		EnableDrop:        raw.EnableDrop,
		DumpConcurrency:   raw.DumpConcurrency,
	}, nil
}

func splitLines(s string) []string {
	s = strings.Trim(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// MergeGeneratorConfig merges two configs, the override taking precedence
// on every field it sets, grounded on database/database.go's
// MergeGeneratorConfig.
func MergeGeneratorConfig(base, override GeneratorConfig) GeneratorConfig {
	result := base
	if override.TargetTables != nil {
		result.TargetTables = override.TargetTables
	}
	if override.SkipTables != nil {
		result.SkipTables = override.SkipTables
	}
	if override.SkipViews != nil {
		result.SkipViews = override.SkipViews
	}
	if override.TargetSchema != nil {
		result.TargetSchema = override.TargetSchema
	}
	if override.IncludePrivileges != nil {
		result.IncludePrivileges = override.IncludePrivileges
	}
	if override.DumpConcurrency != 0 {
		result.DumpConcurrency = override.DumpConcurrency
	}
	result.EnableDrop = result.EnableDrop || override.EnableDrop
	return result
}
