package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGeneratorConfigFromBytes(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected GeneratorConfig
	}{
		{
			name: "full config",
			yaml: "" +
				"target_tables: |\n  users\n  orders\n" +
				"skip_tables: |\n  _migrations\n" +
				"skip_views: |\n  v_internal\n" +
				"target_schema: |\n  public\n" +
				"include_privileges:\n  - app_user\n" +
				"enable_drop: true\n" +
				"dump_concurrency: 4\n",
			expected: GeneratorConfig{
				TargetTables:      []string{"users", "orders"},
				SkipTables:        []string{"_migrations"},
				SkipViews:         []string{"v_internal"},
				TargetSchema:      []string{"public"},
				IncludePrivileges: []string{"app_user"},
				EnableDrop:        true,
				DumpConcurrency:   4,
			},
		},
		{
			name:     "empty config",
			yaml:     "",
			expected: GeneratorConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGeneratorConfigFromBytes([]byte(tt.yaml))
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseGeneratorConfigMissingFile(t *testing.T) {
	cfg, err := ParseGeneratorConfig("")
	assert.NoError(t, err)
	assert.Equal(t, GeneratorConfig{}, cfg)
}

func TestMergeGeneratorConfig(t *testing.T) {
	base := GeneratorConfig{
		TargetTables:    []string{"users"},
		SkipTables:      []string{"_migrations"},
		EnableDrop:      false,
		DumpConcurrency: 2,
	}
	override := GeneratorConfig{
		SkipTables:      []string{"_migrations", "_legacy"},
		EnableDrop:      true,
		DumpConcurrency: 0,
	}

	merged := MergeGeneratorConfig(base, override)

	assert.Equal(t, []string{"users"}, merged.TargetTables, "unset override fields keep the base value")
	assert.Equal(t, []string{"_migrations", "_legacy"}, merged.SkipTables)
	assert.True(t, merged.EnableDrop, "EnableDrop ORs rather than overwrites")
	assert.Equal(t, 2, merged.DumpConcurrency, "a zero override leaves DumpConcurrency untouched")
}

func TestMergeGeneratorConfigEnableDropOnlyWidens(t *testing.T) {
	base := GeneratorConfig{EnableDrop: true}
	override := GeneratorConfig{EnableDrop: false}

	merged := MergeGeneratorConfig(base, override)

	assert.True(t, merged.EnableDrop, "EnableDrop never narrows back to false")
}
