package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTestsDetectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "a.yml", "foo:\n  desired: |\n    CREATE TABLE x (id INTEGER)\n")
	writeYAML(t, dir, "b.yml", "foo:\n  desired: |\n    CREATE TABLE y (id INTEGER)\n")

	_, err := ReadTests(filepath.Join(dir, "*.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate test case name")
}

func TestReadTestsMergesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "a.yml", "foo:\n  desired: |\n    CREATE TABLE x (id INTEGER)\n")
	writeYAML(t, dir, "b.yml", "bar:\n  desired: |\n    CREATE TABLE y (id INTEGER)\n")

	tests, err := ReadTests(filepath.Join(dir, "*.yml"))
	require.NoError(t, err)
	assert.Len(t, tests, 2)
	assert.Contains(t, tests, "foo")
	assert.Contains(t, tests, "bar")
}

func TestMinVersionSatisfied(t *testing.T) {
	tests := []struct {
		name     string
		min      string
		version  string
		expected bool
	}{
		{"no constraint", "", "5.7", true},
		{"version meets minimum", "5.7", "8.0", true},
		{"version below minimum", "8.0", "5.7", false},
		{"equal versions", "8.0", "8.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinVersionSatisfied(TestCase{MinVersion: tt.min}, tt.version)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func writeYAML(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
