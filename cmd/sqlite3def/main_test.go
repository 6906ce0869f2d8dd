package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOptions(t *testing.T) {
	connConfig, opts := parseOptions([]string{"--file", "schema.sql", "--enable-drop", "--verbose", "/tmp/test.db"})

	assert.Equal(t, "/tmp/test.db", connConfig.DBName)
	assert.Equal(t, "schema.sql", opts.File)
	assert.True(t, opts.Config.EnableDrop)
	assert.True(t, opts.Verbose)
}

func TestParseOptionsDefaults(t *testing.T) {
	connConfig, opts := parseOptions([]string{"/tmp/test.db"})

	assert.Equal(t, "/tmp/test.db", connConfig.DBName)
	assert.Equal(t, "-", opts.File)
	assert.False(t, opts.Config.EnableDrop)
	assert.False(t, opts.Verbose)
}
