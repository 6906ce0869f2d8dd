package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOptions(t *testing.T) {
	connConfig, opts := parseOptions([]string{
		"-U", "app", "-h", "db.internal", "-p", "5433",
		"--ssl-mode", "require", "--file", "schema.sql", "--enable-drop", "--verbose",
		"--dump-concurrency", "4", "mydb",
	})

	assert.Equal(t, "app", connConfig.User)
	assert.Equal(t, "db.internal", connConfig.Host)
	assert.Equal(t, 5433, connConfig.Port)
	assert.Equal(t, "mydb", connConfig.DBName)
	assert.Equal(t, "require", connConfig.Extra["postgres.sslmode"])
	assert.Equal(t, "4", connConfig.Extra["postgres.dump_concurrency"])

	assert.Equal(t, "schema.sql", opts.File)
	assert.True(t, opts.Config.EnableDrop)
	assert.True(t, opts.Verbose)
	assert.Equal(t, 4, opts.Config.DumpConcurrency)
	assert.False(t, opts.DryRun)
	assert.False(t, opts.Export)
}

func TestParseOptionsDefaults(t *testing.T) {
	connConfig, opts := parseOptions([]string{"mydb"})

	assert.Equal(t, "postgres", connConfig.User)
	assert.Equal(t, "127.0.0.1", connConfig.Host)
	assert.Equal(t, 5432, connConfig.Port)
	assert.Equal(t, "-", opts.File)
	assert.False(t, opts.Config.EnableDrop)
	assert.False(t, opts.Verbose)
}
