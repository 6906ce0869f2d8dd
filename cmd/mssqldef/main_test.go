package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOptions(t *testing.T) {
	connConfig, opts := parseOptions([]string{
		"-U", "app", "-h", "db.internal", "--port", "1434",
		"--file", "schema.sql", "--enable-drop", "--verbose", "--dump-concurrency", "4", "mydb",
	})

	assert.Equal(t, "app", connConfig.User)
	assert.Equal(t, "db.internal", connConfig.Host)
	assert.Equal(t, 1434, connConfig.Port)
	assert.Equal(t, "mydb", connConfig.DBName)
	assert.Equal(t, "4", connConfig.Extra["mssql.dump_concurrency"])

	assert.Equal(t, "schema.sql", opts.File)
	assert.True(t, opts.Config.EnableDrop)
	assert.True(t, opts.Verbose)
	assert.Equal(t, 4, opts.Config.DumpConcurrency)
}

func TestParseOptionsDefaults(t *testing.T) {
	connConfig, opts := parseOptions([]string{"mydb"})

	assert.Equal(t, "sa", connConfig.User)
	assert.Equal(t, "127.0.0.1", connConfig.Host)
	assert.Equal(t, 1433, connConfig.Port)
	assert.Equal(t, "-", opts.File)
	assert.False(t, opts.Verbose)
}
