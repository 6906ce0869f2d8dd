package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/testutil"
)

// TestConnectUsesUnixSocketWhenHostIsAPath grounds dialect.ConnectionConfig's
// Host field doubling as a Unix socket path (the same convention the
// mysql client and go-sql-driver/mysql itself use) by pointing Connect at
// a dummy listener and checking it actually dials the socket rather than
// falling back to TCP.
func TestConnectUsesUnixSocketWhenHostIsAPath(t *testing.T) {
	sock := testutil.StartDummyUnixSocket(t, "mysqldef-test-", "mysql.sock")
	defer sock.Close()

	db, err := New().Connect(dialect.ConnectionConfig{
		User:   "root",
		DBName: "test",
		Host:   sock.Path,
	})
	assert.NoError(t, err)
	defer db.Close()

	_, err = db.DumpSnapshot(context.Background())
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "connection refused")
}
