package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/testutil"
)

// newTempDatabase opens a fresh on-disk SQLite database for a single
// test, the way the teacher's database tests each work against their
// own throwaway schema.
func newTempDatabase(t *testing.T) dialect.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stateql_test.db")
	db, err := New().Connect(dialect.ConnectionConfig{DBName: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})
	return db
}

func TestFixtures(t *testing.T) {
	tests, err := testutil.ReadTests("testdata/*.yml")
	require.NoError(t, err)
	require.NotEmpty(t, tests, "expected at least one fixture under testdata/")

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			db := newTempDatabase(t)
			testutil.RunTest(t, context.Background(), New(), db, test)
		})
	}
}

// TestAddColumnThenRebuild exercises both SQLite rendering paths in one
// run: a plain AddColumn (rendered directly by GenerateDDL) followed by a
// column type change, which forces the shadow-table rebuild plan
// (§4.4) through database.BuildPlan's SQLite-specific routing.
func TestAddColumnThenRebuild(t *testing.T) {
	db := newTempDatabase(t)
	d := New()
	ctx := context.Background()

	testutil.RunTest(t, ctx, d, db, testutil.TestCase{
		Current: `CREATE TABLE users (
  id INTEGER,
  name TEXT
)`,
		Desired: `CREATE TABLE users (
  id INTEGER,
  name TEXT,
  age INTEGER
)`,
	})

	testutil.RunTest(t, ctx, d, db, testutil.TestCase{
		Current: `CREATE TABLE users (
  id INTEGER,
  name TEXT,
  age INTEGER
)`,
		Desired: `CREATE TABLE users (
  id INTEGER,
  name TEXT,
  age TEXT
)`,
	})
}
