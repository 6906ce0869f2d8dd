package database_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/dialect/postgres"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// fakeDatabase is a dialect.Database test double that hands back a
// fixed current snapshot and records the statements RunStatements is
// given, so BuildPlan/Run can be exercised without a live connection.
type fakeDatabase struct {
	current *schema.Snapshot
	ran     []diff.Statement
	closed  bool
}

func (f *fakeDatabase) RunStatements(ctx context.Context, statements []diff.Statement) error {
	f.ran = append(f.ran, statements...)
	return nil
}

func (f *fakeDatabase) DumpSnapshot(ctx context.Context) (*schema.Snapshot, error) {
	return f.current, nil
}

func (f *fakeDatabase) Close() error {
	f.closed = true
	return nil
}

type bufLogger struct {
	buf bytes.Buffer
}

func (b *bufLogger) Print(v ...any)                 { fmt.Fprint(&b.buf, v...) }
func (b *bufLogger) Printf(format string, v ...any) { fmt.Fprintf(&b.buf, format, v...) }
func (b *bufLogger) Println(v ...any)               { fmt.Fprintln(&b.buf, v...) }

func TestBuildPlanCreateTable(t *testing.T) {
	d := postgres.New()
	db := &fakeDatabase{current: &schema.Snapshot{}}

	plan, err := database.BuildPlan(context.Background(), d, db, `CREATE TABLE users (id integer, name text);`, database.GeneratorConfig{EnableDrop: true})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Statements)
	assert.Contains(t, plan.Statements[0].SQL, "CREATE TABLE")
	assert.Empty(t, plan.Diagnostics.SkippedOps)
}

func TestBuildPlanSkipsDestructiveOpsWhenDropDisabled(t *testing.T) {
	d := postgres.New()
	current := &schema.Snapshot{
		Tables: []*schema.Table{{Name: schema.NewQualifiedName("public", "legacy")}},
	}
	db := &fakeDatabase{current: current}

	plan, err := database.BuildPlan(context.Background(), d, db, ``, database.GeneratorConfig{EnableDrop: false})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Diagnostics.SkippedOps, "dropping an undesired table must be suppressed and recorded")

	for _, stmt := range plan.Statements {
		assert.NotContains(t, stmt.SQL, "DROP TABLE", "no DROP TABLE should have been emitted while enable_drop=false")
	}
}

func TestRunDryRunDoesNotExecute(t *testing.T) {
	d := postgres.New()
	db := &fakeDatabase{current: &schema.Snapshot{}}

	plan, err := database.BuildPlan(context.Background(), d, db, `CREATE TABLE users (id integer);`, database.GeneratorConfig{EnableDrop: true})
	require.NoError(t, err)

	logger := &bufLogger{}
	err = database.Run(context.Background(), db, plan, logger, true)
	require.NoError(t, err)

	assert.Empty(t, db.ran, "dry run must never call RunStatements")
	assert.Contains(t, logger.buf.String(), "-- Apply --")
	assert.Contains(t, logger.buf.String(), "CREATE TABLE")
}

func TestRunAppliesStatementsWhenNotDryRun(t *testing.T) {
	d := postgres.New()
	db := &fakeDatabase{current: &schema.Snapshot{}}

	plan, err := database.BuildPlan(context.Background(), d, db, `CREATE TABLE users (id integer);`, database.GeneratorConfig{EnableDrop: true})
	require.NoError(t, err)

	err = database.Run(context.Background(), db, plan, database.NullLogger{}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, db.ran)
}

var _ dialect.Database = (*fakeDatabase)(nil)
