package diff

import (
	"testing"

	"github.com/stateql/stateql/schema"
)

// Scenario 6 (§8): altering a column's type on SQLite expands into the
// six-step shadow-table rebuild plan.
func TestScenario6SQLiteTableRebuildSixSteps(t *testing.T) {
	current := tbl("users", col("id", schema.TypeInteger), col("age", schema.TypeInteger))
	desired := tbl("users", col("id", schema.TypeInteger), col("age", schema.TypeBigInt))

	plan := PlanSQLiteTableRebuild(current, desired, nil, nil)
	if plan.ShadowName.Value != "__stateql_rebuild_users" {
		t.Fatalf("expected shadow table name __stateql_rebuild_users, got %s", plan.ShadowName.Value)
	}

	steps := plan.Steps()
	if len(steps) != 6 {
		t.Fatalf("expected 6 steps, got %d", len(steps))
	}
	wantOrder := []RebuildStep{
		StepCreateShadowTable, StepCopyData, StepDropOldTable,
		StepRenameShadowTable, StepRecreateIndexes, StepRecreateTriggers,
	}
	for i, want := range wantOrder {
		if steps[i].Context == nil || steps[i].Context.Step != want {
			t.Fatalf("step %d: expected %s, got %+v", i, want, steps[i].Context)
		}
		if !steps[i].Context.IsSqliteRebuild {
			t.Fatalf("step %d: expected IsSqliteRebuild", i)
		}
	}
}

func TestPlanSQLiteTableRebuildResolvesRenamedSourceColumn(t *testing.T) {
	current := tbl("users", col("id", schema.TypeInteger), col("old_age", schema.TypeInteger))
	desiredAge := col("age", schema.TypeBigInt)
	renamedFrom := schema.NewIdent("old_age")
	desiredAge.RenamedFrom = &renamedFrom
	desired := tbl("users", col("id", schema.TypeInteger), desiredAge)

	plan := PlanSQLiteTableRebuild(current, desired, nil, nil)
	var ageCopy *SQLiteCopyColumn
	for i := range plan.CopyColumns {
		if plan.CopyColumns[i].DestName.Value == "age" {
			ageCopy = &plan.CopyColumns[i]
		}
	}
	if ageCopy == nil || ageCopy.SourceName.Value != "old_age" {
		t.Fatalf("expected age to copy from old_age, got %+v", ageCopy)
	}
}

func TestNeedsRebuildDistinguishesAddColumnFromAlterColumn(t *testing.T) {
	table := schema.NewQualifiedName("", "users")
	addOnly := []Op{{Kind: OpAddColumn, Table: table}}
	if NeedsRebuild(addOnly, table.Key()) {
		t.Fatalf("AddColumn alone should not require a rebuild")
	}
	withAlter := []Op{{Kind: OpAddColumn, Table: table}, {Kind: OpAlterColumn, Table: table}}
	if !NeedsRebuild(withAlter, table.Key()) {
		t.Fatalf("AlterColumn should require a rebuild")
	}
}
