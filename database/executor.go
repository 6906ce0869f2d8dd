package database

import (
	"context"
	"fmt"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/dialect/sqlite"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/order"
	"github.com/stateql/stateql/schema"
)

// Plan is the ordered, dialect-rendered statement stream ready to run or
// print, along with the diagnostics the diff engine produced for
// destructive ops it skipped (EnableDrop=false).
type Plan struct {
	Statements  []diff.Statement
	Diagnostics diff.Diagnostics
}

// BuildPlan runs the full core pipeline: parse the desired DDL, dump the
// current live schema, normalize both, diff, order, then render through
// the dialect (§2's pipeline). SQLite gets special handling: any table
// diff.NeedsRebuild flags is pulled out of the ordered op list and
// rendered via the sqlite package's dedicated RenderRebuildPlan instead
// of the dialect's common GenerateDDL (see DESIGN.md's dialect/sqlite
// entry for why that routing can't live inside GenerateDDL itself).
func BuildPlan(ctx context.Context, d dialect.Dialect, db dialect.Database, desiredSQL string, cfg GeneratorConfig) (*Plan, error) {
	desired, err := d.Parse(desiredSQL)
	if err != nil {
		return nil, fmt.Errorf("parsing desired schema: %w", err)
	}
	current, err := db.DumpSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("dumping current schema: %w", err)
	}

	desired = d.Normalize(desired)
	current = d.Normalize(current)

	result, err := diff.Diff(current, desired, diff.DiffConfig{
		EnableDrop:        cfg.EnableDrop,
		EquivalencePolicy: d.EquivalencePolicy(),
	})
	if err != nil {
		return nil, fmt.Errorf("diffing schema: %w", err)
	}

	ops := order.Order(result.Ops, desired)

	sqliteDialect, isSQLite := d.(sqlite.Dialect)
	if !isSQLite {
		statements, err := d.GenerateDDL(ops)
		if err != nil {
			return nil, fmt.Errorf("generating DDL: %w", err)
		}
		return &Plan{Statements: statements, Diagnostics: result.Diagnostics}, nil
	}

	statements, err := buildSQLitePlan(sqliteDialect, ops, current, desired)
	if err != nil {
		return nil, err
	}
	return &Plan{Statements: statements, Diagnostics: result.Diagnostics}, nil
}

func buildSQLitePlan(d sqlite.Dialect, ops []diff.Op, current, desired *schema.Snapshot) ([]diff.Statement, error) {
	rebuildTables := map[schema.QualifiedNameKey]bool{}
	for _, t := range desired.Tables {
		key := t.Name.Key()
		if diff.NeedsRebuild(ops, key) {
			rebuildTables[key] = true
		}
	}

	var plain []diff.Op
	for _, op := range ops {
		if rebuildTables[op.Table.Key()] {
			continue
		}
		plain = append(plain, op)
	}

	statements, err := d.GenerateDDL(plain)
	if err != nil {
		return nil, fmt.Errorf("generating DDL: %w", err)
	}

	for key := range rebuildTables {
		desiredTable := desired.FindTable(key)
		currentTable := current.FindTable(key)
		if desiredTable == nil {
			continue
		}
		plan := diff.PlanSQLiteTableRebuild(currentTable, desiredTable, desired.Indexes, desired.Triggers)
		statements = append(statements, d.RenderRebuildPlan(plan)...)
	}
	return statements, nil
}

// Run prints the plan the way the teacher's RunDDLs does (-- Apply --
// header, one line per statement, -- Skipped: ... for each diagnostic),
// then executes it unless dryRun is set.
func Run(ctx context.Context, db dialect.Database, plan *Plan, logger Logger, dryRun bool) error {
	logger.Println("-- Apply --")
	for _, skipped := range plan.Diagnostics.SkippedOps {
		logger.Printf("-- Skipped: %s\n", skipped.Reason)
	}
	for _, stmt := range plan.Statements {
		if stmt.IsBatchBoundary {
			continue
		}
		logger.Printf("%s;\n", stmt.SQL)
	}
	if dryRun {
		return nil
	}
	return db.RunStatements(ctx, plan.Statements)
}
