package diff

import "github.com/stateql/stateql/schema"

// SQLiteCopyColumn pairs a shadow-table destination column with the
// source column its data is copied from during step 2 (§4.4). SourceName
// is the zero Ident when the column is new and has no source to copy
// from (its default, if any, applies instead).
type SQLiteCopyColumn struct {
	DestName   schema.Ident
	SourceName schema.Ident
	DestType   schema.DataType
}

// SQLiteRebuildPlan is the structural six-step plan SQLite's dialect
// renders into a Statement stream (§4.4). Planning (what columns exist
// in the shadow table, what carries over, which indexes/triggers need
// recreating) lives here; turning that plan into literal SQL text is
// the SQLite dialect's generate_ddl responsibility (§4.6).
type SQLiteRebuildPlan struct {
	Table        schema.QualifiedName
	ShadowName   schema.Ident
	NewShape     *schema.Table
	CopyColumns  []SQLiteCopyColumn
	Indexes      []*schema.IndexDef
	Triggers     []*schema.Trigger
}

// PlanSQLiteTableRebuild batches every table-scoped op against the same
// table into the six-step shadow-table plan, since SQLite's ALTER TABLE
// cannot drop columns, change types, or modify most constraints (§4.4).
// current is the table's pre-change shape (for copy-source resolution),
// desired is its rebuilt shape; indexes/triggers are this table's
// complete owned sets from the desired snapshot.
func PlanSQLiteTableRebuild(current, desired *schema.Table, indexes []*schema.IndexDef, triggers []*schema.Trigger) SQLiteRebuildPlan {
	currentCols := make(map[schema.IdentKey]schema.Column, len(current.Columns))
	for _, c := range current.Columns {
		currentCols[c.Name.Key()] = c
	}

	copyColumns := make([]SQLiteCopyColumn, 0, len(desired.Columns))
	for _, dc := range desired.Columns {
		cc := SQLiteCopyColumn{DestName: dc.Name, DestType: dc.Type}
		key := dc.Name.Key()
		if dc.RenamedFrom != nil {
			key = dc.RenamedFrom.Key()
		}
		if src, ok := currentCols[key]; ok {
			cc.SourceName = src.Name
		}
		copyColumns = append(copyColumns, cc)
	}

	return SQLiteRebuildPlan{
		Table:       desired.Name,
		ShadowName:  ShadowTableName(desired.Name.Name),
		NewShape:    desired,
		CopyColumns: copyColumns,
		Indexes:     ownedBy(indexes, desired.Name),
		Triggers:    ownedByTrigger(triggers, desired.Name),
	}
}

func ownedBy(indexes []*schema.IndexDef, table schema.QualifiedName) []*schema.IndexDef {
	var out []*schema.IndexDef
	for _, idx := range indexes {
		if idx.Owner.Key() == table.Key() {
			out = append(out, idx)
		}
	}
	return out
}

func ownedByTrigger(triggers []*schema.Trigger, table schema.QualifiedName) []*schema.Trigger {
	var out []*schema.Trigger
	for _, t := range triggers {
		if t.Table.Key() == table.Key() {
			out = append(out, t)
		}
	}
	return out
}

// Steps returns the plan's six ordered steps tagged per §4.4/§6; Table
// and Step are populated, SQL is left blank for the dialect to fill in
// (it alone knows how to render CREATE TABLE/CAST/quoting for SQLite).
func (p SQLiteRebuildPlan) Steps() []Statement {
	steps := make([]Statement, 6)
	for i, step := range []RebuildStep{
		StepCreateShadowTable, StepCopyData, StepDropOldTable,
		StepRenameShadowTable, StepRecreateIndexes, StepRecreateTriggers,
	} {
		steps[i] = Statement{
			Transactional: true,
			Context:       &Context{IsSqliteRebuild: true, Table: p.Table, Step: step},
		}
	}
	return steps
}

// NeedsRebuild reports whether any of the changes in ops against table
// require SQLite's shadow-table rebuild rather than a direct ALTER
// TABLE (§4.4): anything beyond AddColumn, RenameTable, or RenameColumn.
func NeedsRebuild(ops []Op, table schema.QualifiedNameKey) bool {
	for _, op := range ops {
		if op.Kind.Priority() != 22 {
			continue
		}
		if op.Table.Key() != table {
			continue
		}
		switch op.Kind {
		case OpRenameTable, OpAddColumn, OpRenameColumn:
			continue
		default:
			return true
		}
	}
	return false
}
