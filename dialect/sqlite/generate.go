package sqlite

import (
	"fmt"
	"strings"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

func (d Dialect) renderer() dialect.Renderer {
	return dialect.Renderer{Quote: d.QuoteIdent, Type: renderType}
}

func renderType(t schema.DataType) string {
	switch t.Kind {
	case schema.TypeSmallInt, schema.TypeInteger, schema.TypeBigInt, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeVarchar, schema.TypeChar, schema.TypeText:
		return "TEXT"
	case schema.TypeNumeric, schema.TypeReal, schema.TypeDoublePrecision:
		return "REAL"
	case schema.TypeBytea:
		return "BLOB"
	case schema.TypeDate, schema.TypeTime, schema.TypeTimestamp, schema.TypeTimestampTZ, schema.TypeUUID, schema.TypeJSON, schema.TypeJSONB:
		return "TEXT"
	case schema.TypeCustom:
		return strings.ToUpper(t.CustomName)
	default:
		return "TEXT"
	}
}

// GenerateDDL renders CreateTable, DropTable, RenameTable, AddColumn,
// RenameColumn, AddIndex, DropIndex, CreateView, DropView, CreateTrigger
// and DropTrigger; every other op kind gets a GenerateError (schemas,
// extensions, sequences, policies, privileges, types, domains,
// functions, comments and materialized views included). Every other
// priority-22 op requires the shadow-table
// rebuild (§4.4): the orchestration layer detects that with
// diff.NeedsRebuild before calling GenerateDDL and routes that table's
// ops through RenderRebuildPlan instead (see DESIGN.md) -- GenerateDDL
// itself rejects them with GenerateError, since rendering a rebuild
// needs the full current+desired table shape that a flat Op stream
// doesn't carry.
func (d Dialect) GenerateDDL(ops []diff.Op) ([]diff.Statement, error) {
	r := d.renderer()
	var out []diff.Statement
	for _, op := range ops {
		sql, err := d.renderOp(r, op)
		if err != nil {
			return nil, err
		}
		out = append(out, diff.SQLStatement(sql))
	}
	return out, nil
}

func (d Dialect) renderOp(r dialect.Renderer, op diff.Op) (string, error) {
	switch op.Kind {
	case diff.OpCreateTable:
		return r.CreateTable(op.NewTable), nil
	case diff.OpDropTable:
		return r.DropTable(op.Table), nil
	case diff.OpRenameTable:
		return r.RenameTable(op.Table, op.NewTableName), nil
	case diff.OpAddColumn:
		return r.AddColumn(op.Table, op.Column), nil
	case diff.OpRenameColumn:
		return r.RenameColumn(op.Table, op.ColumnName, op.NewColumnName), nil
	case diff.OpAddIndex:
		return r.CreateIndex(op.Index), nil
	case diff.OpDropIndex:
		return "DROP INDEX " + d.QuoteIdent(op.IndexName.Value), nil
	case diff.OpCreateView:
		return r.CreateView(op.View), nil
	case diff.OpDropView:
		return r.DropView(op.ViewName), nil
	case diff.OpCreateTrigger:
		t := op.Trigger
		return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s %s", d.QuoteIdent(t.Name.Value), strings.ToUpper(t.Timing), strings.ToUpper(strings.Join(t.Events, " ")), d.qn(t.Table), t.Body), nil
	case diff.OpDropTrigger:
		return "DROP TRIGGER " + d.QuoteIdent(op.TriggerName.Value), nil
	case diff.OpCreateSchema, diff.OpDropSchema, diff.OpCreateExtension, diff.OpDropExtension,
		diff.OpCreateSequence, diff.OpDropSequence, diff.OpAlterSequence,
		diff.OpCreatePolicy, diff.OpDropPolicy, diff.OpGrant, diff.OpRevoke:
		// Non-goals for SQLite: no schemas, extensions, sequences,
		// row-level security, or privileges (§4.6's per-dialect
		// capability contract).
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.Table.String(), Dialect: d.Name()}
	default:
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.Table.String(), Dialect: d.Name()}
	}
}

// RenderRebuildPlan turns a diff.SQLiteRebuildPlan's structural six
// steps into literal SQL (§4.4), filling in the SQL field Steps()
// leaves blank.
func (d Dialect) RenderRebuildPlan(plan diff.SQLiteRebuildPlan) []diff.Statement {
	steps := plan.Steps()
	r := d.renderer()

	shadowTable := &schema.Table{
		Name:        schema.NewQualifiedName(plan.Table.SchemaName(), plan.ShadowName.Value),
		Columns:     plan.NewShape.Columns,
		PrimaryKey:  plan.NewShape.PrimaryKey,
		ForeignKeys: plan.NewShape.ForeignKeys,
		Checks:      plan.NewShape.Checks,
	}
	steps[0].SQL = r.CreateTable(shadowTable)

	var destCols, srcCols []string
	for _, c := range plan.CopyColumns {
		if c.SourceName.IsZero() {
			continue
		}
		destCols = append(destCols, d.QuoteIdent(c.DestName.Value))
		srcCols = append(srcCols, fmt.Sprintf("CAST(%s AS %s)", d.QuoteIdent(c.SourceName.Value), renderType(c.DestType)))
	}
	steps[1].SQL = fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		d.QuoteIdent(plan.ShadowName.Value), strings.Join(destCols, ", "), strings.Join(srcCols, ", "), d.qn(plan.Table))

	steps[2].SQL = "DROP TABLE " + d.qn(plan.Table)
	steps[3].SQL = fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.QuoteIdent(plan.ShadowName.Value), d.QuoteIdent(plan.Table.Name.Value))

	var indexStmts, triggerStmts []string
	for _, idx := range plan.Indexes {
		indexStmts = append(indexStmts, r.CreateIndex(*idx))
	}
	for _, trg := range plan.Triggers {
		triggerStmts = append(triggerStmts, fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s %s", d.QuoteIdent(trg.Name.Value), strings.ToUpper(trg.Timing), strings.ToUpper(strings.Join(trg.Events, " ")), d.qn(trg.Table), trg.Body))
	}
	steps[4].SQL = strings.Join(indexStmts, ";\n")
	steps[5].SQL = strings.Join(triggerStmts, ";\n")

	return steps
}

func (d Dialect) qn(q schema.QualifiedName) string {
	if q.Schema != nil {
		return d.QuoteIdent(q.Schema.Value) + "." + d.QuoteIdent(q.Name.Value)
	}
	return d.QuoteIdent(q.Name.Value)
}

// ToSQL renders a full snapshot back to a CREATE-only DDL script.
func (d Dialect) ToSQL(s *schema.Snapshot) string {
	r := d.renderer()
	var stmts []string
	for _, t := range s.Tables {
		stmts = append(stmts, r.CreateTable(t)+";")
	}
	for _, idx := range s.Indexes {
		stmts = append(stmts, r.CreateIndex(*idx)+";")
	}
	for _, v := range s.Views {
		stmts = append(stmts, r.CreateView(v)+";")
	}
	return strings.Join(stmts, "\n")
}
