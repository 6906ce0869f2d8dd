package mysql

import (
	"fmt"
	"strings"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
	"github.com/stateql/stateql/util"
)

func (d Dialect) renderer() dialect.Renderer {
	return dialect.Renderer{Quote: d.QuoteIdent, Type: renderType}
}

func renderType(t schema.DataType) string {
	switch t.Kind {
	case schema.TypeSmallInt:
		return "smallint"
	case schema.TypeInteger:
		return "int"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeBoolean:
		return "tinyint(1)"
	case schema.TypeVarchar:
		if t.Length != nil {
			return fmt.Sprintf("varchar(%d)", *t.Length)
		}
		return "varchar(255)"
	case schema.TypeChar:
		if t.Length != nil {
			return fmt.Sprintf("char(%d)", *t.Length)
		}
		return "char(1)"
	case schema.TypeText:
		return "text"
	case schema.TypeNumeric:
		if t.Length != nil && t.Scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *t.Length, *t.Scale)
		}
		return "decimal"
	case schema.TypeReal:
		return "float"
	case schema.TypeDoublePrecision:
		return "double"
	case schema.TypeDate:
		return "date"
	case schema.TypeTime:
		return "time"
	case schema.TypeTimestamp, schema.TypeTimestampTZ:
		return "datetime"
	case schema.TypeUUID:
		return "char(36)"
	case schema.TypeJSON, schema.TypeJSONB:
		return "json"
	case schema.TypeBytea:
		return "blob"
	case schema.TypeCustom:
		return t.CustomName
	default:
		return "text"
	}
}

// GenerateDDL renders the ordered DiffOp stream to a MySQL statement
// stream (§6). Before per-op rendering it collapses each adjacent
// DropView/CreateView pair that names the same view into a single
// CREATE OR REPLACE VIEW (§8 Scenario 2), provided the new view has no
// column list and no check option (canReplaceView); other pairs stay a
// separate DROP VIEW and CREATE VIEW.
func (d Dialect) GenerateDDL(ops []diff.Op) ([]diff.Statement, error) {
	ops = collapseViewReplace(ops)
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

// canReplaceView reports whether a CreateView can safely collapse a
// preceding DropView of the same name into CREATE OR REPLACE VIEW: only
// when the new view declares no explicit column list and no check
// option, since REPLACE preserves the existing view's dependents only
// when its output column shape is left implicit (Open Question 1).
func canReplaceView(v *schema.View) bool {
	return len(v.Columns) == 0 && v.CheckOption == ""
}

func collapseViewReplace(ops []diff.Op) []diff.Op {
	out := make([]diff.Op, 0, len(ops))
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		if op.Kind == diff.OpDropView && i+1 < len(ops) {
			next := ops[i+1]
			if next.Kind == diff.OpCreateView && next.View != nil && next.View.Name.Key() == op.ViewName.Key() && canReplaceView(next.View) {
				replaced := next
				replaced.Kind = diff.OpCreateView
				out = append(out, replaced)
				i++
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

func (d Dialect) renderOp(r dialect.Renderer, op diff.Op) (string, error) {
	switch op.Kind {
	case diff.OpCreateTable:
		return r.CreateTable(op.NewTable), nil
	case diff.OpDropTable:
		return r.DropTable(op.Table), nil
	case diff.OpRenameTable:
		return r.RenameTable(op.Table, op.NewTableName), nil
	case diff.OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", d.qn(op.Table), d.QuoteIdent(op.ColumnName.Value), d.QuoteIdent(op.NewColumnName.Value)), nil
	case diff.OpAlterColumn:
		return d.renderAlterColumn(op), nil
	case diff.OpAddColumn:
		return r.AddColumn(op.Table, op.Column), nil
	case diff.OpDropColumn:
		return r.DropColumn(op.Table, op.ColumnName), nil
	case diff.OpAddPrimaryKey:
		return r.AddPrimaryKey(op.Table, op.PrimaryKey), nil
	case diff.OpDropPrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", d.qn(op.Table)), nil
	case diff.OpAddCheck:
		return r.AddCheck(op.Table, op.Check), nil
	case diff.OpDropCheck:
		return r.DropCheck(op.Table, op.CheckName), nil
	case diff.OpAddForeignKey:
		return r.AddForeignKey(op.Table, op.ForeignKey), nil
	case diff.OpDropForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", d.qn(op.Table), d.QuoteIdent(op.ForeignKeyName.Value)), nil
	case diff.OpAddIndex:
		return r.CreateIndex(op.Index), nil
	case diff.OpDropIndex:
		return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", d.qn(op.Index.Owner), d.QuoteIdent(op.IndexName.Value)), nil
	case diff.OpRenameIndex:
		return fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s", d.qn(op.Table), d.QuoteIdent(op.IndexName.Value), d.QuoteIdent(op.NewIndexName.Value)), nil
	case diff.OpCreateView:
		return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", d.qn(op.View.Name), op.View.Query), nil
	case diff.OpDropView:
		return "DROP VIEW " + d.qn(op.ViewName), nil
	case diff.OpCreateSequence, diff.OpDropSequence, diff.OpAlterSequence:
		// MySQL has no native sequence object; AUTO_INCREMENT is folded
		// into the owning column instead (§4.1's sequence contract).
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.SequenceName.String(), Dialect: d.Name()}
	case diff.OpSetTableOptions:
		var opts []string
		for k, v := range util.CanonicalMapIter(op.TableOptions) {
			opts = append(opts, fmt.Sprintf("%s=%s", k, v))
		}
		return fmt.Sprintf("ALTER TABLE %s %s", d.qn(op.Table), strings.Join(opts, " ")), nil
	case diff.OpCreateTrigger:
		return d.renderCreateTrigger(op), nil
	case diff.OpDropTrigger:
		return "DROP TRIGGER " + d.QuoteIdent(op.TriggerName.Value), nil
	case diff.OpSetComment:
		return fmt.Sprintf("ALTER TABLE %s COMMENT = '%s'", d.qn(op.Comment.Target), escapeStr(derefComment(op.Comment))), nil
	case diff.OpDropComment:
		return fmt.Sprintf("ALTER TABLE %s COMMENT = ''", d.qn(op.Comment.Target)), nil
	case diff.OpGrant:
		return r.Grant(op.Privilege), nil
	case diff.OpRevoke:
		return r.Revoke(op.Privilege), nil
	default:
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.Table.String(), Dialect: d.Name()}
	}
}

func derefComment(c *schema.Comment) string {
	if c.Text == nil {
		return ""
	}
	return *c.Text
}

func escapeStr(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (d Dialect) qn(q schema.QualifiedName) string {
	if q.Schema != nil {
		return d.QuoteIdent(q.Schema.Value) + "." + d.QuoteIdent(q.Name.Value)
	}
	return d.QuoteIdent(q.Name.Value)
}

func (d Dialect) renderAlterColumn(op diff.Op) string {
	var clauses []string
	table := d.qn(op.Table)
	col := d.QuoteIdent(op.ColumnName.Value)
	for _, ch := range op.ColumnChanges {
		switch ch.Kind {
		case diff.ColumnSetType:
			clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", table, col, renderType(*ch.Type)))
		case diff.ColumnSetNotNull:
			null := "NULL"
			if ch.NotNull != nil && *ch.NotNull {
				null = "NOT NULL"
			}
			clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s %s", table, col, renderType(op.Column.Type), null))
		case diff.ColumnSetDefault:
			if ch.DropDefault {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col))
			} else if ch.Default != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, exprSQL(*ch.Default)))
			}
		case diff.ColumnSetGenerated:
			if ch.Generated != nil {
				kind := "STORED"
				if ch.Generated.Kind == schema.GeneratedVirtual {
					kind = "VIRTUAL"
				}
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s GENERATED ALWAYS AS (%s) %s",
					table, col, renderType(op.Column.Type), exprSQL(ch.Generated.Expr), kind))
			}
		case diff.ColumnSetCollation:
			if ch.Collation != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s COLLATE %s", table, col, renderType(op.Column.Type), *ch.Collation))
			}
		case diff.ColumnSetIdentity:
			if ch.Identity != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s AUTO_INCREMENT", table, col, renderType(op.Column.Type)))
			}
		}
	}
	return strings.Join(clauses, ";\n")
}

func (d Dialect) renderCreateTrigger(op diff.Op) string {
	t := op.Trigger
	timing := strings.ToUpper(t.Timing)
	event := ""
	if len(t.Events) > 0 {
		event = strings.ToUpper(t.Events[0])
	}
	return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW %s",
		d.QuoteIdent(t.Name.Value), timing, event, d.qn(t.Table), t.Body)
}

func exprSQL(e schema.Expr) string {
	switch e.Kind {
	case schema.ExprRaw:
		return e.RawText
	case schema.ExprLiteral:
		switch e.LitKind {
		case schema.LitString:
			return "'" + strings.ReplaceAll(e.StrVal, "'", "''") + "'"
		case schema.LitInt:
			return fmt.Sprintf("%d", e.IntVal)
		case schema.LitFloat:
			return fmt.Sprintf("%v", e.FloatVal)
		case schema.LitBool:
			if e.BoolVal {
				return "1"
			}
			return "0"
		}
	case schema.ExprIdentRef:
		return e.IdentVal.Value
	case schema.ExprNull:
		return "NULL"
	}
	return ""
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
		stmts = append(stmts, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s;", d.qn(v.Name), v.Query))
	}
	return strings.Join(stmts, "\n")
}
