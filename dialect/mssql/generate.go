package mssql

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
	case schema.TypeSmallInt:
		return "smallint"
	case schema.TypeInteger:
		return "int"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeBoolean:
		return "bit"
	case schema.TypeVarchar:
		if t.Length != nil {
			return fmt.Sprintf("nvarchar(%d)", *t.Length)
		}
		return "nvarchar(255)"
	case schema.TypeChar:
		if t.Length != nil {
			return fmt.Sprintf("nchar(%d)", *t.Length)
		}
		return "nchar(1)"
	case schema.TypeText:
		return "nvarchar(max)"
	case schema.TypeNumeric:
		if t.Length != nil && t.Scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *t.Length, *t.Scale)
		}
		return "decimal"
	case schema.TypeReal:
		return "real"
	case schema.TypeDoublePrecision:
		return "float"
	case schema.TypeDate:
		return "date"
	case schema.TypeTime:
		return "time"
	case schema.TypeTimestamp:
		return "datetime2"
	case schema.TypeTimestampTZ:
		return "datetimeoffset"
	case schema.TypeUUID:
		return "uniqueidentifier"
	case schema.TypeJSON, schema.TypeJSONB:
		return "nvarchar(max)"
	case schema.TypeBytea:
		return "varbinary(max)"
	case schema.TypeCustom:
		return t.CustomName
	default:
		return "nvarchar(max)"
	}
}

// GenerateDDL renders the ordered DiffOp stream to a T-SQL statement
// stream (§6), with each rendered statement also marked as a batch
// boundary: CREATE VIEW/TRIGGER/FUNCTION must be the only statement in
// their batch, and sqldef's own generated scripts have historically
// used one GO per statement for simplicity (see adapter/mssql).
func (d Dialect) GenerateDDL(ops []diff.Op) ([]diff.Statement, error) {
	r := d.renderer()
	var out []diff.Statement
	for _, op := range ops {
		sql, err := d.renderOp(r, op)
		if err != nil {
			return nil, err
		}
		out = append(out, diff.SQLStatement(sql), diff.BatchBoundary())
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
		return fmt.Sprintf("EXEC sp_rename '%s', '%s'", op.Table.Name.Value, op.NewTableName.Value), nil
	case diff.OpRenameColumn:
		return fmt.Sprintf("EXEC sp_rename '%s.%s', '%s', 'COLUMN'", op.Table.Name.Value, op.ColumnName.Value, op.NewColumnName.Value), nil
	case diff.OpAlterColumn:
		return d.renderAlterColumn(op), nil
	case diff.OpAddColumn:
		return r.AddColumn(op.Table, op.Column), nil
	case diff.OpDropColumn:
		return r.DropColumn(op.Table, op.ColumnName), nil
	case diff.OpAddPrimaryKey:
		return r.AddPrimaryKey(op.Table, op.PrimaryKey), nil
	case diff.OpDropPrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.qn(op.Table), d.QuoteIdent(op.PrimaryKey.Name.Value)), nil
	case diff.OpAddCheck:
		return r.AddCheck(op.Table, op.Check), nil
	case diff.OpDropCheck:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.qn(op.Table), d.QuoteIdent(op.CheckName.Value)), nil
	case diff.OpAddForeignKey:
		return r.AddForeignKey(op.Table, op.ForeignKey), nil
	case diff.OpDropForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.qn(op.Table), d.QuoteIdent(op.ForeignKeyName.Value)), nil
	case diff.OpAddIndex:
		return r.CreateIndex(op.Index), nil
	case diff.OpDropIndex:
		return fmt.Sprintf("DROP INDEX %s ON %s", d.QuoteIdent(op.IndexName.Value), d.qn(op.Index.Owner)), nil
	case diff.OpRenameIndex:
		return fmt.Sprintf("EXEC sp_rename '%s.%s', '%s', 'INDEX'", op.Table.Name.Value, op.IndexName.Value, op.NewIndexName.Value), nil
	case diff.OpCreateView:
		return fmt.Sprintf("CREATE VIEW %s AS %s", d.qn(op.View.Name), op.View.Query), nil
	case diff.OpDropView:
		return "DROP VIEW " + d.qn(op.ViewName), nil
	case diff.OpCreateSequence, diff.OpDropSequence, diff.OpAlterSequence, diff.OpCreateSchema, diff.OpDropSchema,
		diff.OpCreateExtension, diff.OpDropExtension, diff.OpCreatePolicy, diff.OpDropPolicy:
		// Non-goals for SQL Server: IDENTITY columns substitute for
		// sequences (§4.1), and there is no PostgreSQL-style extension
		// or row-level security surface in this dialect's contract.
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.Table.String(), Dialect: d.Name()}
	case diff.OpCreateTrigger:
		t := op.Trigger
		return fmt.Sprintf("CREATE TRIGGER %s ON %s AFTER %s %s", d.QuoteIdent(t.Name.Value), d.qn(t.Table), strings.ToUpper(strings.Join(t.Events, ", ")), t.Body), nil
	case diff.OpDropTrigger:
		return "DROP TRIGGER " + d.QuoteIdent(op.TriggerName.Value), nil
	case diff.OpSetComment:
		return fmt.Sprintf("EXEC sp_addextendedproperty 'MS_Description', '%s', 'SCHEMA', 'dbo', 'TABLE', '%s'", escapeStr(derefComment(op.Comment)), op.Comment.Target.Name.Value), nil
	case diff.OpDropComment:
		return fmt.Sprintf("EXEC sp_dropextendedproperty 'MS_Description', 'SCHEMA', 'dbo', 'TABLE', '%s'", op.Comment.Target.Name.Value), nil
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
			clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", table, col, renderType(*ch.Type)))
		case diff.ColumnSetNotNull:
			null := "NULL"
			if ch.NotNull != nil && *ch.NotNull {
				null = "NOT NULL"
			}
			clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s %s", table, col, renderType(op.Column.Type), null))
		case diff.ColumnSetDefault:
			if ch.DropDefault {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT DF_%s_%s", table, op.Table.Name.Value, op.ColumnName.Value))
			} else if ch.Default != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT DF_%s_%s DEFAULT %s FOR %s",
					table, op.Table.Name.Value, op.ColumnName.Value, exprSQL(*ch.Default), col))
			}
		case diff.ColumnSetIdentity:
			if ch.Identity != nil {
				clauses = append(clauses, fmt.Sprintf("-- IDENTITY cannot be altered on an existing column %s; requires table rebuild", col))
			}
		case diff.ColumnSetCollation:
			if ch.Collation != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s COLLATE %s", table, col, renderType(op.Column.Type), *ch.Collation))
			}
		case diff.ColumnSetGenerated:
			if ch.Generated != nil {
				clauses = append(clauses, fmt.Sprintf("-- computed column %s cannot be altered in place; requires drop/recreate", col))
			}
		}
	}
	return strings.Join(clauses, ";\n")
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
		stmts = append(stmts, fmt.Sprintf("CREATE VIEW %s AS %s;", d.qn(v.Name), v.Query))
	}
	return strings.Join(stmts, "\nGO\n")
}
