package postgres

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

// renderType spells out a canonical DataType in Postgres's native
// syntax, folding the identity/serial contract back into a bare integer
// type; columnDef adds no IDENTITY clause, so an identity column renders
// as that bare type.
func renderType(t schema.DataType) string {
	switch t.Kind {
	case schema.TypeSmallInt:
		return "smallint"
	case schema.TypeInteger:
		return "integer"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeVarchar:
		if t.Length != nil {
			return fmt.Sprintf("varchar(%d)", *t.Length)
		}
		return "varchar"
	case schema.TypeChar:
		if t.Length != nil {
			return fmt.Sprintf("char(%d)", *t.Length)
		}
		return "char"
	case schema.TypeText:
		return "text"
	case schema.TypeNumeric:
		if t.Length != nil && t.Scale != nil {
			return fmt.Sprintf("numeric(%d,%d)", *t.Length, *t.Scale)
		}
		return "numeric"
	case schema.TypeReal:
		return "real"
	case schema.TypeDoublePrecision:
		return "double precision"
	case schema.TypeDate:
		return "date"
	case schema.TypeTime:
		return "time"
	case schema.TypeTimestamp:
		return "timestamp"
	case schema.TypeTimestampTZ:
		return "timestamp with time zone"
	case schema.TypeUUID:
		return "uuid"
	case schema.TypeJSON:
		return "json"
	case schema.TypeJSONB:
		return "jsonb"
	case schema.TypeBytea:
		return "bytea"
	case schema.TypeCustom:
		return t.CustomName
	default:
		return "text"
	}
}

// GenerateDDL renders the ordered DiffOp stream to a Postgres statement
// stream (§6). Shapes this dialect cannot express return GenerateError
// so the caller can report a dialect-capability failure instead of
// emitting broken SQL.
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
	case diff.OpRenameColumn:
		return r.RenameColumn(op.Table, op.ColumnName, op.NewColumnName), nil
	case diff.OpAlterColumn:
		return d.renderAlterColumn(r, op), nil
	case diff.OpAddColumn:
		return r.AddColumn(op.Table, op.Column), nil
	case diff.OpDropColumn:
		return r.DropColumn(op.Table, op.ColumnName), nil
	case diff.OpAddPrimaryKey:
		return r.AddPrimaryKey(op.Table, op.PrimaryKey), nil
	case diff.OpDropPrimaryKey:
		return r.DropPrimaryKey(op.Table), nil
	case diff.OpAddCheck:
		return r.AddCheck(op.Table, op.Check), nil
	case diff.OpDropCheck:
		return r.DropCheck(op.Table, op.CheckName), nil
	case diff.OpAddExclusion:
		return d.renderAddExclusion(r, op), nil
	case diff.OpDropExclusion:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.qn(op.Table), d.QuoteIdent(op.ExclusionName.Value)), nil
	case diff.OpAddPartition:
		return d.renderAddPartition(r, op), nil
	case diff.OpDropPartition:
		return fmt.Sprintf("ALTER TABLE %s DETACH PARTITION %s", d.qn(op.Table), d.QuoteIdent(op.PartitionName.Value)), nil
	case diff.OpSetTableOptions:
		return d.renderSetTableOptions(r, op), nil
	case diff.OpAddForeignKey:
		return r.AddForeignKey(op.Table, op.ForeignKey), nil
	case diff.OpDropForeignKey:
		return r.DropForeignKey(op.Table, op.ForeignKeyName), nil
	case diff.OpAddIndex:
		return r.CreateIndex(op.Index), nil
	case diff.OpDropIndex:
		return r.DropIndex(op.Table, op.IndexName), nil
	case diff.OpRenameIndex:
		return fmt.Sprintf("ALTER INDEX %s RENAME TO %s", d.QuoteIdent(op.IndexName.Value), d.QuoteIdent(op.NewIndexName.Value)), nil
	case diff.OpCreateView:
		return r.CreateView(op.View), nil
	case diff.OpDropView:
		return r.DropView(op.ViewName), nil
	case diff.OpCreateMaterializedView:
		return fmt.Sprintf("CREATE MATERIALIZED VIEW %s AS %s", d.qn(op.MaterializedView.Name), op.MaterializedView.Query), nil
	case diff.OpDropMaterializedView:
		return "DROP MATERIALIZED VIEW " + d.qn(op.ViewName), nil
	case diff.OpCreateSequence:
		return r.CreateSequence(op.Sequence), nil
	case diff.OpDropSequence:
		return r.DropSequence(op.SequenceName), nil
	case diff.OpAlterSequence:
		return d.renderAlterSequence(r, op), nil
	case diff.OpCreateDomain:
		return d.renderCreateDomain(r, op), nil
	case diff.OpDropDomain:
		return "DROP DOMAIN " + d.qn(op.DomainName), nil
	case diff.OpAlterDomain:
		return d.renderAlterDomain(r, op), nil
	case diff.OpCreateType:
		return d.renderCreateType(r, op), nil
	case diff.OpDropType:
		return "DROP TYPE " + d.qn(op.TypeName), nil
	case diff.OpAlterType:
		return d.renderAlterType(op)
	case diff.OpCreateSchema:
		return "CREATE SCHEMA " + d.QuoteIdent(op.SchemaName.Value), nil
	case diff.OpDropSchema:
		return "DROP SCHEMA " + d.QuoteIdent(op.SchemaName.Value), nil
	case diff.OpCreateExtension:
		stmt := "CREATE EXTENSION " + d.QuoteIdent(op.Extension.Name.Value)
		if op.Extension.Version != "" {
			stmt += fmt.Sprintf(" WITH VERSION '%s'", op.Extension.Version)
		}
		return stmt, nil
	case diff.OpDropExtension:
		return "DROP EXTENSION " + d.QuoteIdent(op.ExtensionName.Value), nil
	case diff.OpCreateTrigger:
		return d.renderCreateTrigger(op), nil
	case diff.OpDropTrigger:
		return fmt.Sprintf("DROP TRIGGER %s ON %s", d.QuoteIdent(op.TriggerName.Value), d.qn(op.Table)), nil
	case diff.OpCreateFunction:
		return d.renderCreateFunction(op), nil
	case diff.OpDropFunction:
		return "DROP FUNCTION " + d.qn(op.FunctionName), nil
	case diff.OpCreatePolicy:
		return d.renderCreatePolicy(r, op), nil
	case diff.OpDropPolicy:
		return fmt.Sprintf("DROP POLICY %s ON %s", d.QuoteIdent(op.PolicyName.Value), d.qn(op.Table)), nil
	case diff.OpSetComment:
		return d.renderComment(r, op.Comment), nil
	case diff.OpDropComment:
		return d.renderComment(r, op.Comment), nil
	case diff.OpGrant:
		return r.Grant(op.Privilege), nil
	case diff.OpRevoke:
		return r.Revoke(op.Privilege), nil
	default:
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.Table.String(), Dialect: d.Name()}
	}
}

func (d Dialect) qn(q schema.QualifiedName) string {
	if q.Schema != nil {
		return d.QuoteIdent(q.Schema.Value) + "." + d.QuoteIdent(q.Name.Value)
	}
	return d.QuoteIdent(q.Name.Value)
}

func (d Dialect) renderAlterColumn(r dialect.Renderer, op diff.Op) string {
	var clauses []string
	table := d.QuoteIdent(op.Table.Name.Value)
	if op.Table.Schema != nil {
		table = d.QuoteIdent(op.Table.Schema.Value) + "." + table
	}
	col := d.QuoteIdent(op.ColumnName.Value)
	for _, ch := range op.ColumnChanges {
		switch ch.Kind {
		case diff.ColumnSetType:
			clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, col, renderType(*ch.Type)))
		case diff.ColumnSetNotNull:
			if ch.NotNull != nil && *ch.NotNull {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", table, col))
			} else {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", table, col))
			}
		case diff.ColumnSetDefault:
			if ch.DropDefault {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col))
			} else if ch.Default != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, exprSQL(*ch.Default)))
			}
		case diff.ColumnSetIdentity:
			if ch.Identity == nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP IDENTITY IF EXISTS", table, col))
			} else {
				kw := "BY DEFAULT"
				if ch.Identity.Behavior == schema.IdentityAlways {
					kw = "ALWAYS"
				}
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s ADD GENERATED %s AS IDENTITY", table, col, kw))
			}
		case diff.ColumnSetGenerated:
			if ch.Generated != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET GENERATED ALWAYS AS (%s) STORED", table, col, exprSQL(ch.Generated.Expr)))
			}
		case diff.ColumnSetCollation:
			if ch.Collation != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DATA TYPE %s COLLATE %s", table, col, renderType(op.Column.Type), d.QuoteIdent(*ch.Collation)))
			}
		}
	}
	return strings.Join(clauses, ";\n")
}

func (d Dialect) renderAddExclusion(r dialect.Renderer, op diff.Op) string {
	var elems []string
	for _, el := range op.Exclusion.Elements {
		elems = append(elems, fmt.Sprintf("%s WITH %s", exprSQL(el.Expr), el.Operator))
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s EXCLUDE USING gist (%s)",
		qnTable(d, op.Table), d.QuoteIdent(op.Exclusion.ConstraintName.Value), strings.Join(elems, ", "))
	if op.Exclusion.Predicate != nil {
		stmt += " WHERE (" + exprSQL(*op.Exclusion.Predicate) + ")"
	}
	return stmt
}

func (d Dialect) renderAddPartition(r dialect.Renderer, op diff.Op) string {
	return fmt.Sprintf("ALTER TABLE %s ATTACH PARTITION %s %s",
		qnTable(d, op.Table), d.QuoteIdent(op.Partition.Name.Value), op.Partition.Bound)
}

func (d Dialect) renderSetTableOptions(r dialect.Renderer, op diff.Op) string {
	var opts []string
	for k, v := range util.CanonicalMapIter(op.TableOptions) {
		opts = append(opts, fmt.Sprintf("%s = %s", k, v))
	}
	return fmt.Sprintf("ALTER TABLE %s SET (%s)", qnTable(d, op.Table), strings.Join(opts, ", "))
}

func (d Dialect) renderAlterSequence(r dialect.Renderer, op diff.Op) string {
	var opts []string
	for _, ch := range op.SequenceChanges {
		switch ch.Kind {
		case diff.SequenceSetIncrement:
			opts = append(opts, fmt.Sprintf("INCREMENT BY %d", *ch.Int64Val))
		case diff.SequenceSetMinValue:
			opts = append(opts, fmt.Sprintf("MINVALUE %d", *ch.Int64Val))
		case diff.SequenceSetMaxValue:
			opts = append(opts, fmt.Sprintf("MAXVALUE %d", *ch.Int64Val))
		case diff.SequenceSetStart:
			opts = append(opts, fmt.Sprintf("START WITH %d", *ch.Int64Val))
		case diff.SequenceSetCache:
			opts = append(opts, fmt.Sprintf("CACHE %d", *ch.Int64Val))
		case diff.SequenceSetCycle:
			if ch.BoolVal != nil && *ch.BoolVal {
				opts = append(opts, "CYCLE")
			} else {
				opts = append(opts, "NO CYCLE")
			}
		case diff.SequenceSetType:
			opts = append(opts, "AS "+renderType(*ch.Type))
		}
	}
	return fmt.Sprintf("ALTER SEQUENCE %s %s", d.qn(op.SequenceName), strings.Join(opts, " "))
}

func (d Dialect) renderCreateDomain(r dialect.Renderer, op diff.Op) string {
	stmt := fmt.Sprintf("CREATE DOMAIN %s AS %s", d.qn(op.DomainName), renderType(op.Domain.Underlying))
	if op.Domain.NotNull {
		stmt += " NOT NULL"
	}
	if op.Domain.Default != nil {
		stmt += " DEFAULT " + exprSQL(*op.Domain.Default)
	}
	for _, chk := range op.Domain.Checks {
		stmt += fmt.Sprintf(" CHECK (%s)", exprSQL(chk.Expr))
	}
	return stmt
}

func (d Dialect) renderAlterDomain(r dialect.Renderer, op diff.Op) string {
	var stmts []string
	name := d.qn(op.DomainName)
	for _, ch := range op.DomainChanges {
		switch ch.Kind {
		case diff.DomainSetDefault:
			if ch.Default == nil {
				stmts = append(stmts, fmt.Sprintf("ALTER DOMAIN %s DROP DEFAULT", name))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER DOMAIN %s SET DEFAULT %s", name, exprSQL(*ch.Default)))
			}
		case diff.DomainSetNotNull:
			if ch.NotNull != nil && *ch.NotNull {
				stmts = append(stmts, fmt.Sprintf("ALTER DOMAIN %s SET NOT NULL", name))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER DOMAIN %s DROP NOT NULL", name))
			}
		case diff.DomainAddCheck:
			stmts = append(stmts, fmt.Sprintf("ALTER DOMAIN %s ADD CONSTRAINT %s CHECK (%s)",
				name, d.QuoteIdent(ch.Check.ConstraintName.Value), exprSQL(ch.Check.Expr)))
		case diff.DomainDropCheck:
			stmts = append(stmts, fmt.Sprintf("ALTER DOMAIN %s DROP CONSTRAINT %s", name, d.QuoteIdent(ch.CheckName.Value)))
		}
	}
	return strings.Join(stmts, ";\n")
}

func (d Dialect) renderCreateType(r dialect.Renderer, op diff.Op) string {
	td := op.TypeDef
	switch td.Kind {
	case schema.TypeDefEnum:
		quoted := make([]string, len(td.Labels))
		for i, l := range td.Labels {
			quoted[i] = "'" + strings.ReplaceAll(l, "'", "''") + "'"
		}
		return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", d.qn(op.TypeName), strings.Join(quoted, ", "))
	case schema.TypeDefComposite:
		var fields []string
		for _, f := range td.Fields {
			fields = append(fields, d.QuoteIdent(f.Name.Value)+" "+renderType(f.Type))
		}
		return fmt.Sprintf("CREATE TYPE %s AS (%s)", d.qn(op.TypeName), strings.Join(fields, ", "))
	case schema.TypeDefRange:
		return fmt.Sprintf("CREATE TYPE %s AS RANGE (subtype = %s)", d.qn(op.TypeName), renderType(*td.Subtype))
	default:
		return fmt.Sprintf("CREATE TYPE %s", d.qn(op.TypeName))
	}
}

// renderAlterType renders the enum-evolution half of §4.1's sequence
// contract sibling: ALTER TYPE ... ADD VALUE, the shape Scenario 4 (§8)
// exercises. RenameValue has no direct Postgres syntax before PG10's
// ALTER TYPE ... RENAME VALUE, which this targets.
func (d Dialect) renderAlterType(op diff.Op) (string, error) {
	if op.TypeChange == nil {
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.TypeName.String(), Dialect: d.Name()}
	}
	name := d.QuoteIdent(op.TypeName.Name.Value)
	if op.TypeName.Schema != nil {
		name = d.QuoteIdent(op.TypeName.Schema.Value) + "." + name
	}
	switch op.TypeChange.Kind {
	case diff.TypeAddValue:
		stmt := fmt.Sprintf("ALTER TYPE %s ADD VALUE '%s'", name, strings.ReplaceAll(op.TypeChange.Value, "'", "''"))
		return stmt, nil
	case diff.TypeRenameValue:
		return fmt.Sprintf("ALTER TYPE %s RENAME VALUE '%s' TO '%s'", name, op.TypeChange.OldLabel, op.TypeChange.NewLabel), nil
	default:
		return "", &dialect.GenerateError{DiffOpTag: op.Kind.Tag(), Target: op.TypeName.String(), Dialect: d.Name()}
	}
}

func (d Dialect) renderCreateTrigger(op diff.Op) string {
	t := op.Trigger
	timing := strings.ToUpper(t.Timing)
	events := strings.ToUpper(strings.Join(t.Events, " OR "))
	forEach := "STATEMENT"
	if t.ForEach == "row" {
		forEach = "ROW"
	}
	stmt := fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH %s",
		d.QuoteIdent(t.Name.Value), timing, events, qnTable(d, t.Table), forEach)
	if t.When != nil {
		stmt += " WHEN (" + exprSQL(*t.When) + ")"
	}
	stmt += " EXECUTE FUNCTION " + t.Body
	return stmt
}

func (d Dialect) renderCreateFunction(op diff.Op) string {
	f := op.Function
	var params []string
	for _, p := range f.Params {
		params = append(params, d.QuoteIdent(p.Name.Value)+" "+renderType(p.Type))
	}
	name := d.QuoteIdent(f.Name.Name.Value)
	if f.Name.Schema != nil {
		name = d.QuoteIdent(f.Name.Schema.Value) + "." + name
	}
	return fmt.Sprintf("CREATE OR REPLACE FUNCTION %s(%s) RETURNS %s LANGUAGE %s %s AS $$%s$$",
		name, strings.Join(params, ", "), renderType(f.ReturnType), f.Language, strings.ToUpper(f.Volatility), f.Body)
}

func (d Dialect) renderCreatePolicy(r dialect.Renderer, op diff.Op) string {
	p := op.Policy
	kind := "PERMISSIVE"
	if !p.Permissive {
		kind = "RESTRICTIVE"
	}
	var roles []string
	for _, role := range p.Roles {
		roles = append(roles, d.QuoteIdent(role.Value))
	}
	if len(roles) == 0 {
		roles = []string{"PUBLIC"}
	}
	stmt := fmt.Sprintf("CREATE POLICY %s ON %s AS %s FOR %s TO %s",
		d.QuoteIdent(p.Name.Value), qnTable(d, p.Table), kind, strings.ToUpper(p.Command), strings.Join(roles, ", "))
	if p.Using != nil {
		stmt += " USING (" + exprSQL(*p.Using) + ")"
	}
	if p.WithCheck != nil {
		stmt += " WITH CHECK (" + exprSQL(*p.WithCheck) + ")"
	}
	return stmt
}

func (d Dialect) renderComment(r dialect.Renderer, c *schema.Comment) string {
	var target string
	switch c.TargetKind {
	case schema.CommentOnTable:
		target = "TABLE " + qnTable(d, c.Target)
	case schema.CommentOnColumn:
		target = fmt.Sprintf("COLUMN %s.%s", qnTable(d, c.Target), d.QuoteIdent(c.Column.Value))
	case schema.CommentOnIndex:
		target = "INDEX " + qnTable(d, c.Target)
	case schema.CommentOnView:
		target = "VIEW " + qnTable(d, c.Target)
	case schema.CommentOnFunction:
		target = "FUNCTION " + qnTable(d, c.Target)
	}
	if c.Text == nil {
		return fmt.Sprintf("COMMENT ON %s IS NULL", target)
	}
	return fmt.Sprintf("COMMENT ON %s IS '%s'", target, strings.ReplaceAll(*c.Text, "'", "''"))
}

func qnTable(d Dialect, q schema.QualifiedName) string {
	if q.Schema != nil {
		return d.QuoteIdent(q.Schema.Value) + "." + d.QuoteIdent(q.Name.Value)
	}
	return d.QuoteIdent(q.Name.Value)
}

// exprSQL renders an Expr the same way dialect.Renderer's unexported
// exprText does; duplicated here (rather than exported) because the
// richer Postgres-only shapes (IDENTITY, ALTER TYPE) need the same
// literal/raw/ident rendering without pulling a whole Renderer into
// every helper above.
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
				return "true"
			}
			return "false"
		}
	case schema.ExprIdentRef:
		return e.IdentVal.Value
	case schema.ExprNull:
		return "NULL"
	}
	return ""
}

// ToSQL renders a full snapshot back to a CREATE-only DDL script,
// ordered table-then-index-then-view for readability (used by dump/
// diagnostic tooling, not by the reconciliation path itself).
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
	for _, seq := range s.Sequences {
		stmts = append(stmts, r.CreateSequence(seq)+";")
	}
	return strings.Join(stmts, "\n")
}
