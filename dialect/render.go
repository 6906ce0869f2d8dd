package dialect

import (
	"fmt"
	"strings"

	"github.com/stateql/stateql/schema"
)

// QuoteFn quotes an identifier in a dialect's native style.
type QuoteFn func(string) string

// TypeFn renders a canonical DataType back into that dialect's native
// spelling.
type TypeFn func(schema.DataType) string

// Renderer bundles the quoting/type-rendering callbacks every dialect's
// generate_ddl configures once and reuses across every DiffOp shape
// common to all four dialects. Dialect-specific DiffOp shapes (identity
// columns, MSSQL schema moves, SQLite's rebuild plan) are rendered by
// each dialect package directly.
type Renderer struct {
	Quote QuoteFn
	Type  TypeFn
}

func (r Renderer) qualifiedName(q schema.QualifiedName) string {
	if q.Schema != nil {
		return r.Quote(q.Schema.Value) + "." + r.Quote(q.Name.Value)
	}
	return r.Quote(q.Name.Value)
}

func (r Renderer) CreateTable(t *schema.Table) string {
	var cols []string
	for _, c := range t.Columns {
		cols = append(cols, r.columnDef(c))
	}
	if t.PrimaryKey != nil {
		cols = append(cols, "PRIMARY KEY ("+r.columnList(t.PrimaryKey.Columns)+")")
	}
	for _, fk := range t.ForeignKeys {
		cols = append(cols, r.foreignKeyClause(fk))
	}
	for _, chk := range t.Checks {
		cols = append(cols, fmt.Sprintf("CHECK (%s)", exprText(chk.Expr)))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", r.qualifiedName(t.Name), strings.Join(cols, ",\n  "))
}

func (r Renderer) columnDef(c schema.Column) string {
	def := r.Quote(c.Name.Value) + " " + r.Type(c.Type)
	if c.NotNull {
		def += " NOT NULL"
	}
	if c.Default != nil {
		def += " DEFAULT " + exprText(*c.Default)
	}
	return def
}

func (r Renderer) columnList(cols []schema.IndexColumn) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = r.Quote(c.Expr.IdentVal.Value)
		if c.Direction == "desc" {
			names[i] += " DESC"
		}
	}
	return strings.Join(names, ", ")
}

func (r Renderer) foreignKeyClause(fk schema.ForeignKey) string {
	cols := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		cols[i] = r.Quote(c.Value)
	}
	refCols := make([]string, len(fk.RefColumns))
	for i, c := range fk.RefColumns {
		refCols[i] = r.Quote(c.Value)
	}
	clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		strings.Join(cols, ", "), r.qualifiedName(fk.RefTable), strings.Join(refCols, ", "))
	if fk.OnDelete != "" {
		clause += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		clause += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return clause
}

func (r Renderer) DropTable(name schema.QualifiedName) string {
	return "DROP TABLE " + r.qualifiedName(name)
}

func (r Renderer) AddColumn(table schema.QualifiedName, c schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", r.qualifiedName(table), r.columnDef(c))
}

func (r Renderer) DropColumn(table schema.QualifiedName, name schema.Ident) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", r.qualifiedName(table), r.Quote(name.Value))
}

func (r Renderer) RenameTable(oldName, newName schema.QualifiedName) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", r.qualifiedName(oldName), r.Quote(newName.Name.Value))
}

func (r Renderer) RenameColumn(table schema.QualifiedName, oldName, newName schema.Ident) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", r.qualifiedName(table), r.Quote(oldName.Value), r.Quote(newName.Value))
}

func (r Renderer) AddPrimaryKey(table schema.QualifiedName, idx schema.IndexDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", r.qualifiedName(table), r.columnList(idx.Columns))
}

func (r Renderer) DropPrimaryKey(table schema.QualifiedName) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s_pkey", r.qualifiedName(table), table.Name.Value)
}

func (r Renderer) AddCheck(table schema.QualifiedName, chk schema.CheckConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
		r.qualifiedName(table), r.Quote(chk.ConstraintName.Value), exprText(chk.Expr))
}

func (r Renderer) DropCheck(table schema.QualifiedName, name schema.Ident) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.qualifiedName(table), r.Quote(name.Value))
}

func (r Renderer) AddForeignKey(table schema.QualifiedName, fk schema.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s",
		r.qualifiedName(table), r.Quote(fk.ConstraintName.Value), r.foreignKeyClause(fk))
}

func (r Renderer) DropForeignKey(table schema.QualifiedName, name schema.Ident) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.qualifiedName(table), r.Quote(name.Value))
}

func (r Renderer) CreateIndex(idx schema.IndexDef) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	name := ""
	if idx.Name != nil {
		name = r.Quote(idx.Name.Value) + " "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %son %s (%s)", unique, name, r.qualifiedName(idx.Owner), r.columnList(idx.Columns))
	if idx.Predicate != nil {
		stmt += " WHERE " + exprText(*idx.Predicate)
	}
	return stmt
}

func (r Renderer) DropIndex(owner schema.QualifiedName, name schema.Ident) string {
	return "DROP INDEX " + r.Quote(name.Value)
}

func (r Renderer) CreateView(v *schema.View) string {
	return fmt.Sprintf("CREATE VIEW %s AS %s", r.qualifiedName(v.Name), v.Query)
}

func (r Renderer) DropView(name schema.QualifiedName) string {
	return "DROP VIEW " + r.qualifiedName(name)
}

func (r Renderer) CreateSequence(seq *schema.Sequence) string {
	stmt := "CREATE SEQUENCE " + r.qualifiedName(seq.Name)
	stmt += r.sequenceOptions(seq.IncrementBy, seq.MinValue, seq.MaxValue, seq.StartValue, seq.Cache, seq.Cycle)
	return stmt
}

func (r Renderer) sequenceOptions(increment, min, max, start, cache *int64, cycle bool) string {
	var b strings.Builder
	if increment != nil {
		fmt.Fprintf(&b, " INCREMENT BY %d", *increment)
	}
	if min != nil {
		fmt.Fprintf(&b, " MINVALUE %d", *min)
	}
	if max != nil {
		fmt.Fprintf(&b, " MAXVALUE %d", *max)
	}
	if start != nil {
		fmt.Fprintf(&b, " START WITH %d", *start)
	}
	if cache != nil {
		fmt.Fprintf(&b, " CACHE %d", *cache)
	}
	if cycle {
		b.WriteString(" CYCLE")
	}
	return b.String()
}

func (r Renderer) DropSequence(name schema.QualifiedName) string {
	return "DROP SEQUENCE " + r.qualifiedName(name)
}

func (r Renderer) Grant(p *schema.Privilege) string {
	return fmt.Sprintf("GRANT %s ON %s TO %s", strings.ToUpper(strings.Join(p.Operations, ", ")),
		r.qualifiedName(p.Target), r.Quote(p.Grantee.Value))
}

func (r Renderer) Revoke(p *schema.Privilege) string {
	return fmt.Sprintf("REVOKE %s ON %s FROM %s", strings.ToUpper(strings.Join(p.Operations, ", ")),
		r.qualifiedName(p.Target), r.Quote(p.Grantee.Value))
}

// exprText renders an Expr back to SQL text. Since StrictEqual (I4)
// never needs to re-derive SQL from an Expr, this rendering only needs
// to cover the literal/raw/identifier shapes the lexical parser above
// actually produces.
func exprText(e schema.Expr) string {
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
