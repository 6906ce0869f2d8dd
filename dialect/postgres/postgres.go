// Package postgres implements the dialect.Dialect capability contract
// (§4.6) for PostgreSQL 13+.
package postgres

import (
	"strings"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
	"github.com/stateql/stateql/util"
)

// Dialect is a stateless flyweight, constructed once per process (§9
// "Polymorphism over dialects: a dialect implementation is a pure
// function set, not an object with mutable state").
type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string      { return "postgres" }
func (Dialect) Mode() schema.Mode { return schema.ModePostgres }

func (Dialect) Normalize(s *schema.Snapshot) *schema.Snapshot {
	s = schema.NormalizeSnapshot(s, schema.ModePostgres)
	for _, t := range s.Tables {
		synthesizeConstraintNames(t)
	}
	return s
}

// synthesizeConstraintNames fills in the names Postgres itself would
// assign to a constraint declared without an explicit CONSTRAINT clause,
// so that an unnamed constraint in desired DDL diffs equal to the named
// constraint pg_catalog reports back for current state (§8 Scenario 3).
// Follows PostgreSQL's own truncate-to-NAMEDATALEN algorithm.
func synthesizeConstraintNames(t *schema.Table) {
	table := t.Name.Name.Value
	for i := range t.ForeignKeys {
		fk := &t.ForeignKeys[i]
		if fk.ConstraintName.Value != "" {
			continue
		}
		fk.ConstraintName = schema.Ident{Value: util.BuildPostgresConstraintName(table, columnList(fk.Columns), "fkey")}
	}
	for i := range t.Checks {
		c := &t.Checks[i]
		if c.ConstraintName.Value != "" {
			continue
		}
		c.ConstraintName = schema.Ident{Value: tableSuffixName(table, "check")}
	}
	for i := range t.Exclusions {
		e := &t.Exclusions[i]
		if e.ConstraintName.Value != "" {
			continue
		}
		e.ConstraintName = schema.Ident{Value: tableSuffixName(table, "excl")}
	}
}

func columnList(cols []schema.Ident) string {
	names := util.TransformSlice(cols, func(c schema.Ident) string { return c.Value })
	return strings.Join(names, "_")
}

// tableSuffixName names a table-scoped constraint with no column
// component (CHECK, EXCLUDE), truncating the table name so the result
// still fits Postgres's 63-byte NAMEDATALEN-1 limit.
func tableSuffixName(table, suffix string) string {
	full := table + "_" + suffix
	if len(full) <= 63 {
		return full
	}
	overflow := len(full) - 63
	return table[:len(table)-overflow] + "_" + suffix
}

func (Dialect) EquivalencePolicy() diff.EquivalencePolicy {
	return castRelaxedPolicy{}
}

// QuoteIdent double-quotes an identifier, doubling any embedded quote.
func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BatchSeparator is empty: PostgreSQL has no batch-separator convention
// (unlike MSSQL's GO), every statement is independently executable.
func (Dialect) BatchSeparator() string { return "" }

// castRelaxedPolicy treats a literal wrapped in an explicit ::type cast
// as equivalent to the bare literal, matching Postgres's own habit of
// echoing DEFAULT 'x'::text back from pg_catalog for a column declared
// DEFAULT 'x' (§8 Scenario 3).
type castRelaxedPolicy struct{}

func (castRelaxedPolicy) Name() string { return "postgres-cast-relaxed" }

func (castRelaxedPolicy) ExprEqual(a, b schema.Expr) bool {
	if schema.StrictEqual(a, b) {
		return true
	}
	lv, lok := literalText(unwrapCast(a))
	rv, rok := literalText(unwrapCast(b))
	return lok && rok && lv == rv
}

func unwrapCast(e schema.Expr) schema.Expr {
	for e.Kind == schema.ExprCast && e.Operand != nil {
		e = *e.Operand
	}
	return e
}

func literalText(e schema.Expr) (string, bool) {
	if e.Kind != schema.ExprLiteral {
		return "", false
	}
	switch e.LitKind {
	case schema.LitString, schema.LitHex:
		return e.StrVal, true
	case schema.LitInt:
		return itoa(e.IntVal), true
	case schema.LitBool:
		if e.BoolVal {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
