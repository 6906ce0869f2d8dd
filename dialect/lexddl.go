package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stateql/stateql/schema"
)

// The four dialects share no real SQL grammar in the retrieval pack (the
// teacher's own parser package references a vitess-fork grammar file
// that isn't present), so structural extraction here is a lexical,
// regex-driven reading of the handful of DDL statement shapes this tool
// cares about -- CREATE TABLE/INDEX/VIEW/SEQUENCE/TYPE -- rather than a
// full parser. PostgreSQL additionally validates/splits through
// pg_query_go/v2 (see dialect/postgres) before reaching this layer.

var (
	createTableRE = regexp.MustCompile(`(?is)^create\s+table\s+(?:if\s+not\s+exists\s+)?([^\s(]+)\s*\((.*)\)\s*([^)]*)$`)
	createIndexRE = regexp.MustCompile(`(?is)^create\s+(unique\s+)?index\s+(?:if\s+not\s+exists\s+)?(\S+)\s+on\s+(\S+)\s*\((.*)\)\s*(?:where\s+(.*))?$`)
	createViewRE  = regexp.MustCompile(`(?is)^create\s+(?:or\s+replace\s+)?view\s+(\S+)\s+as\s+(.*)$`)
	createSeqRE   = regexp.MustCompile(`(?is)^create\s+sequence\s+(?:if\s+not\s+exists\s+)?(\S+)(.*)$`)
	createEnumRE  = regexp.MustCompile(`(?is)^create\s+type\s+(\S+)\s+as\s+enum\s*\((.*)\)$`)
	columnRE      = regexp.MustCompile(`(?is)^("?[A-Za-z_][\w$]*"?)\s+([A-Za-z_][\w\s]*?)(\(([^)]*)\))?\s*(.*)$`)
)

// ParseCreateTable extracts a schema.Table from a CREATE TABLE
// statement's text. Constraint clauses inside the column-def list
// (PRIMARY KEY/FOREIGN KEY/CHECK/UNIQUE) are recognized by a leading
// keyword instead of a bare identifier.
func ParseCreateTable(stmt string, mode schema.Mode) (*schema.Table, error) {
	m := createTableRE.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, fmt.Errorf("not a recognizable CREATE TABLE statement")
	}
	table := &schema.Table{Name: parseQualifiedName(m[1])}

	for _, part := range splitTopLevel(m[2]) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		upper := strings.ToUpper(part)
		switch {
		case strings.HasPrefix(upper, "PRIMARY KEY"):
			table.PrimaryKey = parseInlinePrimaryKey(part, table.Name)
		case strings.HasPrefix(upper, "FOREIGN KEY") || strings.HasPrefix(upper, "CONSTRAINT") && strings.Contains(upper, "FOREIGN KEY"):
			if fk, ok := parseInlineForeignKey(part); ok {
				table.ForeignKeys = append(table.ForeignKeys, fk)
			}
		case strings.HasPrefix(upper, "CHECK") || strings.HasPrefix(upper, "CONSTRAINT") && strings.Contains(upper, "CHECK"):
			if chk, ok := parseInlineCheck(part); ok {
				table.Checks = append(table.Checks, chk)
			}
		case strings.HasPrefix(upper, "UNIQUE"):
			// recorded as a secondary unique index by the caller via CREATE INDEX in most fixtures
		default:
			col, err := parseColumnDef(part)
			if err == nil {
				table.Columns = append(table.Columns, col)
			}
		}
	}
	return table, nil
}

func parseColumnDef(def string) (schema.Column, error) {
	m := columnRE.FindStringSubmatch(strings.TrimSpace(def))
	if m == nil {
		return schema.Column{}, fmt.Errorf("not a column definition: %s", def)
	}
	name := stripQuotes(m[1])
	typeName := strings.TrimSpace(m[2])
	rest := strings.ToUpper(m[5])

	var length, scale *int
	if m[4] != "" {
		nums := strings.Split(m[4], ",")
		if n, err := strconv.Atoi(strings.TrimSpace(nums[0])); err == nil {
			length = schema.IntPtr(n)
		}
		if len(nums) > 1 {
			if n, err := strconv.Atoi(strings.TrimSpace(nums[1])); err == nil {
				scale = schema.IntPtr(n)
			}
		}
	}

	col := schema.Column{
		Name: schema.NewIdent(name),
		Type: schema.NormalizeTypeName(typeName, length, scale),
	}
	if strings.Contains(rest, "NOT NULL") {
		col.NotNull = true
	}
	if idx := strings.Index(rest, "DEFAULT"); idx >= 0 {
		raw := strings.TrimSpace(m[5][idx+len("DEFAULT"):])
		raw = firstToken(raw)
		expr := schema.RawExpr(raw)
		col.Default = &expr
	}
	return col, nil
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if s[0] == '\'' {
		end := strings.Index(s[1:], "'")
		if end >= 0 {
			return s[:end+2]
		}
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

func parseInlinePrimaryKey(clause string, owner schema.QualifiedName) *schema.IndexDef {
	cols := extractParenColumns(clause)
	idx := &schema.IndexDef{Owner: owner, Primary: true, Unique: true}
	for _, c := range cols {
		idx.Columns = append(idx.Columns, schema.IndexColumn{Expr: schema.Expr{Kind: schema.ExprIdentRef, IdentVal: schema.NewIdent(c)}})
	}
	return idx
}

func parseInlineForeignKey(clause string) (schema.ForeignKey, bool) {
	re := regexp.MustCompile(`(?is)foreign\s+key\s*\(([^)]*)\)\s*references\s+(\S+)\s*\(([^)]*)\)`)
	m := re.FindStringSubmatch(clause)
	if m == nil {
		return schema.ForeignKey{}, false
	}
	fk := schema.ForeignKey{
		RefTable: parseQualifiedName(m[2]),
	}
	for _, c := range strings.Split(m[1], ",") {
		fk.Columns = append(fk.Columns, schema.NewIdent(stripQuotes(strings.TrimSpace(c))))
	}
	for _, c := range strings.Split(m[3], ",") {
		fk.RefColumns = append(fk.RefColumns, schema.NewIdent(stripQuotes(strings.TrimSpace(c))))
	}
	return fk, true
}

func parseInlineCheck(clause string) (schema.CheckConstraint, bool) {
	re := regexp.MustCompile(`(?is)check\s*\((.*)\)\s*$`)
	m := re.FindStringSubmatch(clause)
	if m == nil {
		return schema.CheckConstraint{}, false
	}
	return schema.CheckConstraint{Expr: schema.RawExpr(strings.TrimSpace(m[1]))}, true
}

// ParseCreateIndex extracts a schema.IndexDef from a CREATE INDEX
// statement's text.
func ParseCreateIndex(stmt string) (*schema.IndexDef, error) {
	m := createIndexRE.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, fmt.Errorf("not a recognizable CREATE INDEX statement")
	}
	name := stripQuotes(m[2])
	idx := &schema.IndexDef{
		Owner:  parseQualifiedName(m[3]),
		Name:   &schema.Ident{Value: name},
		Unique: m[1] != "",
	}
	for _, c := range extractParenColumns("(" + m[4] + ")") {
		direction := "asc"
		upper := strings.ToUpper(c)
		name := c
		if strings.HasSuffix(upper, " DESC") {
			direction = "desc"
			name = strings.TrimSpace(c[:len(c)-5])
		} else if strings.HasSuffix(upper, " ASC") {
			name = strings.TrimSpace(c[:len(c)-4])
		}
		idx.Columns = append(idx.Columns, schema.IndexColumn{
			Expr:      schema.Expr{Kind: schema.ExprIdentRef, IdentVal: schema.NewIdent(stripQuotes(name))},
			Direction: direction,
		})
	}
	if m[5] != "" {
		predicate := schema.RawExpr(strings.TrimSpace(m[5]))
		idx.Predicate = &predicate
	}
	return idx, nil
}

// ParseCreateView extracts a schema.View from a CREATE VIEW statement.
func ParseCreateView(stmt string) (*schema.View, error) {
	m := createViewRE.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, fmt.Errorf("not a recognizable CREATE VIEW statement")
	}
	return &schema.View{Name: parseQualifiedName(m[1]), Query: strings.TrimSpace(m[2])}, nil
}

// ParseCreateEnum extracts a schema.TypeDef (enum) from a CREATE TYPE
// ... AS ENUM statement.
func ParseCreateEnum(stmt string) (*schema.TypeDef, error) {
	m := createEnumRE.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, fmt.Errorf("not a recognizable CREATE TYPE ... AS ENUM statement")
	}
	td := &schema.TypeDef{Name: parseQualifiedName(m[1]), Kind: schema.TypeDefEnum}
	for _, lbl := range strings.Split(m[2], ",") {
		lbl = strings.TrimSpace(lbl)
		lbl = strings.Trim(lbl, "'")
		td.Labels = append(td.Labels, lbl)
	}
	return td, nil
}

// ParseCreateSequence extracts a schema.Sequence from a CREATE SEQUENCE
// statement's text.
func ParseCreateSequence(stmt string) (*schema.Sequence, error) {
	m := createSeqRE.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, fmt.Errorf("not a recognizable CREATE SEQUENCE statement")
	}
	seq := &schema.Sequence{Name: parseQualifiedName(m[1])}
	rest := strings.ToUpper(m[2])
	seq.IncrementBy = extractIntOption(rest, m[2], "INCREMENT BY")
	seq.MinValue = extractIntOption(rest, m[2], "MINVALUE")
	seq.MaxValue = extractIntOption(rest, m[2], "MAXVALUE")
	seq.StartValue = extractIntOption(rest, m[2], "START WITH")
	seq.Cache = extractIntOption(rest, m[2], "CACHE")
	seq.Cycle = strings.Contains(rest, "CYCLE") && !strings.Contains(rest, "NO CYCLE")
	return seq, nil
}

func extractIntOption(upperRest, rawRest, keyword string) *int64 {
	idx := strings.Index(upperRest, keyword)
	if idx < 0 {
		return nil
	}
	tail := strings.TrimSpace(rawRest[idx+len(keyword):])
	tok := firstToken(tail)
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// splitTopLevel splits a comma-separated list while respecting
// parenthesis nesting and quoted sections (used for column-def lists).
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case r == ',' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func extractParenColumns(clause string) []string {
	start := strings.Index(clause, "(")
	end := strings.LastIndex(clause, ")")
	if start < 0 || end < 0 || end <= start {
		return nil
	}
	var out []string
	for _, c := range splitTopLevel(clause[start+1 : end]) {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func parseQualifiedName(raw string) schema.QualifiedName {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) == 1 {
		return schema.NewQualifiedName("", stripQuotes(parts[0]))
	}
	return schema.NewQualifiedName(stripQuotes(parts[0]), stripQuotes(parts[1]))
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, "[]")
	return s
}
