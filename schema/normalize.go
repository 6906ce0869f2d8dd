package schema

import (
	"regexp"
	"strings"
)

// typeAliases maps dialect-idiosyncratic spellings to the canonical kind
// name table used by canonicalTypeName, grounded on the teacher's
// dataTypeAliases/mysqlDataTypeAliases maps in schema/generator.go,
// generalized across all four dialects instead of just MySQL/Postgres.
var typeAliases = map[string]DataTypeKind{
	"int":              TypeInteger,
	"int4":             TypeInteger,
	"integer":          TypeInteger,
	"smallint":         TypeSmallInt,
	"int2":             TypeSmallInt,
	"bigint":           TypeBigInt,
	"int8":             TypeBigInt,
	"bool":             TypeBoolean,
	"boolean":          TypeBoolean,
	"text":             TypeText,
	"real":             TypeReal,
	"float4":           TypeReal,
	"double precision": TypeDoublePrecision,
	"float8":           TypeDoublePrecision,
	"date":             TypeDate,
	"time":             TypeTime,
	"timestamp":        TypeTimestamp,
	"timestamptz":      TypeTimestampTZ,
	"timestamp with time zone": TypeTimestampTZ,
	"uuid":             TypeUUID,
	"json":             TypeJSON,
	"jsonb":            TypeJSONB,
	"bytea":            TypeBytea,
	"varbinary":        TypeBytea,
	"blob":             TypeBytea,
}

// NormalizeTypeName canonicalizes a dialect type spelling into a DataType,
// per §4.1 "Data types": aliases map to canonical kinds; varchar/char
// retain their length; anything unrecognized becomes TypeCustom with the
// name lowercased and whitespace-collapsed.
func NormalizeTypeName(raw string, length, scale *int) DataType {
	folded := collapseWhitespace(strings.ToLower(strings.TrimSpace(raw)))

	switch folded {
	case "varchar", "character varying", "nvarchar":
		return DataType{Kind: TypeVarchar, Length: length}
	case "char", "character", "nchar":
		return DataType{Kind: TypeChar, Length: length}
	case "numeric", "decimal":
		return DataType{Kind: TypeNumeric, Length: length, Scale: scale}
	}

	if kind, ok := typeAliases[folded]; ok {
		return DataType{Kind: kind}
	}

	return DataType{Kind: TypeCustom, CustomName: folded}
}

var whitespaceRE = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// SplitQualifiedTypeName splits a possibly schema-qualified custom type
// name on '.' while preserving quoted segments, per §4.1.
func SplitQualifiedTypeName(raw string) (schemaPart, namePart string) {
	parts := splitPreservingQuotes(raw, '.')
	if len(parts) == 1 {
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1]
}

func splitPreservingQuotes(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == sep && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// NormalizeIdentName applies §4.1's per-dialect identifier-case policy:
//   - MSSQL:   force lowercase, unquoted (case-insensitive engine).
//   - MySQL:   retain as parsed (lower_case_table_names is advisory).
//   - Postgres: preserve the quoting flag, fold unquoted to lowercase.
//   - SQLite:  lowercase only unquoted identifiers.
//
// Grounded on the teacher's NormalizeIdentifierName in schema/identifier.go.
func NormalizeIdentName(ident Ident, mode Mode) Ident {
	switch mode {
	case ModeMssql:
		return Ident{Value: strings.ToLower(ident.Value), Quoted: false}
	case ModeMysql:
		return ident
	case ModePostgres:
		if ident.Quoted {
			return ident
		}
		return Ident{Value: strings.ToLower(ident.Value), Quoted: false}
	case ModeSQLite3:
		if ident.Quoted {
			return ident
		}
		return Ident{Value: strings.ToLower(ident.Value), Quoted: false}
	default:
		return ident
	}
}

func normalizeQualifiedName(q QualifiedName, mode Mode) QualifiedName {
	name := NormalizeIdentName(q.Name, mode)
	if q.Schema == nil {
		return QualifiedName{Name: name}
	}
	s := NormalizeIdentName(*q.Schema, mode)
	return QualifiedName{Schema: &s, Name: name}
}

// NormalizeExpr trims raw text, recursively normalizes subexpressions and
// preserves literal structure (§4.1 "Expressions"). Dialect-specific
// relaxations (paren-stripping, cast-literal canonicalization for
// Postgres) live in the dialect's EquivalencePolicy, not here: the
// normalizer only does the dialect-neutral trimming every mode agrees on,
// matching "preserve literal structure" in the spec.
func NormalizeExpr(e Expr, mode Mode) Expr {
	out := e
	switch e.Kind {
	case ExprRaw:
		out.RawText = strings.TrimSpace(e.RawText)
	case ExprIdentRef, ExprQualifiedIdentRef:
		out.IdentVal = NormalizeIdentName(e.IdentVal, mode)
	case ExprBinaryOp, ExprComparison, ExprAnd, ExprOr:
		out.Left = normalizeExprPtr(e.Left, mode)
		out.Right = normalizeExprPtr(e.Right, mode)
	case ExprUnaryOp, ExprNot, ExprParen, ExprCollate:
		out.Operand = normalizeExprPtr(e.Operand, mode)
	case ExprIs:
		out.Left = normalizeExprPtr(e.Left, mode)
		out.Right = normalizeExprPtr(e.Right, mode)
	case ExprBetween:
		out.Operand = normalizeExprPtr(e.Operand, mode)
		out.Low = normalizeExprPtr(e.Low, mode)
		out.High = normalizeExprPtr(e.High, mode)
	case ExprIn:
		out.Operand = normalizeExprPtr(e.Operand, mode)
		out.List = normalizeExprList(e.List, mode)
	case ExprTuple, ExprArrayConstructor:
		out.Elements = normalizeExprList(e.Elements, mode)
	case ExprFuncCall:
		out.Args = normalizeExprList(e.Args, mode)
	case ExprCast:
		out.Operand = normalizeExprPtr(e.Operand, mode)
	case ExprCase:
		out.CaseOperand = normalizeExprPtr(e.CaseOperand, mode)
		whens := make([]CaseWhen, len(e.CaseWhens))
		for i, w := range e.CaseWhens {
			whens[i] = CaseWhen{When: NormalizeExpr(w.When, mode), Then: NormalizeExpr(w.Then, mode)}
		}
		out.CaseWhens = whens
		out.CaseElse = normalizeExprPtr(e.CaseElse, mode)
	case ExprExists:
		out.SubqueryText = strings.TrimSpace(e.SubqueryText)
	}
	return out
}

func normalizeExprPtr(e *Expr, mode Mode) *Expr {
	if e == nil {
		return nil
	}
	n := NormalizeExpr(*e, mode)
	return &n
}

func normalizeExprList(list []Expr, mode Mode) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = NormalizeExpr(e, mode)
	}
	return out
}

// NormalizeSnapshot canonicalizes s in place and returns it, applying (in
// order): per-object normalization of tables, indexes, views (name and
// trimmed query), sequence names and domains (other object kinds are
// left as they are), the PostgreSQL
// sequence contract, and PostgreSQL partition folding (§4.1). Idempotent
// per P2: calling it twice produces the same result.
func NormalizeSnapshot(s *Snapshot, mode Mode) *Snapshot {
	for _, t := range s.Tables {
		normalizeTable(t, mode)
	}
	for _, idx := range s.Indexes {
		normalizeIndex(idx, mode)
	}
	for _, v := range s.Views {
		v.Name = normalizeQualifiedName(v.Name, mode)
		v.Query = strings.TrimSpace(v.Query)
	}
	for _, seq := range s.Sequences {
		seq.Name = normalizeQualifiedName(seq.Name, mode)
	}
	for _, d := range s.Domains {
		d.Name = normalizeQualifiedName(d.Name, mode)
		d.Underlying = canonicalizeDataType(d.Underlying)
		if d.Default != nil {
			n := NormalizeExpr(*d.Default, mode)
			d.Default = &n
		}
	}

	if mode == ModePostgres {
		foldPostgresSequenceContract(s)
		foldPostgresPartitions(s)
	}

	return s
}

func normalizeTable(t *Table, mode Mode) {
	t.Name = normalizeQualifiedName(t.Name, mode)
	for i := range t.Columns {
		normalizeColumn(&t.Columns[i], mode)
	}
	for i := range t.Checks {
		t.Checks[i].Expr = NormalizeExpr(t.Checks[i].Expr, mode)
	}
	if t.PrimaryKey != nil {
		normalizeIndex(t.PrimaryKey, mode)
	}
}

func normalizeColumn(c *Column, mode Mode) {
	c.Name = NormalizeIdentName(c.Name, mode)
	c.Type = canonicalizeDataType(c.Type)
	if c.Default != nil {
		n := NormalizeExpr(*c.Default, mode)
		c.Default = &n
	}
	if c.Generated != nil {
		c.Generated.Expr = NormalizeExpr(c.Generated.Expr, mode)
	}
}

func normalizeIndex(idx *IndexDef, mode Mode) {
	idx.Owner = normalizeQualifiedName(idx.Owner, mode)
	for i := range idx.Columns {
		idx.Columns[i].Expr = NormalizeExpr(idx.Columns[i].Expr, mode)
	}
	if idx.Predicate != nil {
		n := NormalizeExpr(*idx.Predicate, mode)
		idx.Predicate = &n
	}
}

func canonicalizeDataType(d DataType) DataType {
	if d.Kind != TypeCustom {
		return d
	}
	return NormalizeTypeName(d.CustomName, d.Length, d.Scale)
}

func isPostgresSerial(name string) (DataTypeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "serial", "serial4":
		return TypeInteger, true
	case "bigserial", "serial8":
		return TypeBigInt, true
	case "smallserial", "serial2":
		return TypeSmallInt, true
	default:
		return TypeUnknown, false
	}
}

// foldPostgresSequenceContract implements §4.1's PostgreSQL sequence
// contract: serial pseudo-types are rewritten to their underlying integer
// kind (plus an implicit nextval default when none is present), and any
// explicit Sequence object owned by an identity/serial column is folded
// into that column's identity spec and removed from the snapshot.
func foldPostgresSequenceContract(s *Snapshot) {
	for _, t := range s.Tables {
		for i := range t.Columns {
			col := &t.Columns[i]
			if col.Type.Kind == TypeCustom {
				if kind, ok := isPostgresSerial(col.Type.CustomName); ok {
					col.Type = DataType{Kind: kind}
					if col.Default == nil {
						seqName := ImplicitSequenceName(t.Name.Name.Value, col.Name.Value)
						expr := RawExpr("nextval('" + seqName + "'::regclass)")
						col.Default = &expr
					}
				}
			}
		}
	}

	var keep []*Sequence
	for _, seq := range s.Sequences {
		folded := false
		if seq.OwnedBy != nil {
			if t := s.FindTable(seq.OwnedBy.Table.Key()); t != nil {
				if col := t.Column(seq.OwnedBy.Column); col != nil {
					foldSequenceIntoIdentity(col, seq)
					folded = true
				}
			}
		}
		if !folded {
			// A column referencing this sequence via nextval() in its
			// default also causes the sequence to be dropped (§4.1).
			for _, t := range s.Tables {
				for i := range t.Columns {
					if columnReferencesSequence(&t.Columns[i], seq.Name.Name.Value) {
						folded = true
					}
				}
			}
		}
		if !folded {
			keep = append(keep, seq)
		}
	}
	s.Sequences = keep
}

func columnReferencesSequence(col *Column, seqName string) bool {
	if col.Default == nil || col.Default.Kind != ExprRaw {
		return false
	}
	return strings.Contains(strings.ToLower(col.Default.RawText), "nextval('"+strings.ToLower(seqName)+"'")
}

// foldSequenceIntoIdentity folds seq's non-nil options into col's identity
// spec, only where the corresponding identity field is nil; cycle is
// OR-merged (§4.1).
func foldSequenceIntoIdentity(col *Column, seq *Sequence) {
	if col.Identity == nil {
		col.Identity = &IdentitySpec{Behavior: IdentityByDefault}
	}
	id := col.Identity
	if id.Increment == nil {
		id.Increment = seq.IncrementBy
	}
	if id.MinValue == nil {
		id.MinValue = seq.MinValue
	}
	if id.MaxValue == nil {
		id.MaxValue = seq.MaxValue
	}
	if id.StartValue == nil {
		id.StartValue = seq.StartValue
	}
	if id.Cache == nil {
		id.Cache = seq.Cache
	}
	id.Cycle = id.Cycle || seq.Cycle
}

// foldPostgresPartitions folds child tables marked with a parent hint
// into the parent's partition.Partitions list and removes them as
// top-level objects (§4.1 partition folding).
func foldPostgresPartitions(s *Snapshot) {
	var top []*Table
	byParent := map[QualifiedNameKey][]*Table{}
	for _, t := range s.Tables {
		if t.Partition != nil && len(t.Partition.Partitions) == 1 && t.Partition.Partitions[0].ParentName != nil {
			parentKey := t.Partition.Partitions[0].ParentName.Key()
			byParent[parentKey] = append(byParent[parentKey], t)
			continue
		}
		top = append(top, t)
	}
	for _, parent := range top {
		children := byParent[parent.Name.Key()]
		if len(children) == 0 {
			continue
		}
		if parent.Partition == nil {
			parent.Partition = &PartitionSpec{}
		}
		for _, child := range children {
			elem := child.Partition.Partitions[0]
			elem.Name = child.Name.Name
			parent.Partition.Partitions = append(parent.Partition.Partitions, elem)
		}
	}
	s.Tables = top
}
