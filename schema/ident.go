// Package schema holds the dialect-neutral object graph that the diff
// engine and operation orderer operate on: identifiers, tables, columns,
// indexes, views and the rest of the entities a desired or current schema
// snapshot is built from, plus the normalizer that canonicalizes them.
package schema

import "strings"

// Ident is a single SQL identifier. Quoted identifiers compare
// case-exact; unquoted identifiers are case-folded during normalization
// before they are ever compared.
type Ident struct {
	Value  string
	Quoted bool
}

// IdentKey is the normalized identity used to key diff buckets (I3).
type IdentKey struct {
	Folded string
	Quoted bool
}

func NewIdent(value string) Ident {
	return Ident{Value: value}
}

func NewQuotedIdent(value string) Ident {
	return Ident{Value: value, Quoted: true}
}

// Key returns the identifier's normalized key per I3: quoted idents are
// case-exact, unquoted idents are ASCII-lowercased.
func (i Ident) Key() IdentKey {
	if i.Quoted {
		return IdentKey{Folded: i.Value, Quoted: true}
	}
	return IdentKey{Folded: strings.ToLower(i.Value), Quoted: false}
}

func (i Ident) String() string {
	return i.Value
}

func (i Ident) IsZero() bool {
	return i.Value == "" && !i.Quoted
}

// SameIdent reports whether a and b are "the same name" per I3.
func SameIdent(a, b Ident) bool {
	return a.Key() == b.Key()
}

// QualifiedName is a schema-qualified object name. A nil Schema means the
// name must be resolved via the active search path.
type QualifiedName struct {
	Schema *Ident
	Name   Ident
}

func NewQualifiedName(schema, name string) QualifiedName {
	if schema == "" {
		return QualifiedName{Name: NewIdent(name)}
	}
	s := NewIdent(schema)
	return QualifiedName{Schema: &s, Name: NewIdent(name)}
}

// QualifiedNameKey is the normalized identity used to key diff buckets for
// schema-qualified objects.
type QualifiedNameKey struct {
	HasSchema bool
	Schema    IdentKey
	Name      IdentKey
}

func (q QualifiedName) Key() QualifiedNameKey {
	k := QualifiedNameKey{Name: q.Name.Key()}
	if q.Schema != nil {
		k.HasSchema = true
		k.Schema = q.Schema.Key()
	}
	return k
}

func (q QualifiedName) String() string {
	if q.Schema != nil {
		return q.Schema.Value + "." + q.Name.Value
	}
	return q.Name.Value
}

// SchemaName returns the schema component, or "" when unqualified.
func (q QualifiedName) SchemaName() string {
	if q.Schema == nil {
		return ""
	}
	return q.Schema.Value
}

// WithSchema returns a copy of q qualified by schema, unless q is already
// qualified.
func (q QualifiedName) WithSchema(schema Ident) QualifiedName {
	if q.Schema != nil {
		return q
	}
	q.Schema = &schema
	return q
}

// ResolveAgainst resolves an unqualified reference against a search path:
// it returns candidate qualified-name keys to try, most specific first.
func (q QualifiedName) ResolveAgainst(searchPath []Ident) []QualifiedNameKey {
	if q.Schema != nil {
		return []QualifiedNameKey{q.Key()}
	}
	keys := make([]QualifiedNameKey, 0, len(searchPath)+1)
	for _, s := range searchPath {
		keys = append(keys, QualifiedName{Schema: &s, Name: q.Name}.Key())
	}
	keys = append(keys, q.Key())
	return keys
}
