// Package sqlite implements the dialect.Dialect capability contract
// (§4.6) for SQLite 3.35+, including the shadow-table rebuild renderer
// (§4.4) the diff package's planner hands off a structural plan to.
package sqlite

import (
	"strings"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Dialect is a stateless flyweight (§9).
type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string      { return "sqlite3" }
func (Dialect) Mode() schema.Mode { return schema.ModeSQLite3 }

func (Dialect) Normalize(s *schema.Snapshot) *schema.Snapshot {
	return schema.NormalizeSnapshot(s, schema.ModeSQLite3)
}

func (Dialect) EquivalencePolicy() diff.EquivalencePolicy {
	return diff.StrictPolicy
}

// QuoteIdent double-quotes an identifier in SQLite's (ANSI) style.
func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) BatchSeparator() string { return "" }
