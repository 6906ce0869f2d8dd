// Package mssql implements the dialect.Dialect capability contract
// (§4.6) for SQL Server, reading object metadata from sys.* catalog
// views the way adapter/mssql's MssqlDatabase does.
package mssql

import (
	"strings"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Dialect is a stateless flyweight (§9).
type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string      { return "mssql" }
func (Dialect) Mode() schema.Mode { return schema.ModeMssql }

func (Dialect) Normalize(s *schema.Snapshot) *schema.Snapshot {
	return schema.NormalizeSnapshot(s, schema.ModeMssql)
}

func (Dialect) EquivalencePolicy() diff.EquivalencePolicy {
	return diff.StrictPolicy
}

// QuoteIdent brackets an identifier in T-SQL's own style, escaping an
// embedded closing bracket by doubling it.
func (Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// BatchSeparator returns GO, the batch terminator sqlcmd/osql use to
// split a script into separately-executed batches -- required for DDL
// statements (e.g. CREATE VIEW) that must start a fresh batch.
func (Dialect) BatchSeparator() string { return "GO" }
