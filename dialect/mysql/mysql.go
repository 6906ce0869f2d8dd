// Package mysql implements the dialect.Dialect capability contract
// (§4.6) for MySQL 8.0+.
package mysql

import (
	"strings"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Dialect is a stateless flyweight (§9).
type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string      { return "mysql" }
func (Dialect) Mode() schema.Mode { return schema.ModeMysql }

func (Dialect) Normalize(s *schema.Snapshot) *schema.Snapshot {
	return schema.NormalizeSnapshot(s, schema.ModeMysql)
}

func (Dialect) EquivalencePolicy() diff.EquivalencePolicy {
	return diff.StrictPolicy
}

// QuoteIdent backtick-quotes an identifier, doubling any embedded
// backtick, matching adapter/mysql's own escaping habit.
func (Dialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// BatchSeparator is empty: MySQL has no batch-separator convention.
func (Dialect) BatchSeparator() string { return "" }
