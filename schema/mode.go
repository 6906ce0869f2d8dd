package schema

// Mode selects which of the four supported SQL dialects a normalization,
// comparison or generation call applies to. Defined in this package (not
// in package dialect) so the model and normalizer have no dependency on
// the dialect plug-in surface — only dialect depends on schema.
type Mode int

const (
	ModePostgres Mode = iota
	ModeMysql
	ModeSQLite3
	ModeMssql
)

func (m Mode) String() string {
	switch m {
	case ModePostgres:
		return "postgres"
	case ModeMysql:
		return "mysql"
	case ModeSQLite3:
		return "sqlite3"
	case ModeMssql:
		return "mssql"
	default:
		return "unknown"
	}
}
