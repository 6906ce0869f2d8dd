// Package dialect defines the capability contract every supported
// database (PostgreSQL, MySQL, SQLite, SQL Server) implements (§4.6),
// and the shared statement-splitting helper every dialect's parser
// builds on.
package dialect

import (
	"context"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// ParseError is the ParseError taxonomy (§6): StatementConversion wraps
// a single unparseable statement with enough context to locate it in
// the source file.
type ParseError struct {
	StatementIndex int
	SourceSQL      string
	SourceLocation string
	Err            error
}

func (e *ParseError) Error() string {
	return "failed to parse statement " + itoa(e.StatementIndex) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func itoa(n int) string {
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

// GenerateError is the GenerateError taxonomy (§6): a dialect's
// generate_ddl refusing a DiffOp shape it cannot express.
type GenerateError struct {
	DiffOpTag string
	Target    string
	Dialect   string
}

func (e *GenerateError) Error() string {
	return e.Dialect + " cannot express " + e.DiffOpTag + " for " + e.Target
}

// ConnectionConfig carries the connection parameters plus the opaque,
// dialect-specific extras named in §6 (postgres.sslmode,
// mysql.lower_case_table_names, and so on).
type ConnectionConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Extra    map[string]string
}

// Database is the live-adapter contract a dialect's Connect returns
// (§4.6's connect/DatabaseAdapter). Its RunStatements runs the stream
// inside a scoped transaction, rolled back on any error. Every adapter
// runs all statements in it regardless of their Transactional flag; the
// Postgres, MySQL and SQLite adapters skip a BatchBoundary, while the
// SQL Server adapter commits at each one and begins a new transaction.
type Database interface {
	RunStatements(ctx context.Context, statements []diff.Statement) error
	DumpSnapshot(ctx context.Context) (*schema.Snapshot, error)
	Close() error
}

// Dialect is the capability set every supported database implements
// (§4.6). Implementations are stateless flyweights constructed once
// per process (§9 "Polymorphism over dialects").
type Dialect interface {
	Name() string
	Mode() schema.Mode
	Parse(sql string) (*schema.Snapshot, error)
	Normalize(s *schema.Snapshot) *schema.Snapshot
	EquivalencePolicy() diff.EquivalencePolicy
	GenerateDDL(ops []diff.Op) ([]diff.Statement, error)
	ToSQL(s *schema.Snapshot) string
	Connect(cfg ConnectionConfig) (Database, error)
	BatchSeparator() string
	QuoteIdent(name string) string
}
