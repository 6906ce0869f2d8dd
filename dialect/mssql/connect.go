package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Connect opens a live SQL Server connection, building the DSN the same
// way adapter/mssql.mssqlBuildDSN does.
func (d Dialect) Connect(cfg dialect.ConnectionConfig) (dialect.Database, error) {
	query := url.Values{}
	query.Add("database", cfg.DBName)
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: query.Encode(),
	}

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, err
	}
	concurrency, _ := strconv.Atoi(cfg.Extra["mssql.dump_concurrency"])
	return &database{db: db, concurrency: concurrency}, nil
}

type database struct {
	db          *sql.DB
	concurrency int
}

// RunStatements commits once per batch rather than once overall: SQL
// Server requires CREATE VIEW/TRIGGER to be the only statement in its
// batch, so a BatchBoundary marker here closes out the current
// transaction and opens a fresh one, instead of being a no-op the way
// it is for the other three dialects.
func (a *database) RunStatements(ctx context.Context, statements []diff.Statement) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if stmt.IsBatchBoundary {
			if err := tx.Commit(); err != nil {
				return err
			}
			tx, err = a.db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
			return &executionError{statementIndex: i, err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (a *database) Close() error { return a.db.Close() }

type executionError struct {
	statementIndex int
	err            error
}

func (e *executionError) Error() string {
	return fmt.Sprintf("statement %d failed: %s", e.statementIndex, e.err)
}

func (e *executionError) Unwrap() error { return e.err }

// DumpSnapshot reassembles each table's DDL from sys.* catalog views the
// way adapter/mssql.MssqlDatabase.DumpTableDDL does, then feeds that
// text back through the shared lexical parser. Only columns (name, type,
// nullability, identity) are read into each CREATE TABLE; indexes and
// foreign keys are not read.
func (a *database) DumpSnapshot(ctx context.Context) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{}

	names, err := a.tableNames(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := database.ConcurrentMap(names, a.concurrency, func(qualified string) (*schema.Table, error) {
		ddl, err := a.dumpTableDDL(ctx, qualified)
		if err != nil {
			return nil, err
		}
		table, err := dialect.ParseCreateTable(ddl, schema.ModeMssql)
		if err != nil {
			return nil, &dialect.ParseError{SourceSQL: ddl, Err: err}
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	snap.Tables = append(snap.Tables, tables...)

	if err := a.dumpViews(ctx, snap); err != nil {
		return nil, err
	}
	if err := a.dumpTriggers(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (a *database) tableNames(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `select schema_name(schema_id) as table_schema, name from sys.objects where type = 'U'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var schemaName, name string
		if err := rows.Scan(&schemaName, &name); err != nil {
			return nil, err
		}
		tables = append(tables, schemaName+"."+name)
	}
	return tables, rows.Err()
}

func (a *database) dumpTableDDL(ctx context.Context, qualified string) (string, error) {
	schemaName, table := splitTableName(qualified)

	colQuery := fmt.Sprintf(`SELECT c.name, tp.name, c.max_length, c.is_nullable, c.is_identity
FROM sys.columns c WITH(NOLOCK)
JOIN sys.types tp WITH(NOLOCK) ON c.user_type_id = tp.user_type_id
WHERE c.[object_id] = OBJECT_ID('%s.%s', 'U')`, schemaName, table)

	rows, err := a.db.QueryContext(ctx, colQuery)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE [%s].[%s] (", schemaName, table)
	first := true
	for rows.Next() {
		var name, dataType string
		var maxLength int
		var nullable, identity bool
		if err := rows.Scan(&name, &dataType, &maxLength, &nullable, &identity); err != nil {
			rows.Close()
			return "", err
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		fmt.Fprintf(&b, "\n    [%s] %s", name, dataType)
		if !nullable {
			b.WriteString(" NOT NULL")
		}
		if identity {
			b.WriteString(" IDENTITY(1,1)")
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", err
	}
	b.WriteString("\n);")
	return b.String(), nil
}

func (a *database) dumpViews(ctx context.Context, snap *schema.Snapshot) error {
	const q = `SELECT sys.views.name, sys.sql_modules.definition
FROM sys.views
INNER JOIN sys.objects ON sys.objects.object_id = sys.views.object_id AND sys.objects.is_ms_shipped = 0
INNER JOIN sys.sql_modules ON sys.sql_modules.object_id = sys.objects.object_id`

	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, definition string
		if err := rows.Scan(&name, &definition); err != nil {
			return err
		}
		snap.Views = append(snap.Views, &schema.View{
			Name:  schema.NewQualifiedName("", name),
			Query: strings.TrimSpace(definition),
		})
	}
	return rows.Err()
}

func (a *database) dumpTriggers(ctx context.Context, snap *schema.Snapshot) error {
	const q = `SELECT tr.name, OBJECT_NAME(tr.parent_id), s.definition
FROM sys.triggers tr
INNER JOIN sys.all_sql_modules s ON s.object_id = tr.object_id`

	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, table, definition string
		if err := rows.Scan(&name, &table, &definition); err != nil {
			return err
		}
		snap.Triggers = append(snap.Triggers, &schema.Trigger{
			Name:    schema.NewIdent(name),
			Table:   schema.NewQualifiedName("", table),
			ForEach: "row",
			Body:    definition,
		})
	}
	return rows.Err()
}

func splitTableName(table string) (string, string) {
	schemaName := "dbo"
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		schemaName = parts[0]
		table = parts[1]
	}
	return schemaName, table
}
