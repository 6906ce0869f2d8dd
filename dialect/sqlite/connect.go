package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Connect opens the database file through modernc.org/sqlite, a pure-Go
// driver substituting for the teacher's cgo-based mattn/go-sqlite3 (see
// DESIGN.md) -- DBName is taken as a filesystem path, matching
// adapter/sqlite3's own convention of treating the config's database
// name as the .db file to open.
func (d Dialect) Connect(cfg dialect.ConnectionConfig) (dialect.Database, error) {
	db, err := sql.Open("sqlite", cfg.DBName)
	if err != nil {
		return nil, err
	}
	return &database{db: db}, nil
}

type database struct {
	db *sql.DB
}

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

// DumpSnapshot mirrors adapter/sqlite3.Sqlite3Database's TableNames/
// DumpTableDDL/Views reads against sqlite_master, feeding the stored
// `sql` text back through the shared lexical parser rather than
// returning it opaque.
func (a *database) DumpSnapshot(ctx context.Context) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{}

	rows, err := a.db.QueryContext(ctx, "select sql from sqlite_master where type = 'table' and sql is not null and name not like 'sqlite_%'")
	if err != nil {
		return nil, err
	}
	var tableDDLs []string
	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			rows.Close()
			return nil, err
		}
		tableDDLs = append(tableDDLs, ddl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, ddl := range tableDDLs {
		table, err := dialect.ParseCreateTable(ddl, schema.ModeSQLite3)
		if err != nil {
			return nil, &dialect.ParseError{SourceSQL: ddl, Err: err}
		}
		snap.Tables = append(snap.Tables, table)
	}

	if err := a.dumpIndexes(ctx, snap); err != nil {
		return nil, err
	}
	if err := a.dumpViews(ctx, snap); err != nil {
		return nil, err
	}
	if err := a.dumpTriggers(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (a *database) dumpIndexes(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, "select sql from sqlite_master where type = 'index' and sql is not null")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return err
		}
		idx, err := dialect.ParseCreateIndex(ddl)
		if err != nil {
			return &dialect.ParseError{SourceSQL: ddl, Err: err}
		}
		snap.Indexes = append(snap.Indexes, idx)
	}
	return rows.Err()
}

func (a *database) dumpViews(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, "select sql from sqlite_master where type = 'view' and sql is not null")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return err
		}
		v, err := dialect.ParseCreateView(ddl)
		if err != nil {
			return &dialect.ParseError{SourceSQL: ddl, Err: err}
		}
		snap.Views = append(snap.Views, v)
	}
	return rows.Err()
}

func (a *database) dumpTriggers(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, "select sql from sqlite_master where type = 'trigger' and sql is not null")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return err
		}
		t, err := parseCreateTrigger(ddl)
		if err != nil {
			return &dialect.ParseError{SourceSQL: ddl, Err: err}
		}
		snap.Triggers = append(snap.Triggers, t)
	}
	return rows.Err()
}
