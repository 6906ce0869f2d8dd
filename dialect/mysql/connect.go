package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Connect opens a live MySQL connection via go-sql-driver/mysql, built
// the same way adapter/mysql.mysqlBuildDSN assembles its DSN.
func (d Dialect) Connect(cfg dialect.ConnectionConfig) (dialect.Database, error) {
	c := mysqldriver.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.DBName
	if strings.HasPrefix(cfg.Host, "/") {
		c.Net = "unix"
		c.Addr = cfg.Host
	} else {
		c.Net = "tcp"
		c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	c.AllowCleartextPasswords = cfg.Extra["mysql.enable_cleartext_plugin"] == "true"
	c.TLSConfig = "preferred"

	db, err := sql.Open("mysql", c.FormatDSN())
	if err != nil {
		return nil, err
	}
	concurrency, _ := strconv.Atoi(cfg.Extra["mysql.dump_concurrency"])
	return &database{db: db, dbName: cfg.DBName, concurrency: concurrency}, nil
}

type database struct {
	db          *sql.DB
	dbName      string
	concurrency int
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

// DumpSnapshot mirrors adapter/mysql.MysqlDatabase's TableNames/
// DumpTableDDL/Views/Triggers reads, but instead of returning opaque DDL
// text it feeds SHOW CREATE TABLE's output back through the shared
// lexical parser to build a structural schema.Table.
func (a *database) DumpSnapshot(ctx context.Context) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{}

	rows, err := a.db.QueryContext(ctx, "show full tables where Table_Type != 'VIEW'")
	if err != nil {
		return nil, err
	}
	var tableNames []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			rows.Close()
			return nil, err
		}
		tableNames = append(tableNames, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables, err := database.ConcurrentMap(tableNames, a.concurrency, func(name string) (*schema.Table, error) {
		var ignore, ddl string
		query := fmt.Sprintf("show create table `%s`", name)
		if err := a.db.QueryRowContext(ctx, query).Scan(&ignore, &ddl); err != nil {
			return nil, err
		}
		table, err := dialect.ParseCreateTable(ddl, schema.ModeMysql)
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

func (a *database) dumpViews(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, "show full tables where TABLE_TYPE = 'VIEW'")
	if err != nil {
		return err
	}
	defer rows.Close()

	var viewNames []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return err
		}
		viewNames = append(viewNames, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range viewNames {
		var definition string
		query := "select VIEW_DEFINITION from INFORMATION_SCHEMA.VIEWS where TABLE_SCHEMA = ? AND TABLE_NAME = ?"
		if err := a.db.QueryRowContext(ctx, query, a.dbName, name).Scan(&definition); err != nil {
			return err
		}
		snap.Views = append(snap.Views, &schema.View{
			Name:  schema.NewQualifiedName("", name),
			Query: definition,
		})
	}
	return nil
}

func (a *database) dumpTriggers(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, "show triggers")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var trigger, event, table, statement, timing, sqlMode, definer, charset, collation, dbCollation string
		var created *string
		if err := rows.Scan(&trigger, &event, &table, &statement, &timing, &created, &sqlMode, &definer, &charset, &collation, &dbCollation); err != nil {
			return err
		}
		snap.Triggers = append(snap.Triggers, &schema.Trigger{
			Name:    schema.NewIdent(trigger),
			Table:   schema.NewQualifiedName("", table),
			Timing:  strings.ToLower(timing),
			Events:  []string{strings.ToLower(event)},
			ForEach: "row",
			Body:    statement,
		})
	}
	return rows.Err()
}
