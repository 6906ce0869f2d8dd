package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Connect opens a live Postgres connection via lib/pq. The returned
// adapter runs every statement, whatever its Transactional flag, inside
// one BEGIN/COMMIT; a BatchBoundary never forces a commit, and Postgres's
// batch separator is empty so every Statement is dispatched on its own.
func (d Dialect) Connect(cfg dialect.ConnectionConfig) (dialect.Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode(cfg))
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	concurrency, _ := strconv.Atoi(cfg.Extra["postgres.dump_concurrency"])
	return &database{db: db, concurrency: concurrency}, nil
}

func sslMode(cfg dialect.ConnectionConfig) string {
	if mode, ok := cfg.Extra["postgres.sslmode"]; ok {
		return mode
	}
	return "disable"
}

type database struct {
	db          *sql.DB
	concurrency int
}

// RunStatements executes the statement stream inside a single scoped
// transaction (RAII-style: BEGIN at entry, COMMIT on success, ROLLBACK
// on any error or panic), matching the teacher's transaction-per-run
// convention. A BatchBoundary is a no-op for Postgres: it carries no
// batch-separator semantics here, unlike MSSQL's GO.
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
			return &executionError{statementIndex: i, sql: stmt.SQL, err: err}
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
	sql            string
	err            error
}

func (e *executionError) Error() string {
	return fmt.Sprintf("statement %d failed: %s", e.statementIndex, e.err)
}

func (e *executionError) Unwrap() error { return e.err }

// DumpSnapshot introspects the connected database's pg_catalog/
// information_schema views and assembles a schema.Snapshot, the
// counterpart to Parse for a database reached live instead of read from
// a DDL file (§6 "current" side of a Diff call).
func (a *database) DumpSnapshot(ctx context.Context) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{}
	if err := a.dumpTables(ctx, snap); err != nil {
		return nil, err
	}
	if err := a.dumpIndexes(ctx, snap); err != nil {
		return nil, err
	}
	if err := a.dumpViews(ctx, snap); err != nil {
		return nil, err
	}
	if err := a.dumpSequences(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (a *database) dumpTables(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var names []schema.QualifiedName
	for rows.Next() {
		var tableSchema, tableName string
		if err := rows.Scan(&tableSchema, &tableName); err != nil {
			return err
		}
		names = append(names, schema.NewQualifiedName(tableSchema, tableName))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tables, err := database.ConcurrentMap(names, a.concurrency, func(name schema.QualifiedName) (*schema.Table, error) {
		table := &schema.Table{Name: name}
		if err := a.dumpColumns(ctx, table); err != nil {
			return nil, err
		}
		return table, nil
	})
	if err != nil {
		return err
	}
	snap.Tables = append(snap.Tables, tables...)
	return nil
}

func (a *database) dumpColumns(ctx context.Context, table *schema.Table) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default,
		       character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, table.Name.SchemaName(), table.Name.Name.Value)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, nullable string
		var def *string
		var charLen, numPrecision, numScale *int
		if err := rows.Scan(&name, &dataType, &nullable, &def, &charLen, &numPrecision, &numScale); err != nil {
			return err
		}
		length, scale := charLen, numScale
		if length == nil {
			length = numPrecision
		}
		col := schema.Column{
			Name:    schema.NewIdent(name),
			Type:    schema.NormalizeTypeName(dataType, length, scale),
			NotNull: nullable == "NO",
		}
		if def != nil {
			expr := schema.RawExpr(*def)
			col.Default = &expr
		}
		table.Columns = append(table.Columns, col)
	}
	return rows.Err()
}

func (a *database) dumpIndexes(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT schemaname, tablename, indexname, indexdef
		FROM pg_indexes
		WHERE schemaname NOT IN ('pg_catalog', 'information_schema')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var indexSchema, tableName, indexName, indexDef string
		if err := rows.Scan(&indexSchema, &tableName, &indexName, &indexDef); err != nil {
			return err
		}
		name := schema.NewIdent(indexName)
		snap.Indexes = append(snap.Indexes, &schema.IndexDef{
			Owner:  schema.NewQualifiedName(indexSchema, tableName),
			Name:   &name,
			Unique: containsWord(indexDef, "UNIQUE"),
		})
	}
	return rows.Err()
}

func (a *database) dumpViews(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_schema, table_name, view_definition
		FROM information_schema.views
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var viewSchema, viewName, def string
		if err := rows.Scan(&viewSchema, &viewName, &def); err != nil {
			return err
		}
		snap.Views = append(snap.Views, &schema.View{
			Name:  schema.NewQualifiedName(viewSchema, viewName),
			Query: def,
		})
	}
	return rows.Err()
}

func (a *database) dumpSequences(ctx context.Context, snap *schema.Snapshot) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT sequence_schema, sequence_name, increment, minimum_value, maximum_value, start_value
		FROM information_schema.sequences
		WHERE sequence_schema NOT IN ('pg_catalog', 'information_schema')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var seqSchema, seqName string
		var increment, minVal, maxVal, startVal int64
		if err := rows.Scan(&seqSchema, &seqName, &increment, &minVal, &maxVal, &startVal); err != nil {
			return err
		}
		snap.Sequences = append(snap.Sequences, &schema.Sequence{
			Name:        schema.NewQualifiedName(seqSchema, seqName),
			IncrementBy: &increment,
			MinValue:    &minVal,
			MaxValue:    &maxVal,
			StartValue:  &startVal,
		})
	}
	return rows.Err()
}

func containsWord(s, word string) bool {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] == word {
			return true
		}
	}
	return false
}
