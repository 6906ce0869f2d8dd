package sqlite

import (
	"fmt"
	"strings"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/schema"
)

// Parse splits a SQLite schema script with dialect.SplitStatements and
// reads each statement with the shared lexical helpers, the same
// approach adapter/sqlite3's DumpTableDDL takes reading sqlite_master's
// stored `sql` column back as opaque text rather than a parsed AST.
func (d Dialect) Parse(sql string) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{}
	var tableLines []int
	for i, stmt := range dialect.SplitStatementsWithLines(sql) {
		before := len(snap.Tables)
		if err := parseStatementInto(snap, stmt.Text); err != nil {
			return nil, &dialect.ParseError{StatementIndex: i, SourceSQL: stmt.Text, Err: err}
		}
		for range snap.Tables[before:] {
			tableLines = append(tableLines, stmt.Line)
		}
	}
	if err := schema.AttachTableRenames(sql, snap.Tables, tableLines); err != nil {
		return nil, err
	}
	return snap, nil
}

func parseStatementInto(snap *schema.Snapshot, stmt string) error {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		t, err := dialect.ParseCreateTable(stmt, schema.ModeSQLite3)
		if err != nil {
			return err
		}
		snap.Tables = append(snap.Tables, t)
	case strings.HasPrefix(upper, "CREATE UNIQUE INDEX") || strings.HasPrefix(upper, "CREATE INDEX"):
		idx, err := dialect.ParseCreateIndex(stmt)
		if err != nil {
			return err
		}
		snap.Indexes = append(snap.Indexes, idx)
	case strings.HasPrefix(upper, "CREATE VIEW"):
		v, err := dialect.ParseCreateView(stmt)
		if err != nil {
			return err
		}
		snap.Views = append(snap.Views, v)
	case strings.HasPrefix(upper, "CREATE TRIGGER"):
		t, err := parseCreateTrigger(stmt)
		if err != nil {
			return err
		}
		snap.Triggers = append(snap.Triggers, t)
	default:
		return fmt.Errorf("unrecognized statement kind: %s", firstWords(stmt, 3))
	}
	return nil
}

func parseCreateTrigger(stmt string) (*schema.Trigger, error) {
	upper := strings.ToUpper(stmt)
	idx := strings.Index(upper, "BEGIN")
	if idx < 0 {
		return nil, fmt.Errorf("not a recognizable CREATE TRIGGER statement")
	}
	header := strings.Fields(stmt[:idx])
	if len(header) < 7 {
		return nil, fmt.Errorf("not a recognizable CREATE TRIGGER header")
	}
	// CREATE TRIGGER <name> {BEFORE|AFTER} <EVENT> ON <table>
	name := header[2]
	timing := strings.ToLower(header[3])
	event := strings.ToLower(header[4])
	table := header[len(header)-1]
	return &schema.Trigger{
		Name:    schema.NewIdent(name),
		Timing:  timing,
		Events:  []string{event},
		Table:   schema.NewQualifiedName("", table),
		ForEach: "row",
		Body:    strings.TrimSpace(stmt[idx:]),
	}, nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
