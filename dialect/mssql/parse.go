package mssql

import (
	"fmt"
	"strings"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/schema"
)

// Parse splits a T-SQL schema script with dialect.SplitStatements and
// reads each statement lexically, GO batch separators stripped first.
// The pack carries no T-SQL grammar (adapter/mssql only ever reassembles
// DDL from sys.* catalog metadata, never parses a script), so this
// mirrors the same lexical-text treatment the MySQL and SQLite dialects
// use.
func (d Dialect) Parse(sql string) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{}
	var tableLines []int
	for _, batch := range splitBatches(sql) {
		for i, stmt := range dialect.SplitStatementsWithLines(batch.text) {
			if strings.TrimSpace(stmt.Text) == "" {
				continue
			}
			before := len(snap.Tables)
			if err := parseStatementInto(snap, stmt.Text); err != nil {
				return nil, &dialect.ParseError{StatementIndex: i, SourceSQL: stmt.Text, Err: err}
			}
			for range snap.Tables[before:] {
				tableLines = append(tableLines, batch.startLine+stmt.Line-1)
			}
		}
	}
	if err := schema.AttachTableRenames(sql, snap.Tables, tableLines); err != nil {
		return nil, err
	}
	return snap, nil
}

type batch struct {
	text      string
	startLine int
}

func splitBatches(sql string) []batch {
	lines := strings.Split(sql, "\n")
	var batches []batch
	var cur []string
	start := 1
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), "GO") {
			batches = append(batches, batch{text: strings.Join(cur, "\n"), startLine: start})
			cur = nil
			start = i + 2
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		batches = append(batches, batch{text: strings.Join(cur, "\n"), startLine: start})
	}
	return batches
}

func parseStatementInto(snap *schema.Snapshot, stmt string) error {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		t, err := dialect.ParseCreateTable(stmt, schema.ModeMssql)
		if err != nil {
			return err
		}
		snap.Tables = append(snap.Tables, t)
	case strings.HasPrefix(upper, "CREATE UNIQUE INDEX") || strings.HasPrefix(upper, "CREATE CLUSTERED INDEX") ||
		strings.HasPrefix(upper, "CREATE NONCLUSTERED INDEX") || strings.HasPrefix(upper, "CREATE INDEX"):
		idx, err := dialect.ParseCreateIndex(stmt)
		if err != nil {
			return err
		}
		snap.Indexes = append(snap.Indexes, idx)
	case strings.HasPrefix(upper, "CREATE VIEW") || strings.HasPrefix(upper, "CREATE OR ALTER VIEW"):
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
	idx := strings.Index(upper, " AS")
	if idx < 0 {
		return nil, fmt.Errorf("not a recognizable CREATE TRIGGER statement")
	}
	header := strings.Fields(stmt[:idx])
	if len(header) < 6 {
		return nil, fmt.Errorf("not a recognizable CREATE TRIGGER header")
	}
	// CREATE TRIGGER <name> ON <table> {AFTER|INSTEAD OF} <EVENT[,EVENT...]>
	name := strings.Trim(header[2], "[]")
	onIdx := 3
	table := strings.Trim(header[onIdx+1], "[]")
	timing := strings.ToLower(header[onIdx+2])
	var events []string
	for _, e := range strings.Split(header[len(header)-1], ",") {
		events = append(events, strings.ToLower(strings.TrimSpace(e)))
	}
	return &schema.Trigger{
		Name:    schema.NewIdent(name),
		Timing:  timing,
		Events:  events,
		Table:   schema.NewQualifiedName("", table),
		ForEach: "row",
		Body:    strings.TrimSpace(stmt[idx+1:]),
	}, nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
