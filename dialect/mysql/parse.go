package mysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/schema"
)

// Parse splits a MySQL DDL script with dialect.SplitStatements and reads
// each statement with the shared lexical helpers in package dialect. The
// pack carries no MySQL grammar (adapter/mysql only ever reads DDL back
// from SHOW CREATE TABLE as opaque text, see database/mysql/database.go),
// so this mirrors that same lexical-text treatment instead of building a
// parser the retrieval pack gives no grounding for.
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

var (
	commentOnRE = regexp.MustCompile(`(?is)^alter\s+table\s+(\S+)\s+comment\s*=\s*'((?:[^']|'')*)'`)
	grantRE     = regexp.MustCompile(`(?is)^grant\s+(.+?)\s+on\s+(\S+)\s+to\s+(\S+)`)
)

func parseStatementInto(snap *schema.Snapshot, stmt string) error {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		t, err := dialect.ParseCreateTable(stmt, schema.ModeMysql)
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
	case strings.HasPrefix(upper, "CREATE OR REPLACE VIEW") || strings.HasPrefix(upper, "CREATE VIEW"):
		v, err := dialect.ParseCreateView(stmt)
		if err != nil {
			return err
		}
		snap.Views = append(snap.Views, v)
	case strings.HasPrefix(upper, "ALTER TABLE") && strings.Contains(upper, "COMMENT"):
		c, ok := parseTableComment(stmt)
		if ok {
			snap.Comments = append(snap.Comments, c)
		}
	case strings.HasPrefix(upper, "GRANT"):
		p, err := parseGrant(stmt)
		if err != nil {
			return err
		}
		snap.Privileges = append(snap.Privileges, p)
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

func parseTableComment(stmt string) (*schema.Comment, bool) {
	m := commentOnRE.FindStringSubmatch(stmt)
	if m == nil {
		return nil, false
	}
	text := strings.ReplaceAll(m[2], "''", "'")
	return &schema.Comment{
		TargetKind: schema.CommentOnTable,
		Target:     schema.NewQualifiedName("", stripIdent(m[1])),
		Text:       &text,
	}, true
}

func parseGrant(stmt string) (*schema.Privilege, error) {
	m := grantRE.FindStringSubmatch(stmt)
	if m == nil {
		return nil, fmt.Errorf("not a recognizable GRANT statement")
	}
	var ops []string
	for _, op := range strings.Split(m[1], ",") {
		ops = append(ops, strings.ToLower(strings.TrimSpace(op)))
	}
	return &schema.Privilege{
		Operations: ops,
		Target:     schema.NewQualifiedName("", stripIdent(m[2])),
		Grantee:    schema.NewIdent(stripIdent(m[3])),
	}, nil
}

var createTriggerRE = regexp.MustCompile(`(?is)^create\s+trigger\s+(\S+)\s+(before|after)\s+(\S+)\s+on\s+(\S+)\s+for\s+each\s+row\s+(.*)$`)

func parseCreateTrigger(stmt string) (*schema.Trigger, error) {
	m := createTriggerRE.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, fmt.Errorf("not a recognizable CREATE TRIGGER statement")
	}
	return &schema.Trigger{
		Name:    schema.NewIdent(stripIdent(m[1])),
		Timing:  strings.ToLower(m[2]),
		Events:  []string{strings.ToLower(m[3])},
		Table:   schema.NewQualifiedName("", stripIdent(m[4])),
		ForEach: "row",
		Body:    strings.TrimSpace(m[5]),
	}, nil
}

func stripIdent(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`")
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
