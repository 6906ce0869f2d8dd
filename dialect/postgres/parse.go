package postgres

import (
	"fmt"
	"regexp"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v2"

	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/schema"
)

// Parse validates the desired/current SQL text with pg_query_go and
// splits it into individual statements by their parsed StmtLocation/
// StmtLen span, mirroring the teacher's parsePgquery (database/postgres/
// parser.go). Each statement's raw text is then read structurally by
// the shared lexical helpers in package dialect: reimplementing the
// teacher's full parseCreateStmt/parseIndexStmt walk over pg_query's
// protobuf node tree is out of scope here (see DESIGN.md), but routing
// every statement through pg_query_go first still gives real
// PostgreSQL-aware syntax validation and statement-boundary detection
// before the lexical reader ever sees a single statement.
func (d Dialect) Parse(sql string) (*schema.Snapshot, error) {
	result, err := pgquery.Parse(sql)
	if err != nil {
		return nil, &dialect.ParseError{SourceSQL: sql, Err: err}
	}

	snap := &schema.Snapshot{}
	var tableLines []int
	for i, raw := range result.Stmts {
		var stmt string
		if raw.StmtLen == 0 {
			stmt = sql[raw.StmtLocation:]
		} else {
			stmt = sql[raw.StmtLocation : raw.StmtLocation+raw.StmtLen]
		}
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		before := len(snap.Tables)
		if err := parseStatementInto(snap, stmt); err != nil {
			return nil, &dialect.ParseError{StatementIndex: i, SourceSQL: stmt, Err: err}
		}
		for range snap.Tables[before:] {
			tableLines = append(tableLines, lineAt(sql, int(raw.StmtLocation)))
		}
	}
	if err := schema.AttachTableRenames(sql, snap.Tables, tableLines); err != nil {
		return nil, err
	}
	return snap, nil
}

// lineAt returns the 1-based line number byteOffset falls on within sql.
func lineAt(sql string, byteOffset int) int {
	if byteOffset > len(sql) {
		byteOffset = len(sql)
	}
	return strings.Count(sql[:byteOffset], "\n") + 1
}

var (
	createSchemaRE    = regexp.MustCompile(`(?is)^create\s+schema\s+(?:if\s+not\s+exists\s+)?(\S+)`)
	createExtensionRE = regexp.MustCompile(`(?is)^create\s+extension\s+(?:if\s+not\s+exists\s+)?(\S+)(?:\s+with)?(?:\s+version\s+'([^']*)')?`)
	commentOnRE       = regexp.MustCompile(`(?is)^comment\s+on\s+(table|column|index|view|function)\s+(\S+)\s+is\s+(null|'(?:[^']|'')*')`)
	grantRE           = regexp.MustCompile(`(?is)^grant\s+(.+?)\s+on\s+(\S+)\s+to\s+(\S+)(\s+with\s+grant\s+option)?`)
)

// parseStatementInto routes a single split-out statement to the lexical
// reader for its kind and appends the resulting object to snap.
func parseStatementInto(snap *schema.Snapshot, stmt string) error {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		t, err := dialect.ParseCreateTable(stmt, schema.ModePostgres)
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
	case strings.HasPrefix(upper, "CREATE SEQUENCE"):
		seq, err := dialect.ParseCreateSequence(stmt)
		if err != nil {
			return err
		}
		snap.Sequences = append(snap.Sequences, seq)
	case strings.HasPrefix(upper, "CREATE TYPE") && strings.Contains(upper, "AS ENUM"):
		td, err := dialect.ParseCreateEnum(stmt)
		if err != nil {
			return err
		}
		snap.Types = append(snap.Types, td)
	case strings.HasPrefix(upper, "CREATE SCHEMA"):
		m := createSchemaRE.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("not a recognizable CREATE SCHEMA statement")
		}
		snap.Schemas = append(snap.Schemas, &schema.SchemaObj{Name: schema.NewIdent(stripIdent(m[1]))})
	case strings.HasPrefix(upper, "CREATE EXTENSION"):
		m := createExtensionRE.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("not a recognizable CREATE EXTENSION statement")
		}
		snap.Extensions = append(snap.Extensions, &schema.Extension{Name: schema.NewIdent(stripIdent(m[1])), Version: m[2]})
	case strings.HasPrefix(upper, "COMMENT ON"):
		c, err := parseCommentOn(stmt)
		if err != nil {
			return err
		}
		snap.Comments = append(snap.Comments, c)
	case strings.HasPrefix(upper, "GRANT"):
		p, err := parseGrant(stmt)
		if err != nil {
			return err
		}
		snap.Privileges = append(snap.Privileges, p)
	default:
		return fmt.Errorf("unrecognized statement kind: %s", firstWords(stmt, 3))
	}
	return nil
}

func parseCommentOn(stmt string) (*schema.Comment, error) {
	m := commentOnRE.FindStringSubmatch(stmt)
	if m == nil {
		return nil, fmt.Errorf("not a recognizable COMMENT ON statement")
	}
	c := &schema.Comment{Target: parseQualifiedNameLocal(m[2])}
	switch strings.ToLower(m[1]) {
	case "table":
		c.TargetKind = schema.CommentOnTable
	case "column":
		c.TargetKind = schema.CommentOnColumn
	case "index":
		c.TargetKind = schema.CommentOnIndex
	case "view":
		c.TargetKind = schema.CommentOnView
	case "function":
		c.TargetKind = schema.CommentOnFunction
	}
	if strings.EqualFold(m[3], "null") {
		c.Text = nil
	} else {
		text := strings.ReplaceAll(strings.Trim(m[3], "'"), "''", "'")
		c.Text = &text
	}
	return c, nil
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
		Target:     parseQualifiedNameLocal(m[2]),
		Grantee:    schema.NewIdent(stripIdent(m[3])),
		WithGrant:  m[4] != "",
	}, nil
}

func parseQualifiedNameLocal(raw string) schema.QualifiedName {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) == 2 {
		return schema.NewQualifiedName(stripIdent(parts[0]), stripIdent(parts[1]))
	}
	return schema.NewQualifiedName("", stripIdent(raw))
}

func stripIdent(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
