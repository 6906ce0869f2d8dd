package dialect

import (
	"regexp"
	"strings"
)

var leadingCommentRE = regexp.MustCompilePOSIX("^--.*")

// SplitStatements breaks a SQL file into individual statement strings
// on semicolon boundaries, tracking single/double/backtick-quoted
// sections and parenthesis depth so that a semicolon inside a string
// literal, quoted identifier, or parentheses does not split prematurely.
// BEGIN...END blocks and dollar-quoted bodies are not tracked, so a
// semicolon inside a trigger or function body does split the statement.
// Adapted from the teacher's
// splitDDLs, which instead re-parses growing prefixes until one
// succeeds (parser/sqldef.go) -- a strategy that depended on having the
// teacher's full statement grammar available. This module has no such
// grammar, so splitting tracks lexical state directly instead.
func SplitStatements(sql string) []string {
	stmts := SplitStatementsWithLines(sql)
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Text
	}
	return out
}

// Statement is one lexically-split statement plus the 1-based line (in
// the caller's original, comment-bearing text) its first non-blank
// content starts on, so schema.ExtractAnnotations's line numbers can be
// matched back to a schema.Attachment (§4.1 "Rename annotation
// attachment").
type Statement struct {
	Text string
	Line int
}

// SplitStatementsWithLines is SplitStatements plus per-statement line
// tracking: comment stripping replaces comment text in place rather than
// deleting the line, so line numbers stay aligned with the input.
func SplitStatementsWithLines(sql string) []Statement {
	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		lines[i] = leadingCommentRE.ReplaceAllString(line, "")
	}
	stripped := strings.Join(lines, "\n")

	var statements []Statement
	var current strings.Builder
	var quote rune
	depth := 0
	line := 1
	stmtLine := 1
	pendingStart := true

	runes := []rune(stripped)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
		}
		if pendingStart && !isSpace(r) {
			stmtLine = line
			pendingStart = false
		}

		if quote != 0 {
			current.WriteRune(r)
			if r == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					current.WriteRune(runes[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch r {
		case '\'', '"', '`':
			quote = r
			current.WriteRune(r)
		case '(':
			depth++
			current.WriteRune(r)
		case ')':
			if depth > 0 {
				depth--
			}
			current.WriteRune(r)
		case ';':
			if depth == 0 {
				stmt := strings.TrimSpace(current.String())
				if stmt != "" {
					statements = append(statements, Statement{Text: stmt, Line: stmtLine})
				}
				current.Reset()
				pendingStart = true
				continue
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, Statement{Text: stmt, Line: stmtLine})
	}
	return statements
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
