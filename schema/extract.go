package schema

import (
	"regexp"
	"strings"
)

var renameCommentRE = regexp.MustCompile(`(?i)--\s*@renamed_from\s+([A-Za-z_][A-Za-z0-9_]*)\s*(\(deprecated\))?`)

// ExtractAnnotations scans raw DDL text for `-- @renamed_from old_name`
// line comments. Annotation extraction from DDL comments is an
// out-of-scope collaborator per spec §1 ("specified only by the
// contracts they consume/produce"); this is a minimal real
// implementation so AttachAnnotations has something to consume, grounded
// on the margin-comment capture convention in the teacher's
// parser/comments.go.
func ExtractAnnotations(ddlText string) []Annotation {
	var out []Annotation
	for i, line := range strings.Split(ddlText, "\n") {
		m := renameCommentRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, Annotation{
			Line:       i + 1,
			From:       m[1],
			Deprecated: m[2] != "",
		})
	}
	return out
}
