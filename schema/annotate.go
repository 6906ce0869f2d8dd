package schema

import "fmt"

// AnnotationTargetKind is the kind an attachment point can carry a rename
// hint for (§4.1 "Rename annotation attachment").
type AnnotationTargetKind int

const (
	AnnotateTable AnnotationTargetKind = iota
	AnnotateView
	AnnotateIndex
	AnnotateColumn
)

// Annotation is a parsed `@renamed_from old_name` comment (or similar
// dialect comment syntax), carrying the source line it appeared on.
// Extraction from DDL comment text is an out-of-scope collaborator per
// spec §1; schema/extract.go ships a minimal real extractor so this
// in-scope attacher has something to consume.
type Annotation struct {
	Line       int
	From       string
	Deprecated bool
}

// Attachment is a parse-time marker of "the next CREATE of kind Kind at
// line Line is a candidate for the nearest preceding annotation of a
// matching kind".
type Attachment struct {
	Line   int
	Kind   AnnotationTargetKind
	Table  *Table
	View   *View
	Index  *IndexDef
	Column *Column
	Owner  *Table // owning table, for AnnotateColumn/AnnotateIndex
}

// OrphanAnnotationError is fatal per §4.1/§7: an annotation with no
// matching following attachment. attach_annotations is all-or-nothing —
// no partial mutation is observed by the caller when this is returned.
type OrphanAnnotationError struct {
	Line int
	From string
}

func (e *OrphanAnnotationError) Error() string {
	return fmt.Sprintf("orphan annotation at line %d: @renamed_from %s has no matching attachment", e.Line, e.From)
}

// AttachAnnotations matches each annotation to the nearest following
// attachment whose target kind matches the annotation's kind, and assigns
// RenamedFrom. It validates the full match set before mutating anything,
// so a caller never observes a partial assignment (§4.1, §7).
func AttachAnnotations(annotations []Annotation, attachments []Attachment, kindOf func(Annotation) AnnotationTargetKind) error {
	type pending struct {
		attachment *Attachment
		from       string
	}
	var plan []pending

	used := make([]bool, len(attachments))
	for _, ann := range annotations {
		kind := kindOf(ann)
		best := -1
		for i, att := range attachments {
			if used[i] || att.Kind != kind || att.Line < ann.Line {
				continue
			}
			if best == -1 || attachments[i].Line < attachments[best].Line {
				best = i
			}
		}
		if best == -1 {
			return &OrphanAnnotationError{Line: ann.Line, From: ann.From}
		}
		used[best] = true
		plan = append(plan, pending{attachment: &attachments[best], from: ann.From})
	}

	for _, p := range plan {
		from := NewIdent(p.from)
		switch p.attachment.Kind {
		case AnnotateTable:
			p.attachment.Table.RenamedFrom = &QualifiedName{Name: from}
		case AnnotateView:
			// matched, but nothing is recorded: View carries no rename field
		case AnnotateIndex:
			p.attachment.Index.RenamedFrom = &from
		case AnnotateColumn:
			p.attachment.Column.RenamedFrom = &from
		}
	}
	return nil
}

// AttachTableRenames scans ddlText for `-- @renamed_from old_name`
// comments and assigns RenamedFrom on the table whose CREATE TABLE
// statement is the nearest one following the comment, per tableLines
// (tableLines[i] is the line tables[i]'s statement starts on, in
// ddlText's own line numbering). A dialect's Parse calls this once it
// has built the table list, so a real parsed script can produce a
// RenameTable op instead of only hand-built Go snapshots.
func AttachTableRenames(ddlText string, tables []*Table, tableLines []int) error {
	annotations := ExtractAnnotations(ddlText)
	if len(annotations) == 0 {
		return nil
	}
	attachments := make([]Attachment, len(tables))
	for i, t := range tables {
		attachments[i] = Attachment{Line: tableLines[i], Kind: AnnotateTable, Table: t}
	}
	return AttachAnnotations(annotations, attachments, func(Annotation) AnnotationTargetKind {
		return AnnotateTable
	})
}
