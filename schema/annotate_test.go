package schema

import "testing"

func TestAttachAnnotationsAssignsNearestFollowing(t *testing.T) {
	tbl := &Table{Name: NewQualifiedName("", "accounts")}
	annotations := []Annotation{{Line: 1, From: "users"}}
	attachments := []Attachment{{Line: 2, Kind: AnnotateTable, Table: tbl}}

	err := AttachAnnotations(annotations, attachments, func(a Annotation) AnnotationTargetKind {
		return AnnotateTable
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.RenamedFrom == nil || tbl.RenamedFrom.Name.Value != "users" {
		t.Fatalf("expected RenamedFrom to be set to 'users', got %+v", tbl.RenamedFrom)
	}
}

// Scenario 7 (§8): orphan annotation rejection is fatal and all-or-nothing.
func TestAttachAnnotationsOrphanIsFatalAndAllOrNothing(t *testing.T) {
	tbl := &Table{Name: NewQualifiedName("", "accounts")}
	annotations := []Annotation{
		{Line: 1, From: "users"},   // matches
		{Line: 5, From: "orphans"}, // no following attachment
	}
	attachments := []Attachment{{Line: 2, Kind: AnnotateTable, Table: tbl}}

	err := AttachAnnotations(annotations, attachments, func(a Annotation) AnnotationTargetKind {
		return AnnotateTable
	})
	if err == nil {
		t.Fatal("expected orphan annotation error")
	}
	if _, ok := err.(*OrphanAnnotationError); !ok {
		t.Fatalf("expected OrphanAnnotationError, got %#v", err)
	}
	if tbl.RenamedFrom != nil {
		t.Fatalf("expected no partial mutation on error, got RenamedFrom=%+v", tbl.RenamedFrom)
	}
}

func TestExtractAnnotationsRenameComment(t *testing.T) {
	ddl := "-- @renamed_from old_users\nCREATE TABLE users (id int);"
	anns := ExtractAnnotations(ddl)
	if len(anns) != 1 || anns[0].From != "old_users" {
		t.Fatalf("expected a single rename annotation, got %+v", anns)
	}
}

func TestAttachTableRenamesEndToEnd(t *testing.T) {
	ddl := "-- @renamed_from old_users\nCREATE TABLE users (id int);\nCREATE TABLE posts (id int);"
	users := &Table{Name: NewQualifiedName("", "users")}
	posts := &Table{Name: NewQualifiedName("", "posts")}

	err := AttachTableRenames(ddl, []*Table{users, posts}, []int{2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users.RenamedFrom == nil || users.RenamedFrom.Name.Value != "old_users" {
		t.Fatalf("expected users.RenamedFrom to be 'old_users', got %+v", users.RenamedFrom)
	}
	if posts.RenamedFrom != nil {
		t.Fatalf("expected posts to have no RenamedFrom, got %+v", posts.RenamedFrom)
	}
}

func TestAttachTableRenamesNoAnnotationsIsNoop(t *testing.T) {
	ddl := "CREATE TABLE users (id int);"
	users := &Table{Name: NewQualifiedName("", "users")}

	if err := AttachTableRenames(ddl, []*Table{users}, []int{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users.RenamedFrom != nil {
		t.Fatalf("expected no RenamedFrom without an annotation, got %+v", users.RenamedFrom)
	}
}
