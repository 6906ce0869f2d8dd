package sqlite

import (
	"testing"
)

func TestParseAttachesTableRenameAnnotation(t *testing.T) {
	sql := "-- @renamed_from accounts\nCREATE TABLE people (id INTEGER);"

	snap, err := New().Parse(sql)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(snap.Tables))
	}
	people := snap.Tables[0]
	if people.RenamedFrom == nil || people.RenamedFrom.Name.Value != "accounts" {
		t.Fatalf("expected people.RenamedFrom to be 'accounts', got %+v", people.RenamedFrom)
	}
}

func TestParseWithoutAnnotationLeavesRenamedFromNil(t *testing.T) {
	snap, err := New().Parse("CREATE TABLE people (id INTEGER);")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Tables[0].RenamedFrom != nil {
		t.Fatalf("expected no RenamedFrom, got %+v", snap.Tables[0].RenamedFrom)
	}
}
