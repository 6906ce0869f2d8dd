package schema

import "testing"

func TestValidateInvariantsI1IndexOwnerMissing(t *testing.T) {
	snap := &Snapshot{
		Indexes: []*IndexDef{{Owner: NewQualifiedName("", "missing_table"), Name: identPtr("idx_x")}},
	}
	err := ValidateInvariants(snap, "desired")
	if err == nil {
		t.Fatal("expected I1 violation")
	}
	ie, ok := err.(*InvariantError)
	if !ok || ie.Invariant != "I1" {
		t.Fatalf("expected I1 InvariantError, got %#v", err)
	}
}

func TestValidateInvariantsI1IndexOwnerResolves(t *testing.T) {
	snap := &Snapshot{
		Tables:  []*Table{{Name: NewQualifiedName("", "users")}},
		Indexes: []*IndexDef{{Owner: NewQualifiedName("", "users"), Name: identPtr("idx_x")}},
	}
	if err := ValidateInvariants(snap, "desired"); err != nil {
		t.Fatalf("expected no violation, got %v", err)
	}
}

func TestValidateInvariantsI2SequenceConflict(t *testing.T) {
	snap := &Snapshot{
		Tables: []*Table{{
			Name:    NewQualifiedName("", "users"),
			Columns: []Column{{Name: NewIdent("id"), Identity: &IdentitySpec{Behavior: IdentityAlways}}},
		}},
		Sequences: []*Sequence{{Name: NewQualifiedName("", "users_id_seq")}},
	}
	err := ValidateInvariants(snap, "current")
	if err == nil {
		t.Fatal("expected I2 violation")
	}
	ie, ok := err.(*InvariantError)
	if !ok || ie.Invariant != "I2" {
		t.Fatalf("expected I2 InvariantError, got %#v", err)
	}
}

func identPtr(s string) *Ident {
	i := NewIdent(s)
	return &i
}
