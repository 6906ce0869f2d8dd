package order

import (
	"testing"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Scenario 1 (§8): a CreateTable("child") with an FK to "parent",
// emitted before CreateTable("parent"), must still order parent first.
func TestScenario1CreateTableDependencyOrdering(t *testing.T) {
	parent := &schema.Table{Name: schema.NewQualifiedName("", "parent")}
	child := &schema.Table{
		Name: schema.NewQualifiedName("", "child"),
		ForeignKeys: []schema.ForeignKey{{
			ConstraintName: schema.NewIdent("fk_child_parent"),
			RefTable:       schema.NewQualifiedName("", "parent"),
		}},
	}
	ops := []diff.Op{
		{Kind: diff.OpCreateTable, NewTable: child, OriginalIndex: 0},
		{Kind: diff.OpCreateTable, NewTable: parent, OriginalIndex: 1},
	}

	result := Order(ops, &schema.Snapshot{Tables: []*schema.Table{parent, child}})
	if len(result) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(result))
	}
	if result[0].NewTable.Name.Name.Value != "parent" || result[1].NewTable.Name.Name.Value != "child" {
		t.Fatalf("expected parent before child, got %s then %s",
			result[0].NewTable.Name.Name.Value, result[1].NewTable.Name.Name.Value)
	}
}

func TestPriorityMonotonicity(t *testing.T) {
	ops := []diff.Op{
		{Kind: diff.OpGrant, OriginalIndex: 0},
		{Kind: diff.OpDropTable, Table: schema.NewQualifiedName("", "t"), OriginalIndex: 1},
		{Kind: diff.OpCreateSchema, OriginalIndex: 2},
	}
	result := Order(ops, &schema.Snapshot{})
	for i := 1; i < len(result); i++ {
		if result[i-1].Kind.Priority() > result[i].Kind.Priority() {
			t.Fatalf("priority not monotonic at index %d: %+v", i, result)
		}
	}
}

func TestOrderDeterministic(t *testing.T) {
	ops := []diff.Op{
		{Kind: diff.OpAddColumn, Table: schema.NewQualifiedName("", "t"), OriginalIndex: 0},
		{Kind: diff.OpDropColumn, Table: schema.NewQualifiedName("", "t"), OriginalIndex: 1},
	}
	first := Order(ops, &schema.Snapshot{})
	second := Order(ops, &schema.Snapshot{})
	if len(first) != len(second) {
		t.Fatalf("length mismatch across invocations")
	}
	for i := range first {
		if first[i].Kind != second[i].Kind {
			t.Fatalf("non-deterministic ordering at index %d", i)
		}
	}
}

func TestOrderCreateTableCycleFallbackDefersForeignKeys(t *testing.T) {
	a := &schema.Table{
		Name: schema.NewQualifiedName("", "a"),
		ForeignKeys: []schema.ForeignKey{{
			ConstraintName: schema.NewIdent("fk_a_b"), RefTable: schema.NewQualifiedName("", "b"),
		}},
	}
	b := &schema.Table{
		Name: schema.NewQualifiedName("", "b"),
		ForeignKeys: []schema.ForeignKey{{
			ConstraintName: schema.NewIdent("fk_b_a"), RefTable: schema.NewQualifiedName("", "a"),
		}},
	}
	ops := []diff.Op{
		{Kind: diff.OpCreateTable, NewTable: a, OriginalIndex: 0},
		{Kind: diff.OpCreateTable, NewTable: b, OriginalIndex: 1},
	}
	result := Order(ops, &schema.Snapshot{Tables: []*schema.Table{a, b}})

	var createCount, addFKCount int
	for _, op := range result {
		switch op.Kind {
		case diff.OpCreateTable:
			createCount++
			if len(op.NewTable.ForeignKeys) != 0 {
				t.Fatalf("expected circular FK stripped from CreateTable, got %+v", op.NewTable.ForeignKeys)
			}
		case diff.OpAddForeignKey:
			addFKCount++
		}
	}
	if createCount != 2 || addFKCount != 2 {
		t.Fatalf("expected 2 CreateTable + 2 deferred AddForeignKey, got create=%d addfk=%d", createCount, addFKCount)
	}
}
