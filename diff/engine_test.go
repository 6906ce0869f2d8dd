package diff

import (
	"strconv"
	"testing"

	"github.com/stateql/stateql/schema"
)

func tbl(name string, cols ...schema.Column) *schema.Table {
	return &schema.Table{Name: schema.NewQualifiedName("", name), Columns: cols}
}

func col(name string, kind schema.DataTypeKind) schema.Column {
	return schema.Column{Name: schema.NewIdent(name), Type: schema.DataType{Kind: kind}}
}

func TestDiffCreateAndDropTable(t *testing.T) {
	current := &schema.Snapshot{Tables: []*schema.Table{tbl("old_table", col("id", schema.TypeInteger))}}
	desired := &schema.Snapshot{Tables: []*schema.Table{tbl("new_table", col("id", schema.TypeInteger))}}

	res, err := Diff(current, desired, DiffConfig{EnableDrop: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawCreate, sawDrop bool
	for _, op := range res.Ops {
		if op.Kind == OpCreateTable && op.NewTable.Name.Name.Value == "new_table" {
			sawCreate = true
		}
		if op.Kind == OpDropTable && op.Table.Name.Value == "old_table" {
			sawDrop = true
		}
	}
	if !sawCreate || !sawDrop {
		t.Fatalf("expected create+drop pair, got %+v", res.Ops)
	}
}

func TestDiffSuppressesDropWithoutEnableDrop(t *testing.T) {
	current := &schema.Snapshot{Tables: []*schema.Table{tbl("gone", col("id", schema.TypeInteger))}}
	desired := &schema.Snapshot{}

	res, err := Diff(current, desired, DiffConfig{EnableDrop: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Ops) != 0 {
		t.Fatalf("expected drop suppressed, got %+v", res.Ops)
	}
	if len(res.Diagnostics.SkippedOps) != 1 {
		t.Fatalf("expected one skipped op, got %+v", res.Diagnostics.SkippedOps)
	}
}

// Scenario 3 (§8): equivalence policy suppresses a default-expression
// diff that strict comparison would flag.
func TestDiffScenario3EquivalencePolicySuppressesDefaultDiff(t *testing.T) {
	castZero := schema.Expr{Kind: schema.ExprCast, Operand: exprp(schema.StringLiteral("0")), CastType: &schema.DataType{Kind: schema.TypeInteger}}
	bareZero := schema.IntLiteral(0)

	currentCol := col("quantity", schema.TypeInteger)
	currentCol.Default = &castZero
	desiredCol := col("quantity", schema.TypeInteger)
	desiredCol.Default = &bareZero

	current := &schema.Snapshot{Tables: []*schema.Table{tbl("items", currentCol)}}
	desired := &schema.Snapshot{Tables: []*schema.Table{tbl("items", desiredCol)}}

	relaxed, err := Diff(current, desired, DiffConfig{EnableDrop: true, EquivalencePolicy: castRelaxedPolicy{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(relaxed.Ops) != 0 {
		t.Fatalf("expected relaxed policy to suppress the diff, got %+v", relaxed.Ops)
	}

	strict, err := Diff(current, desired, DiffConfig{EnableDrop: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strict.Ops) != 1 || strict.Ops[0].Kind != OpAlterColumn {
		t.Fatalf("expected exactly one AlterColumn under strict policy, got %+v", strict.Ops)
	}
	if len(strict.Ops[0].ColumnChanges) != 1 || strict.Ops[0].ColumnChanges[0].Kind != ColumnSetDefault {
		t.Fatalf("expected a single SetDefault change, got %+v", strict.Ops[0].ColumnChanges)
	}
}

type castRelaxedPolicy struct{}

func (castRelaxedPolicy) Name() string { return "cast-relaxed" }
func (castRelaxedPolicy) ExprEqual(a, b schema.Expr) bool {
	return literalValue(a) == literalValue(b)
}

func literalValue(e schema.Expr) string {
	if e.Kind == schema.ExprCast && e.Operand != nil {
		return literalValue(*e.Operand)
	}
	if e.Kind == schema.ExprLiteral && e.LitKind == schema.LitInt {
		return strconv.FormatInt(e.IntVal, 10)
	}
	return e.StrVal
}

func exprp(e schema.Expr) *schema.Expr { return &e }

// Scenario 4 (§8): enum prefix-extension yields a single AddValue.
func TestDiffScenario4EnumPrefixExtensionYieldsAddValue(t *testing.T) {
	current := &schema.Snapshot{Types: []*schema.TypeDef{{
		Name: schema.NewQualifiedName("", "status"), Kind: schema.TypeDefEnum, Labels: []string{"draft"},
	}}}
	desired := &schema.Snapshot{Types: []*schema.TypeDef{{
		Name: schema.NewQualifiedName("", "status"), Kind: schema.TypeDefEnum, Labels: []string{"draft", "active"},
	}}}

	res, err := Diff(current, desired, DiffConfig{EnableDrop: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Ops) != 1 || res.Ops[0].Kind != OpAlterType {
		t.Fatalf("expected exactly one AlterType op, got %+v", res.Ops)
	}
	change := res.Ops[0].TypeChange
	if change == nil || change.Kind != TypeAddValue || change.Value != "active" {
		t.Fatalf("expected AddValue(active), got %+v", change)
	}
}
