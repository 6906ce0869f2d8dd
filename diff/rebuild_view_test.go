package diff

import (
	"testing"

	"github.com/stateql/stateql/schema"
)

func view(name, query string) *schema.View {
	return &schema.View{Name: schema.NewQualifiedName("", name), Query: query}
}

// Scenario 5 (§8): view rebuild closure. base_v changes; dep_v depends on
// it and must be dropped and recreated around the change, even though
// dep_v's own definition is unchanged.
func TestScenario5ViewRebuildClosure(t *testing.T) {
	current := &schema.Snapshot{Views: []*schema.View{
		view("base_v", "SELECT 1 AS c"),
		view("dep_v", "SELECT c FROM base_v"),
	}}

	changedBaseV := view("base_v", "SELECT 2 AS c")
	plan := PlanViewRebuild(current, []*schema.View{changedBaseV})

	if len(plan.DropOrder) != 2 {
		t.Fatalf("expected 2 views in the rebuild set, got %+v", plan.DropOrder)
	}
	if plan.DropOrder[0].Name.Name.Value != "dep_v" || plan.DropOrder[1].Name.Name.Value != "base_v" {
		t.Fatalf("expected dependents-first drop order dep_v, base_v; got %s, %s",
			plan.DropOrder[0].Name.Name.Value, plan.DropOrder[1].Name.Name.Value)
	}
	if plan.CreateOrder[0].Name.Name.Value != "base_v" || plan.CreateOrder[1].Name.Name.Value != "dep_v" {
		t.Fatalf("expected dependency-first create order base_v, dep_v; got %s, %s",
			plan.CreateOrder[0].Name.Name.Value, plan.CreateOrder[1].Name.Name.Value)
	}
}

func TestExtractViewDependenciesHandlesJoins(t *testing.T) {
	deps := extractViewDependencies("SELECT * FROM orders o JOIN customers c ON o.customer_id = c.id")
	if !deps["orders"] || !deps["customers"] {
		t.Fatalf("expected both orders and customers, got %+v", deps)
	}
}

func TestPlanViewRebuildCycleFallsBackToOriginalOrder(t *testing.T) {
	current := &schema.Snapshot{Views: []*schema.View{
		view("a", "SELECT * FROM b"),
		view("b", "SELECT * FROM a"),
	}}
	plan := PlanViewRebuild(current, []*schema.View{view("a", "SELECT * FROM b WHERE 1=1")})
	if len(plan.CreateOrder) != 2 || len(plan.DropOrder) != 2 {
		t.Fatalf("expected both cyclic views retained via fallback, got create=%+v drop=%+v", plan.CreateOrder, plan.DropOrder)
	}
}
