package diff

import (
	"regexp"
	"strings"

	"github.com/stateql/stateql/schema"
)

// fromJoinRE extracts relation references following FROM/JOIN tokens
// (§4.3). Views are stored as opaque query text (§9: per-dialect SQL
// parsing is a consumer contract, not this package's job), so dependency
// extraction is a lexical scan rather than an AST walk -- the same
// relation-reference extraction idea as extractDependenciesFromTableExpr,
// adapted to work directly on text instead of a parsed SelectStatement.
var fromJoinRE = regexp.MustCompile(`(?i)\b(?:from|join)\s+("?[A-Za-z_][\w$]*"?(?:\."?[A-Za-z_][\w$]*"?)?)`)

// ExtractViewDependencies returns the set of relation names (schema-
// qualified when the query qualifies them) a view's query text refers
// to. Exported for the order package's priority-24 dependency graph
// (§4.5), which uses "the same resolver as §4.3".
func ExtractViewDependencies(query string) map[string]bool {
	return extractViewDependencies(query)
}

func extractViewDependencies(query string) map[string]bool {
	deps := make(map[string]bool)
	for _, m := range fromJoinRE.FindAllStringSubmatch(query, -1) {
		ref := strings.ReplaceAll(m[1], `"`, "")
		deps[strings.ToLower(ref)] = true
	}
	return deps
}

// RebuildPlan is the view-rebuild expansion of a single changed view
// (§4.3): dropping and recreating it may require transitively dropping
// and recreating every view that depends on it, in dependency order.
type RebuildPlan struct {
	DropOrder   []*schema.View // leaf-most first
	CreateOrder []*schema.View // dependency-most first
}

// PlanViewRebuild computes the reverse-dependency closure of the changed
// views (by BFS over the snapshot's view graph) and topologically sorts
// it for drop (children before parents) and create (parents before
// children) order. On a dependency cycle the create order falls back to
// the original snapshot order and the drop order is its reverse (§4.3
// "cycle fallback"), matching
// SortTablesByDependencies's empty-sort fallback.
func PlanViewRebuild(snapshot *schema.Snapshot, changed []*schema.View) RebuildPlan {
	allViews := snapshot.Views
	depsByView := make(map[string]map[string]bool, len(allViews))
	nameOf := make(map[string]*schema.View, len(allViews))
	for _, v := range allViews {
		key := strings.ToLower(v.Name.Name.Value)
		depsByView[key] = extractViewDependencies(v.Query)
		nameOf[key] = v
	}

	// reverse edges: who depends on me
	dependents := make(map[string][]string)
	for viewName, deps := range depsByView {
		for dep := range deps {
			dependents[dep] = append(dependents[dep], viewName)
		}
	}

	closure := make(map[string]bool)
	queue := make([]string, 0, len(changed))
	for _, v := range changed {
		key := strings.ToLower(v.Name.Name.Value)
		closure[key] = true
		queue = append(queue, key)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range dependents[cur] {
			if !closure[dep] {
				closure[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	var affected []*schema.View
	for _, v := range allViews {
		if closure[strings.ToLower(v.Name.Name.Value)] {
			affected = append(affected, v)
		}
	}

	deps := make(map[string][]string, len(affected))
	for _, v := range affected {
		key := strings.ToLower(v.Name.Name.Value)
		var d []string
		for dep := range depsByView[key] {
			if closure[dep] {
				d = append(d, dep)
			}
		}
		deps[key] = d
	}

	createOrder := topologicalSort(affected, deps, func(v *schema.View) string {
		return strings.ToLower(v.Name.Name.Value)
	})
	if len(createOrder) == 0 {
		createOrder = affected
	}

	dropOrder := make([]*schema.View, len(createOrder))
	for i, v := range createOrder {
		dropOrder[len(createOrder)-1-i] = v
	}

	return RebuildPlan{DropOrder: dropOrder, CreateOrder: createOrder}
}

// topologicalSort is the generic DFS three-color sort used by the view
// rebuild planner, ported from the teacher's ddl_ordering.go.
func topologicalSort[T any](items []T, dependencies map[string][]string, getID func(T) string) []T {
	var sorted []T
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemMap := make(map[string]T)

	for _, item := range items {
		itemMap[getID(item)] = item
	}

	var visit func(string) bool
	visit = func(id string) bool {
		if visiting[id] {
			return false
		}
		if visited[id] {
			return true
		}
		visiting[id] = true
		for _, dep := range dependencies[id] {
			if _, exists := itemMap[dep]; exists {
				if !visit(dep) {
					return false
				}
			}
		}
		visiting[id] = false
		visited[id] = true
		if item, exists := itemMap[id]; exists {
			sorted = append(sorted, item)
		}
		return true
	}

	for _, item := range items {
		id := getID(item)
		if !visited[id] {
			if !visit(id) {
				return []T{}
			}
		}
	}
	return sorted
}
