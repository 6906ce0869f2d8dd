package order

import (
	"sort"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// readyItem pairs a node id with the stable (original_index, local_index)
// tie-break key the ready-set uses at each step (§4.5 "Determinism").
type readyItem struct {
	id          string
	originalIdx int
	localIdx    int
}

// kahnToposort runs Kahn's algorithm over a dependency graph (edges:
// id -> the ids it depends on), breaking ready-set ties by
// (original_index, local_index) for determinism. Unresolved nodes after
// the queue drains (a genuine cycle) are returned separately so the
// caller can apply its own fallback (§4.5 "Termination").
func kahnToposort(ids []string, dependsOn map[string][]string, originalIndex map[string]int) (sorted []string, remaining []string) {
	indegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string) // dep -> ids that depend on it
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for _, id := range ids {
		for _, dep := range dependsOn[id] {
			if !idSet[dep] || dep == id {
				continue
			}
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []readyItem
	localIdx := 0
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, readyItem{id: id, originalIdx: originalIndex[id], localIdx: localIdx})
			localIdx++
		}
	}

	popped := make(map[string]bool, len(ids))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool {
			if ready[i].originalIdx != ready[j].originalIdx {
				return ready[i].originalIdx < ready[j].originalIdx
			}
			return ready[i].localIdx < ready[j].localIdx
		})
		next := ready[0]
		ready = ready[1:]
		if popped[next.id] {
			continue
		}
		popped[next.id] = true
		sorted = append(sorted, next.id)

		for _, dependent := range dependents[next.id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, readyItem{id: dependent, originalIdx: originalIndex[dependent], localIdx: localIdx})
				localIdx++
			}
		}
	}

	if len(sorted) == len(ids) {
		return sorted, nil
	}
	for _, id := range ids {
		if !popped[id] {
			remaining = append(remaining, id)
		}
	}
	return sorted, remaining
}

// orderCreateTable implements §4.5's priority-21 rule: build an FK
// dependency graph (self-FKs ignored), topologically sort, and fall
// back any remaining cycle participants to creating the table without
// its circular FKs plus a deferred AddForeignKey (priority 23).
func orderCreateTable(ops []diff.Op) []diff.Op {
	byName := make(map[string]diff.Op, len(ops))
	originalIndex := make(map[string]int, len(ops))
	dependsOn := make(map[string][]string, len(ops))
	var ids []string

	for _, op := range ops {
		id := op.NewTable.Name.Key().Name.Folded
		byName[id] = op
		originalIndex[id] = op.OriginalIndex
		ids = append(ids, id)

		for _, fk := range op.NewTable.ForeignKeys {
			depID := fk.RefTable.Key().Name.Folded
			if depID == id {
				continue // self-FK ignored per §4.5
			}
			dependsOn[id] = append(dependsOn[id], depID)
		}
	}

	sortedIDs, remaining := kahnToposort(ids, dependsOn, originalIndex)

	var result []diff.Op
	for _, id := range sortedIDs {
		result = append(result, byName[id])
	}

	if len(remaining) == 0 {
		return result
	}

	// Cycle fallback: append remaining tables (original order), dropping
	// their circular FKs, and defer those as AddForeignKey ops.
	sort.SliceStable(remaining, func(i, j int) bool {
		return originalIndex[remaining[i]] < originalIndex[remaining[j]]
	})
	remainingSet := make(map[string]bool, len(remaining))
	for _, id := range remaining {
		remainingSet[id] = true
	}
	for _, id := range remaining {
		op := byName[id]
		stripped := *op.NewTable
		var kept []schema.ForeignKey
		for _, fk := range stripped.ForeignKeys {
			depID := fk.RefTable.Key().Name.Folded
			if remainingSet[depID] && depID != id {
				// deferred: emitted separately below
				continue
			}
			kept = append(kept, fk)
		}
		deferredFKs := diffForeignKeys(op.NewTable.ForeignKeys, kept)
		stripped.ForeignKeys = kept
		op.NewTable = &stripped
		result = append(result, op)
		for _, fk := range deferredFKs {
			result = append(result, diff.Op{Kind: diff.OpAddForeignKey, Table: op.NewTable.Name, ForeignKey: fk, OriginalIndex: op.OriginalIndex})
		}
	}
	return result
}

func diffForeignKeys(all, kept []schema.ForeignKey) []schema.ForeignKey {
	keptSet := make(map[schema.IdentKey]bool, len(kept))
	for _, fk := range kept {
		keptSet[fk.ConstraintName.Key()] = true
	}
	var deferred []schema.ForeignKey
	for _, fk := range all {
		if !keptSet[fk.ConstraintName.Key()] {
			deferred = append(deferred, fk)
		}
	}
	return deferred
}

// orderCreateView implements §4.5's priority-24 rule: dependency graph
// by relation-reference extraction (the same FROM/JOIN scan as §4.3),
// topologically sorted; cycle remainder falls back to original order.
func orderCreateView(ops []diff.Op, desired *schema.Snapshot) []diff.Op {
	byName := make(map[string]diff.Op, len(ops))
	originalIndex := make(map[string]int, len(ops))
	dependsOn := make(map[string][]string, len(ops))
	var ids []string

	allNames := make(map[string]bool)
	if desired != nil {
		for _, t := range desired.Tables {
			allNames[t.Name.Key().Name.Folded] = true
		}
		for _, v := range desired.Views {
			allNames[v.Name.Key().Name.Folded] = true
		}
	}

	for _, op := range ops {
		id := op.View.Name.Key().Name.Folded
		byName[id] = op
		originalIndex[id] = op.OriginalIndex
		ids = append(ids, id)

		for dep := range diff.ExtractViewDependencies(op.View.Query) {
			if allNames[dep] {
				dependsOn[id] = append(dependsOn[id], dep)
			}
		}
	}

	sortedIDs, remaining := kahnToposort(ids, dependsOn, originalIndex)
	var result []diff.Op
	for _, id := range sortedIDs {
		result = append(result, byName[id])
	}
	if len(remaining) > 0 {
		sort.SliceStable(remaining, func(i, j int) bool {
			return originalIndex[remaining[i]] < originalIndex[remaining[j]]
		})
		for _, id := range remaining {
			result = append(result, byName[id])
		}
	}
	return result
}
