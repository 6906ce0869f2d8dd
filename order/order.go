// Package order produces an execution-safe ordering of diff.Op values
// (§4.5): priority-group bucketing, intra-group sub-ordering for
// TableScoped ops, and dependency-aware topological sorts for
// CreateTable and CreateView.
package order

import (
	"sort"

	"github.com/stateql/stateql/diff"
	"github.com/stateql/stateql/schema"
)

// Order sorts ops into an execution-safe sequence per §4.5.
func Order(ops []diff.Op, desired *schema.Snapshot) []diff.Op {
	groups := make(map[int][]diff.Op)
	for _, op := range ops {
		groups[op.Kind.Priority()] = append(groups[op.Kind.Priority()], op)
	}

	var result []diff.Op
	for p := 1; p <= 30; p++ {
		group := groups[p]
		if len(group) == 0 {
			continue
		}
		switch p {
		case 21:
			result = append(result, orderCreateTable(group)...)
		case 22:
			result = append(result, orderTableScoped(group)...)
		case 24:
			result = append(result, orderCreateView(group, desired)...)
		default:
			result = append(result, preserveOriginalOrder(group)...)
		}
	}
	return result
}

func preserveOriginalOrder(ops []diff.Op) []diff.Op {
	sorted := make([]diff.Op, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OriginalIndex < sorted[j].OriginalIndex
	})
	return sorted
}

// orderTableScoped implements §4.5's priority-22 intra-group rule:
// partition by table in first-encounter order, then sort within each
// table's partition by TableSubPriority, ties broken by original index.
func orderTableScoped(ops []diff.Op) []diff.Op {
	var tableOrder []schema.QualifiedNameKey
	seen := make(map[schema.QualifiedNameKey]bool)
	byTable := make(map[schema.QualifiedNameKey][]diff.Op)

	for _, op := range ops {
		key := op.Table.Key()
		if !seen[key] {
			seen[key] = true
			tableOrder = append(tableOrder, key)
		}
		byTable[key] = append(byTable[key], op)
	}

	var result []diff.Op
	for _, key := range tableOrder {
		group := byTable[key]
		sort.SliceStable(group, func(i, j int) bool {
			si, sj := group[i].Kind.TableSubPriority(), group[j].Kind.TableSubPriority()
			if si != sj {
				return si < sj
			}
			return group[i].OriginalIndex < group[j].OriginalIndex
		})
		result = append(result, group...)
	}
	return result
}
