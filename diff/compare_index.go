package diff

import "github.com/stateql/stateql/schema"

// indexStructurallyEqual implements the Index comparator from §4.2:
// "structural equality only; any difference ⇒ drop+add". Concurrent is
// an execution-time hint, not part of the index's shape, so it is
// excluded from the comparison.
func indexStructurallyEqual(a, b schema.IndexDef) bool {
	if a.Unique != b.Unique || a.Method != b.Method || a.Primary != b.Primary {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i].Direction != b.Columns[i].Direction {
			return false
		}
		if !intPtrEqualExported(a.Columns[i].Length, b.Columns[i].Length) {
			return false
		}
		if !schema.StrictEqual(a.Columns[i].Expr, b.Columns[i].Expr) {
			return false
		}
	}
	if (a.Predicate == nil) != (b.Predicate == nil) {
		return false
	}
	if a.Predicate != nil && !schema.StrictEqual(*a.Predicate, *b.Predicate) {
		return false
	}
	return true
}

func intPtrEqualExported(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func indexName(idx *schema.IndexDef) schema.Ident {
	if idx.Name != nil {
		return *idx.Name
	}
	return schema.NewIdent("")
}

// diffIndexes covers the snapshot-wide Indexes bucket (§3: IndexDef is a
// top-level entity owned by a table/view/materialized view, not nested).
func diffIndexes(current, desired *schema.Snapshot, emit *emitter) {
	currentByKey := indexIndexes(current.Indexes)
	desiredByKey := indexIndexes(desired.Indexes)

	for key, di := range desiredByKey {
		ci, ok := currentByKey[key]
		if !ok {
			if di.RenamedFrom != nil {
				oldKey := renameKey(di.Owner, *di.RenamedFrom)
				if ci2, ok2 := currentByKey[oldKey]; ok2 {
					emit.emit(Op{Kind: OpRenameIndex, Table: di.Owner, IndexName: indexName(ci2), NewIndexName: indexName(di)}, indexName(di).String())
					continue
				}
			}
			emit.emit(Op{Kind: OpAddIndex, Table: di.Owner, Index: *di}, indexName(di).String())
			continue
		}
		if !indexStructurallyEqual(*ci, *di) {
			emit.emit(Op{Kind: OpDropIndex, Table: di.Owner, IndexName: indexName(ci)}, indexName(ci).String())
			emit.emit(Op{Kind: OpAddIndex, Table: di.Owner, Index: *di}, indexName(di).String())
		}
	}
	for key, ci := range currentByKey {
		if _, ok := desiredByKey[key]; ok {
			continue
		}
		if isIndexRenameTarget(ci, desired.Indexes) {
			continue
		}
		emit.emit(Op{Kind: OpDropIndex, Table: ci.Owner, IndexName: indexName(ci)}, indexName(ci).String())
	}
}

type indexKey struct {
	owner schema.QualifiedNameKey
	name  schema.IdentKey
}

func indexIndexes(idxs []*schema.IndexDef) map[indexKey]*schema.IndexDef {
	m := make(map[indexKey]*schema.IndexDef, len(idxs))
	for _, idx := range idxs {
		m[indexKey{owner: idx.Owner.Key(), name: indexName(idx).Key()}] = idx
	}
	return m
}

func renameKey(owner schema.QualifiedName, name schema.Ident) indexKey {
	return indexKey{owner: owner.Key(), name: name.Key()}
}

func isIndexRenameTarget(current *schema.IndexDef, desired []*schema.IndexDef) bool {
	for _, di := range desired {
		if di.RenamedFrom != nil && di.Owner.Key() == current.Owner.Key() && di.RenamedFrom.Key() == indexName(current).Key() {
			return true
		}
	}
	return false
}
