package diff

import (
	"regexp"
	"strings"

	"github.com/stateql/stateql/schema"
)

var viewWhitespaceRE = regexp.MustCompile(`\s+`)

// diffViews implements the View comparator (§4.2/§4.3): a changed view is
// drop+create, but the drop/create pair is subject to dependency-closure
// expansion by the rebuild planner (rebuild_view.go) rather than being
// ordered as an ordinary table-scoped pair.
func diffViews(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexViews(current.Views)
	desiredByKey := indexViews(desired.Views)

	for key, dv := range desiredByKey {
		cv, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateView, View: dv, ViewName: dv.Name}, dv.Name.String())
			continue
		}
		if !viewEqual(cv, dv, config.policy()) {
			emit.emit(Op{Kind: OpDropView, ViewName: cv.Name}, cv.Name.String())
			emit.emit(Op{Kind: OpCreateView, View: dv, ViewName: dv.Name}, dv.Name.String())
		}
	}
	for key, cv := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropView, ViewName: cv.Name}, cv.Name.String())
		}
	}
}

func indexViews(views []*schema.View) map[schema.QualifiedNameKey]*schema.View {
	m := make(map[schema.QualifiedNameKey]*schema.View, len(views))
	for _, v := range views {
		m[v.Name.Key()] = v
	}
	return m
}

func viewEqual(a, b *schema.View, policy EquivalencePolicy) bool {
	if normalizeQuery(a.Query) != normalizeQuery(b.Query) {
		return false
	}
	if a.CheckOption != b.CheckOption || a.SecurityMode != b.SecurityMode {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if !schema.SameIdent(a.Columns[i], b.Columns[i]) {
			return false
		}
	}
	_ = policy
	return true
}

// normalizeQuery collapses incidental whitespace differences so that
// reformatted-but-semantically-identical view bodies don't trigger a
// spurious rebuild; it is intentionally NOT a SQL-aware comparison (that
// would require a full parser round-trip per dialect, out of scope per
// §9 "per-dialect SQL parser adapters" being consumer-contract-only).
func normalizeQuery(q string) string {
	return strings.TrimSpace(viewWhitespaceRE.ReplaceAllString(q, " "))
}

func diffMaterializedViews(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexMaterializedViews(current.MaterializedViews)
	desiredByKey := indexMaterializedViews(desired.MaterializedViews)

	for key, dmv := range desiredByKey {
		cmv, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateMaterializedView, MaterializedView: dmv}, dmv.Name.String())
			continue
		}
		if !materializedViewEqual(cmv, dmv) {
			emit.emit(Op{Kind: OpDropMaterializedView, Table: cmv.Name}, cmv.Name.String())
			emit.emit(Op{Kind: OpCreateMaterializedView, MaterializedView: dmv}, dmv.Name.String())
		}
	}
	for key, cmv := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropMaterializedView, Table: cmv.Name}, cmv.Name.String())
		}
	}
	_ = config
}

func indexMaterializedViews(mvs []*schema.MaterializedView) map[schema.QualifiedNameKey]*schema.MaterializedView {
	m := make(map[schema.QualifiedNameKey]*schema.MaterializedView, len(mvs))
	for _, mv := range mvs {
		m[mv.Name.Key()] = mv
	}
	return m
}

func materializedViewEqual(a, b *schema.MaterializedView) bool {
	if normalizeQuery(a.Query) != normalizeQuery(b.Query) {
		return false
	}
	if !mapsEqual(a.Options, b.Options) {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if !columnStructurallyEqual(a.Columns[i], b.Columns[i]) {
			return false
		}
	}
	return true
}

func columnStructurallyEqual(a, b schema.Column) bool {
	return schema.SameIdent(a.Name, b.Name) && a.Type.Equal(b.Type) && a.NotNull == b.NotNull
}
