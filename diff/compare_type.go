package diff

import "github.com/stateql/stateql/schema"

// diffTypes implements the enum/composite/range TypeDef comparator
// (§4.2). Enum changes decompose into AddValue/RenameValue per §6's
// TypeChange vocabulary; composite and range types are structural,
// drop+create on any difference (dropping a composite/range type that
// is still referenced is a dialect-time failure, not a diff-time one).
func diffTypes(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexTypes(current.Types)
	desiredByKey := indexTypes(desired.Types)

	for key, dt := range desiredByKey {
		ct, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateType, TypeDef: dt, TypeName: dt.Name}, dt.Name.String())
			continue
		}
		if ct.Kind != dt.Kind {
			emit.emit(Op{Kind: OpDropType, TypeName: ct.Name}, ct.Name.String())
			emit.emit(Op{Kind: OpCreateType, TypeDef: dt, TypeName: dt.Name}, dt.Name.String())
			continue
		}
		switch dt.Kind {
		case schema.TypeDefEnum:
			if !labelsPreserveOrder(ct.Labels, dt.Labels) {
				diffAt, diffs := -1, 0
				if len(ct.Labels) == len(dt.Labels) {
					for i := range ct.Labels {
						if ct.Labels[i] != dt.Labels[i] {
							diffAt, diffs = i, diffs+1
						}
					}
				}
				if diffs == 1 {
					emit.emit(Op{Kind: OpAlterType, TypeName: dt.Name, TypeChange: &TypeChange{Kind: TypeRenameValue, OldLabel: ct.Labels[diffAt], NewLabel: dt.Labels[diffAt]}}, dt.Name.String())
				} else {
					emit.emit(Op{Kind: OpDropType, TypeName: ct.Name}, ct.Name.String())
					emit.emit(Op{Kind: OpCreateType, TypeDef: dt, TypeName: dt.Name}, dt.Name.String())
				}
				continue
			}
			for _, change := range enumChanges(ct, dt) {
				c := change
				emit.emit(Op{Kind: OpAlterType, TypeName: dt.Name, TypeChange: &c}, dt.Name.String())
			}
		default:
			if !typeDefStructurallyEqual(ct, dt) {
				emit.emit(Op{Kind: OpDropType, TypeName: ct.Name}, ct.Name.String())
				emit.emit(Op{Kind: OpCreateType, TypeDef: dt, TypeName: dt.Name}, dt.Name.String())
			}
		}
	}
	for key, ct := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropType, TypeName: ct.Name}, ct.Name.String())
		}
	}
	_ = config
}

func indexTypes(types []*schema.TypeDef) map[schema.QualifiedNameKey]*schema.TypeDef {
	m := make(map[schema.QualifiedNameKey]*schema.TypeDef, len(types))
	for _, t := range types {
		m[t.Name.Key()] = t
	}
	return m
}

// enumChanges yields one AddValue per label that desired adds, provided
// every current label still exists in desired in the same relative
// order. A label placed after the last current label is appended (nil
// Position); one placed before it carries its index in desired. It
// returns nil otherwise; diffTypes then emits a single RenameValue when
// the two lists have equal length and differ at exactly one position,
// and a DropType+CreateType pair for any other change.
func enumChanges(current, desired *schema.TypeDef) []TypeChange {
	if !labelsPreserveOrder(current.Labels, desired.Labels) {
		return nil
	}
	var changes []TypeChange
	currentSet := make(map[string]bool, len(current.Labels))
	for _, l := range current.Labels {
		currentSet[l] = true
	}
	lastKept := -1
	for i, l := range desired.Labels {
		if currentSet[l] {
			lastKept = i
		}
	}
	for i, l := range desired.Labels {
		if currentSet[l] {
			continue
		}
		change := TypeChange{Kind: TypeAddValue, Value: l}
		if i < lastKept {
			pos := i
			change.Position = &pos
		}
		changes = append(changes, change)
	}
	return changes
}

func labelsPreserveOrder(current, desired []string) bool {
	currentSet := make(map[string]bool, len(current))
	for _, l := range current {
		currentSet[l] = true
	}
	var kept []string
	for _, l := range desired {
		if currentSet[l] {
			kept = append(kept, l)
		}
	}
	if len(kept) != len(current) {
		return false
	}
	for i, l := range kept {
		if l != current[i] {
			return false
		}
	}
	return true
}

func typeDefStructurallyEqual(a, b *schema.TypeDef) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !schema.SameIdent(a.Fields[i].Name, b.Fields[i].Name) || !a.Fields[i].Type.Equal(b.Fields[i].Type) {
			return false
		}
	}
	if (a.Subtype == nil) != (b.Subtype == nil) {
		return false
	}
	if a.Subtype != nil && !a.Subtype.Equal(*b.Subtype) {
		return false
	}
	return true
}

// diffDomains implements the Domain comparator (§4.2): DomainChange
// vocabulary covers default/not-null/checks; an underlying-type change
// is a drop+create since most dialects cannot ALTER DOMAIN's base type.
func diffDomains(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexDomains(current.Domains)
	desiredByKey := indexDomains(desired.Domains)
	policy := config.policy()

	for key, dd := range desiredByKey {
		cd, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateDomain, Domain: dd, DomainName: dd.Name}, dd.Name.String())
			continue
		}
		if !cd.Underlying.Equal(dd.Underlying) {
			emit.emit(Op{Kind: OpDropDomain, DomainName: cd.Name}, cd.Name.String())
			emit.emit(Op{Kind: OpCreateDomain, Domain: dd, DomainName: dd.Name}, dd.Name.String())
			continue
		}
		if changes := domainChanges(cd, dd, policy); len(changes) > 0 {
			emit.emit(Op{Kind: OpAlterDomain, DomainName: dd.Name, DomainChanges: changes}, dd.Name.String())
		}
	}
	for key, cd := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropDomain, DomainName: cd.Name}, cd.Name.String())
		}
	}
}

func indexDomains(domains []*schema.Domain) map[schema.QualifiedNameKey]*schema.Domain {
	m := make(map[schema.QualifiedNameKey]*schema.Domain, len(domains))
	for _, d := range domains {
		m[d.Name.Key()] = d
	}
	return m
}

func domainChanges(current, desired *schema.Domain, policy EquivalencePolicy) []DomainChange {
	var changes []DomainChange
	if !defaultsEqual(current.Default, desired.Default, policy) {
		d := desired.Default
		changes = append(changes, DomainChange{Kind: DomainSetDefault, Default: d})
	}
	if current.NotNull != desired.NotNull {
		nn := desired.NotNull
		changes = append(changes, DomainChange{Kind: DomainSetNotNull, NotNull: &nn})
	}

	currentChecks := indexChecks(current.Checks)
	desiredChecks := indexChecks(desired.Checks)
	for key, dck := range desiredChecks {
		if cck, ok := currentChecks[key]; !ok || !schema.StrictEqual(cck.Expr, dck.Expr) {
			c := dck
			changes = append(changes, DomainChange{Kind: DomainAddCheck, Check: &c})
		}
	}
	for key, cck := range currentChecks {
		if _, ok := desiredChecks[key]; !ok {
			changes = append(changes, DomainChange{Kind: DomainDropCheck, CheckName: cck.ConstraintName})
		}
	}
	return changes
}
