package diff

import "github.com/stateql/stateql/schema"

// diffSequences implements the Sequence comparator (§4.2). Sequences
// that are owned by an identity/serial column are folded away during
// normalization (§4.1) before the diff engine ever sees them, so every
// Sequence reaching here is a standalone, user-declared sequence.
func diffSequences(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexSequences(current.Sequences)
	desiredByKey := indexSequences(desired.Sequences)

	for key, ds := range desiredByKey {
		cs, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateSequence, Sequence: ds, SequenceName: ds.Name}, ds.Name.String())
			continue
		}
		ownedByDiffers := (cs.OwnedBy == nil) != (ds.OwnedBy == nil) ||
			(cs.OwnedBy != nil && ds.OwnedBy != nil &&
				(cs.OwnedBy.Table.Key() != ds.OwnedBy.Table.Key() || cs.OwnedBy.Column.Key() != ds.OwnedBy.Column.Key()))
		lostMandatory := (cs.IncrementBy != nil && ds.IncrementBy == nil) ||
			(cs.StartValue != nil && ds.StartValue == nil) || (cs.Cache != nil && ds.Cache == nil)
		if ownedByDiffers || lostMandatory {
			emit.emit(Op{Kind: OpDropSequence, SequenceName: cs.Name}, cs.Name.String())
			emit.emit(Op{Kind: OpCreateSequence, Sequence: ds, SequenceName: ds.Name}, ds.Name.String())
			continue
		}
		if changes := sequenceChanges(cs, ds); len(changes) > 0 {
			emit.emit(Op{Kind: OpAlterSequence, Sequence: ds, SequenceName: ds.Name, SequenceChanges: changes}, ds.Name.String())
		}
	}
	for key, cs := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropSequence, SequenceName: cs.Name}, cs.Name.String())
		}
	}
	_ = config
}

func indexSequences(seqs []*schema.Sequence) map[schema.QualifiedNameKey]*schema.Sequence {
	m := make(map[schema.QualifiedNameKey]*schema.Sequence, len(seqs))
	for _, s := range seqs {
		m[s.Name.Key()] = s
	}
	return m
}

func sequenceChanges(current, desired *schema.Sequence) []SequenceChange {
	var changes []SequenceChange
	if !current.Type.Equal(desired.Type) {
		t := desired.Type
		changes = append(changes, SequenceChange{Kind: SequenceSetType, Type: &t})
	}
	if !int64PtrEqual(current.IncrementBy, desired.IncrementBy) {
		changes = append(changes, SequenceChange{Kind: SequenceSetIncrement, Int64Val: desired.IncrementBy})
	}
	if !int64PtrEqual(current.MinValue, desired.MinValue) {
		changes = append(changes, SequenceChange{Kind: SequenceSetMinValue, Int64Val: desired.MinValue})
	}
	if !int64PtrEqual(current.MaxValue, desired.MaxValue) {
		changes = append(changes, SequenceChange{Kind: SequenceSetMaxValue, Int64Val: desired.MaxValue})
	}
	if !int64PtrEqual(current.StartValue, desired.StartValue) {
		changes = append(changes, SequenceChange{Kind: SequenceSetStart, Int64Val: desired.StartValue})
	}
	if !int64PtrEqual(current.Cache, desired.Cache) {
		changes = append(changes, SequenceChange{Kind: SequenceSetCache, Int64Val: desired.Cache})
	}
	if current.Cycle != desired.Cycle {
		v := desired.Cycle
		changes = append(changes, SequenceChange{Kind: SequenceSetCycle, BoolVal: &v})
	}
	return changes
}
