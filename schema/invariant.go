package schema

import "fmt"

// InvariantError reports a violation of I1/I2 (§3 global invariants),
// fatal at diff entry per spec §4.2 step 1.
type InvariantError struct {
	Invariant string // "I1" | "I2"
	Target    string
	Side      string // "current" | "desired"
	Reason    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s violation on %s (%s side): %s", e.Invariant, e.Target, e.Side, e.Reason)
}

// ValidateInvariants checks I1 (index owner exists) and I2 (no explicit
// sequence at an identity column's implicit name) against a single
// snapshot. side is a label ("current"/"desired") used in error messages.
func ValidateInvariants(s *Snapshot, side string) error {
	for _, idx := range s.Indexes {
		if !s.ResolvesOwner(idx.Owner) {
			return &InvariantError{
				Invariant: "I1",
				Target:    idx.Owner.String(),
				Side:      side,
				Reason:    "index owner does not resolve to a table/view/materialized view in this snapshot",
			}
		}
	}

	for _, t := range s.Tables {
		for _, col := range t.Columns {
			if col.Identity == nil {
				continue
			}
			implicitName := ImplicitSequenceName(t.Name.Name.Value, col.Name.Value)
			for _, seq := range s.Sequences {
				if SameIdent(seq.Name.Name, NewIdent(implicitName)) {
					return &InvariantError{
						Invariant: "I2",
						Target:    fmt.Sprintf("%s.%s", t.Name, col.Name),
						Side:      side,
						Reason:    fmt.Sprintf("explicit sequence %q conflicts with implicit identity sequence", seq.Name),
					}
				}
			}
		}
	}

	return nil
}

// ImplicitSequenceName is the PostgreSQL implicit identity/serial sequence
// name "{table}_{column}_seq" (§3 I2, §4.1 sequence contract).
func ImplicitSequenceName(table, column string) string {
	return table + "_" + column + "_seq"
}
