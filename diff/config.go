package diff

import "github.com/stateql/stateql/schema"

// EquivalencePolicy is a dialect-supplied relaxation over strict
// structural expression equality (I4's second half, §3/§9). The
// strict half (I4's first half) is schema.StrictEqual and needs no
// policy at all.
type EquivalencePolicy interface {
	Name() string
	ExprEqual(a, b schema.Expr) bool
}

// strictPolicy applies only schema.StrictEqual, used when no dialect
// policy is configured.
type strictPolicy struct{}

func (strictPolicy) Name() string                          { return "strict" }
func (strictPolicy) ExprEqual(a, b schema.Expr) bool        { return schema.StrictEqual(a, b) }

// StrictPolicy is the default EquivalencePolicy: no relaxation beyond
// I4's strict structural half.
var StrictPolicy EquivalencePolicy = strictPolicy{}

// DiffConfig configures the diff engine (§4.2).
type DiffConfig struct {
	// EnableDrop gates destructive ops: when false they are suppressed
	// and recorded as diagnostics instead of being returned.
	EnableDrop bool

	// SearchPath is carried on the config but not consulted by the
	// comparators: objects are matched by their names exactly as given,
	// so an unqualified name in desired does not match a qualified name
	// in current, nor the other way round.
	SearchPath []schema.Ident

	// EquivalencePolicy relaxes I4 expression comparisons; injected by
	// the dialect. Defaults to StrictPolicy when nil.
	EquivalencePolicy EquivalencePolicy
}

func (c DiffConfig) policy() EquivalencePolicy {
	if c.EquivalencePolicy == nil {
		return StrictPolicy
	}
	return c.EquivalencePolicy
}

// SkippedOp records a destructive op suppressed when EnableDrop=false,
// as a diagnostic (§4.2, §7).
type SkippedOp struct {
	Kind   OpKind
	Target string
	Reason string
}

// Diagnostics accompanies the op list with non-fatal information (§4.2
// output, §7).
type Diagnostics struct {
	SkippedOps []SkippedOp
}

func (d *Diagnostics) skip(op Op, target string) {
	d.SkippedOps = append(d.SkippedOps, SkippedOp{
		Kind:   op.Kind,
		Target: target,
		Reason: "destructive operation suppressed (enable_drop=false)",
	})
}
