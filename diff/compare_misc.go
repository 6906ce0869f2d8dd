package diff

import "github.com/stateql/stateql/schema"

// diffTriggers implements the Trigger comparator (§4.2): structural,
// drop+create on any difference. Keyed by (table, name) since trigger
// names are scoped to their owning table in every supported dialect.
func diffTriggers(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexTriggers(current.Triggers)
	desiredByKey := indexTriggers(desired.Triggers)

	for key, dt := range desiredByKey {
		ct, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateTrigger, Trigger: dt, TriggerName: dt.Name}, dt.Name.String())
			continue
		}
		if !triggerEqual(ct, dt, config.policy()) {
			emit.emit(Op{Kind: OpDropTrigger, Table: ct.Table, TriggerName: ct.Name}, ct.Name.String())
			emit.emit(Op{Kind: OpCreateTrigger, Trigger: dt, TriggerName: dt.Name}, dt.Name.String())
		}
	}
	for key, ct := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropTrigger, Table: ct.Table, TriggerName: ct.Name}, ct.Name.String())
		}
	}
}

func indexTriggers(triggers []*schema.Trigger) map[indexKey]*schema.Trigger {
	m := make(map[indexKey]*schema.Trigger, len(triggers))
	for _, t := range triggers {
		m[indexKey{owner: t.Table.Key(), name: t.Name.Key()}] = t
	}
	return m
}

func triggerEqual(a, b *schema.Trigger, policy EquivalencePolicy) bool {
	if a.Timing != b.Timing || a.ForEach != b.ForEach || a.Body != b.Body {
		return false
	}
	if !stringSetEqual(a.Events, b.Events) {
		return false
	}
	if (a.When == nil) != (b.When == nil) {
		return false
	}
	if a.When != nil && !policy.ExprEqual(*a.When, *b.When) {
		return false
	}
	return true
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, s := range a {
		set[s]++
	}
	for _, s := range b {
		set[s]--
	}
	for _, n := range set {
		if n != 0 {
			return false
		}
	}
	return true
}

// diffFunctions implements the Function comparator (§4.2): structural,
// drop+create on any difference.
func diffFunctions(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexFunctions(current.Functions)
	desiredByKey := indexFunctions(desired.Functions)

	for key, df := range desiredByKey {
		cf, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateFunction, Function: df, FunctionName: df.Name}, df.Name.String())
			continue
		}
		if !functionEqual(cf, df) {
			emit.emit(Op{Kind: OpDropFunction, FunctionName: cf.Name}, cf.Name.String())
			emit.emit(Op{Kind: OpCreateFunction, Function: df, FunctionName: df.Name}, df.Name.String())
		}
	}
	for key, cf := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropFunction, FunctionName: cf.Name}, cf.Name.String())
		}
	}
	_ = config
}

func indexFunctions(fns []*schema.Function) map[schema.QualifiedNameKey]*schema.Function {
	m := make(map[schema.QualifiedNameKey]*schema.Function, len(fns))
	for _, f := range fns {
		m[f.Name.Key()] = f
	}
	return m
}

func functionEqual(a, b *schema.Function) bool {
	if a.Language != b.Language || a.Body != b.Body || a.Volatility != b.Volatility || a.Security != b.Security {
		return false
	}
	if !a.ReturnType.Equal(b.ReturnType) {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !schema.SameIdent(a.Params[i].Name, b.Params[i].Name) || !a.Params[i].Type.Equal(b.Params[i].Type) || a.Params[i].Mode != b.Params[i].Mode {
			return false
		}
	}
	return true
}

// diffPolicies implements the row-security Policy comparator (§4.2):
// structural, drop+create on any difference. Keyed by (table, name).
func diffPolicies(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexPolicies(current.Policies)
	desiredByKey := indexPolicies(desired.Policies)
	policy := config.policy()

	for key, dp := range desiredByKey {
		cp, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreatePolicy, Policy: dp, PolicyName: dp.Name}, dp.Name.String())
			continue
		}
		if !policyEqual(cp, dp, policy) {
			emit.emit(Op{Kind: OpDropPolicy, Table: cp.Table, PolicyName: cp.Name}, cp.Name.String())
			emit.emit(Op{Kind: OpCreatePolicy, Policy: dp, PolicyName: dp.Name}, dp.Name.String())
		}
	}
	for key, cp := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropPolicy, Table: cp.Table, PolicyName: cp.Name}, cp.Name.String())
		}
	}
}

func indexPolicies(policies []*schema.Policy) map[indexKey]*schema.Policy {
	m := make(map[indexKey]*schema.Policy, len(policies))
	for _, p := range policies {
		m[indexKey{owner: p.Table.Key(), name: p.Name.Key()}] = p
	}
	return m
}

func policyEqual(a, b *schema.Policy, policy EquivalencePolicy) bool {
	if a.Command != b.Command || a.Permissive != b.Permissive {
		return false
	}
	if !identSetEqual(a.Roles, b.Roles) {
		return false
	}
	if !exprPtrEqual(a.Using, b.Using, policy) || !exprPtrEqual(a.WithCheck, b.WithCheck, policy) {
		return false
	}
	return true
}

func exprPtrEqual(a, b *schema.Expr, policy EquivalencePolicy) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return policy.ExprEqual(*a, *b)
}

func identSetEqual(a, b []schema.Ident) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[schema.IdentKey]int, len(a))
	for _, i := range a {
		set[i.Key()]++
	}
	for _, i := range b {
		set[i.Key()]--
	}
	for _, n := range set {
		if n != 0 {
			return false
		}
	}
	return true
}

// diffComments implements the Comment comparator (§4.2): SetComment on
// add/change, DropComment when desired drops it -- unless
// EnableDrop=false, in which case the removal is suppressed (§7, a
// recorded Open Question decision, see SPEC_FULL.md).
func diffComments(current, desired *schema.Snapshot, config DiffConfig, emit *emitter) {
	currentByKey := indexComments(current.Comments)
	desiredByKey := indexComments(desired.Comments)

	for key, dc := range desiredByKey {
		cc, ok := currentByKey[key]
		if !ok || !commentEqual(cc, dc) {
			emit.emit(Op{Kind: OpSetComment, Comment: dc}, dc.Target.String())
		}
	}
	for key, cc := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropComment, Comment: cc}, cc.Target.String())
		}
	}
	_ = config
}

type commentKey struct {
	target schema.QualifiedNameKey
	kind   schema.CommentTargetKind
	column schema.IdentKey
}

func indexComments(comments []*schema.Comment) map[commentKey]*schema.Comment {
	m := make(map[commentKey]*schema.Comment, len(comments))
	for _, c := range comments {
		m[commentKeyOf(c)] = c
	}
	return m
}

func commentKeyOf(c *schema.Comment) commentKey {
	k := commentKey{target: c.Target.Key(), kind: c.TargetKind}
	if c.Column != nil {
		k.column = c.Column.Key()
	}
	return k
}

func commentEqual(a, b *schema.Comment) bool {
	if (a.Text == nil) != (b.Text == nil) {
		return false
	}
	return a.Text == nil || *a.Text == *b.Text
}

// diffSchemas / diffExtensions implement §4.2's remaining top-level
// entities: both are structural presence checks only.
func diffSchemas(current, desired *schema.Snapshot, emit *emitter) {
	currentByKey := indexSchemas(current.Schemas)
	desiredByKey := indexSchemas(desired.Schemas)

	for key, ds := range desiredByKey {
		if _, ok := currentByKey[key]; !ok {
			emit.emit(Op{Kind: OpCreateSchema, SchemaName: ds.Name}, ds.Name.String())
		}
	}
	for key, cs := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropSchema, SchemaName: cs.Name}, cs.Name.String())
		}
	}
}

func indexSchemas(schemas []*schema.SchemaObj) map[schema.IdentKey]*schema.SchemaObj {
	m := make(map[schema.IdentKey]*schema.SchemaObj, len(schemas))
	for _, s := range schemas {
		m[s.Name.Key()] = s
	}
	return m
}

func diffExtensions(current, desired *schema.Snapshot, emit *emitter) {
	currentByKey := indexExtensions(current.Extensions)
	desiredByKey := indexExtensions(desired.Extensions)

	for key, de := range desiredByKey {
		ce, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpCreateExtension, Extension: de, ExtensionName: de.Name}, de.Name.String())
			continue
		}
		if ce.Version != de.Version {
			emit.emit(Op{Kind: OpDropExtension, ExtensionName: ce.Name}, ce.Name.String())
			emit.emit(Op{Kind: OpCreateExtension, Extension: de, ExtensionName: de.Name}, de.Name.String())
		}
	}
	for key, ce := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpDropExtension, ExtensionName: ce.Name}, ce.Name.String())
		}
	}
}

func indexExtensions(exts []*schema.Extension) map[schema.IdentKey]*schema.Extension {
	m := make(map[schema.IdentKey]*schema.Extension, len(exts))
	for _, e := range exts {
		m[e.Name.Key()] = e
	}
	return m
}
