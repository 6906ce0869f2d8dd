package diff

import "github.com/stateql/stateql/schema"

// diffPrivileges implements the Privilege comparator (§4.2 step 5): a
// set-difference keyed by (target, grantee); a changed WithGrant or
// operation set is a revoke+grant pair rather than an alter, since no
// supported dialect exposes an "ALTER GRANT".
func diffPrivileges(current, desired *schema.Snapshot, emit *emitter) {
	currentByKey := indexPrivileges(current.Privileges)
	desiredByKey := indexPrivileges(desired.Privileges)

	for key, dp := range desiredByKey {
		cp, ok := currentByKey[key]
		if !ok {
			emit.emit(Op{Kind: OpGrant, Privilege: dp}, privilegeTarget(dp))
			continue
		}
		if !privilegeEqual(cp, dp) {
			emit.emit(Op{Kind: OpRevoke, Privilege: cp}, privilegeTarget(cp))
			emit.emit(Op{Kind: OpGrant, Privilege: dp}, privilegeTarget(dp))
		}
	}
	for key, cp := range currentByKey {
		if _, ok := desiredByKey[key]; !ok {
			emit.emit(Op{Kind: OpRevoke, Privilege: cp}, privilegeTarget(cp))
		}
	}
}

type privilegeKey struct {
	target  schema.QualifiedNameKey
	grantee schema.IdentKey
}

func indexPrivileges(privs []*schema.Privilege) map[privilegeKey]*schema.Privilege {
	m := make(map[privilegeKey]*schema.Privilege, len(privs))
	for _, p := range privs {
		m[privilegeKey{target: p.Target.Key(), grantee: p.Grantee.Key()}] = p
	}
	return m
}

func privilegeTarget(p *schema.Privilege) string {
	return p.Target.String() + " -> " + p.Grantee.String()
}

func privilegeEqual(a, b *schema.Privilege) bool {
	if a.WithGrant != b.WithGrant {
		return false
	}
	return stringSetEqual(a.Operations, b.Operations)
}
