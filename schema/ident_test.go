package schema

import "testing"

// P1 (Ident key invariant): key(a) == key(b) iff quoted flags match and,
// when unquoted, the ASCII-lowercased values match; when quoted, exact
// values match.
func TestIdentKeyInvariant(t *testing.T) {
	cases := []struct {
		name string
		a, b Ident
		want bool
	}{
		{"unquoted case fold", Ident{Value: "Users"}, Ident{Value: "users"}, true},
		{"unquoted mismatch", Ident{Value: "Users"}, Ident{Value: "accounts"}, false},
		{"quoted exact", Ident{Value: "Users", Quoted: true}, Ident{Value: "Users", Quoted: true}, true},
		{"quoted case sensitive", Ident{Value: "Users", Quoted: true}, Ident{Value: "users", Quoted: true}, false},
		{"quoted vs unquoted never equal even same text", Ident{Value: "users", Quoted: true}, Ident{Value: "users", Quoted: false}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SameIdent(c.a, c.b)
			if got != c.want {
				t.Errorf("SameIdent(%+v, %+v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestQualifiedNameKeyRoundTrip(t *testing.T) {
	a := NewQualifiedName("public", "Users")
	b := NewQualifiedName("public", "users")
	if a.Key() != b.Key() {
		t.Errorf("expected unqualified-case-folded names to share a key")
	}

	unqualified := QualifiedName{Name: NewIdent("users")}
	if unqualified.Key() == a.Key() {
		t.Errorf("qualified and unqualified names must not collide")
	}
}

func TestResolveAgainstSearchPath(t *testing.T) {
	unqualified := QualifiedName{Name: NewIdent("users")}
	path := []Ident{NewIdent("app"), NewIdent("public")}
	keys := unqualified.ResolveAgainst(path)
	if len(keys) != 3 {
		t.Fatalf("expected 3 candidate keys, got %d", len(keys))
	}
	want := NewQualifiedName("app", "users").Key()
	if keys[0] != want {
		t.Errorf("expected first candidate to use first search-path entry")
	}
}
