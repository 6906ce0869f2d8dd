package diff

import "testing"

func TestOpKindExhaustiveTagCoverage(t *testing.T) {
	if opKindCount != 48 {
		t.Fatalf("expected exactly 48 DiffOp variants, got %d", int(opKindCount))
	}
	if ExpectedOpKindCount != 48 {
		t.Fatalf("ExpectedOpKindCount drifted from the closed union: got %d", ExpectedOpKindCount)
	}
	for k := OpKind(0); k < opKindCount; k++ {
		if k.Tag() == "Unknown" {
			t.Fatalf("variant %d has no stable tag", int(k))
		}
		if k.Priority() < 1 || k.Priority() > 30 {
			t.Fatalf("variant %s has out-of-range priority %d", k.Tag(), k.Priority())
		}
	}
}

func TestIsDestructiveCoversEveryDropAndRevoke(t *testing.T) {
	destructiveCount := 0
	for k := OpKind(0); k < opKindCount; k++ {
		if k.IsDestructive() {
			destructiveCount++
		}
	}
	// 19 Drop* variants (all Drop kinds) + Revoke == 20.
	if destructiveCount != 20 {
		t.Fatalf("expected 20 destructive variants, got %d", destructiveCount)
	}
}
