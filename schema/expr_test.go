package schema

import "testing"

func TestStrictEqualLiterals(t *testing.T) {
	a := IntLiteral(0)
	b := IntLiteral(0)
	if !StrictEqual(a, b) {
		t.Fatalf("expected equal int literals to compare equal")
	}
	c := StringLiteral("0")
	if StrictEqual(a, c) {
		t.Fatalf("expected int literal and string literal '0' to differ under strict equality")
	}
}

// Scenario 3 (§8): strict equality must NOT consider '0'::integer and 0
// equivalent -- that relaxation belongs to a dialect's EquivalencePolicy,
// not to I4's strict half.
func TestStrictEqualRejectsCastRelaxation(t *testing.T) {
	castZero := Expr{Kind: ExprCast, Operand: exprPtr(StringLiteral("0")), CastType: &DataType{Kind: TypeInteger}}
	bareZero := IntLiteral(0)
	if StrictEqual(castZero, bareZero) {
		t.Fatalf("strict equality must not fold casts")
	}
}

func TestStrictEqualNestedBinaryOp(t *testing.T) {
	left := Expr{Kind: ExprBinaryOp, Op: "+", Left: exprPtr(IntLiteral(1)), Right: exprPtr(IntLiteral(2))}
	right := Expr{Kind: ExprBinaryOp, Op: "+", Left: exprPtr(IntLiteral(1)), Right: exprPtr(IntLiteral(2))}
	if !StrictEqual(left, right) {
		t.Fatalf("expected structurally identical binary ops to compare equal")
	}
	right.Right = exprPtr(IntLiteral(3))
	if StrictEqual(left, right) {
		t.Fatalf("expected differing operands to compare unequal")
	}
}
