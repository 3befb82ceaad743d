package safeexpr

import (
	"errors"
	"math/big"
	"testing"

	"github.com/cockroachdb/apd/v3"
)

// TestBinaryCoercion checks the one-shot retry: a binary operation whose
// operands do not carry the active domain's representation coerces both and
// retries exactly once.
func TestBinaryCoercion(t *testing.T) {
	t.Run("fraction", func(t *testing.T) {
		ec := newEvalCtx(NewContext(Fraction))
		l := newFraction(big.NewRat(1, 2))
		r := newDecimal(apd.New(25, -1))
		v, err := binary(ec, nodeAdd, l, r)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if v.Domain() != Fraction {
			t.Fatalf("result domain %v", v.Domain())
		}
		if got := v.String(); got != "3" {
			t.Errorf("1/2 + 2.5: want 3, got %q", got)
		}
	})
	t.Run("decimal", func(t *testing.T) {
		ec := newEvalCtx(NewContext(Decimal))
		l := newDecimal(apd.New(1, 0))
		r := newFraction(big.NewRat(1, 4))
		v, err := binary(ec, nodeSub, l, r)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if got := v.String(); got != "0.75" {
			t.Errorf("1 - 1/4: want 0.75, got %q", got)
		}
	})
}

// TestBinaryCoercionFloat checks that the Float domain never coerces: a
// mismatched operand is an evaluation error immediately.
func TestBinaryCoercionFloat(t *testing.T) {
	ec := newEvalCtx(NewContext(Float))
	_, err := binary(ec, nodeAdd, newFloat(1), newFraction(big.NewRat(1, 2)))
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("error %#v is not an EvalError", err)
	}
	if errors.Is(err, errIncompatible) {
		t.Error("internal mismatch sentinel escaped to the caller")
	}
}

// TestBinaryZeroDivisorBeforeCoercion checks that a zero divisor is
// reported as division by zero even when the operands would also need
// coercion.
func TestBinaryZeroDivisorBeforeCoercion(t *testing.T) {
	ec := newEvalCtx(NewContext(Fraction))
	l := newFraction(big.NewRat(1, 1))
	r := newDecimal(apd.New(0, 0))
	for _, op := range []nodeKind{nodeDiv, nodeFloorDiv, nodeMod} {
		_, err := binary(ec, op, l, r)
		var de *DivisionByZeroError
		if !errors.As(err, &de) {
			t.Errorf("%v with zero decimal divisor: error %#v is not a DivisionByZeroError", op, err)
		}
	}
}
