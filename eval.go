package safeexpr

import (
	"errors"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Eval evaluates the expression under a context. The walk is post-order:
// operands and arguments are evaluated left to right before the operation
// that consumes them. Eval shares no state between calls, so a single Expr
// may be evaluated concurrently under any number of contexts.
func (e *Expr) Eval(ctx Context) (Value, error) {
	return e.n.eval(newEvalCtx(ctx))
}

func (n *node) eval(ec *evalCtx) (Value, error) {
	switch n.kind {
	case nodeNum:
		return literal(ec, n.name)
	case nodeName:
		return constant(ec, n.name)
	case nodeCall:
		fn, err := resolve(ec.cfg.domain, n.name)
		if err != nil {
			return Value{}, err
		}
		if !fn.canCall(len(n.args)) {
			return Value{}, &EvalError{Op: n.name, Reason: "cannot call with " + strconv.Itoa(len(n.args)) + " arguments"}
		}
		args := make([]Value, len(n.args))
		for i, a := range n.args {
			v, err := a.eval(ec)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return fn.call(ec, args)
	case nodePos:
		return n.left.eval(ec)
	case nodeNeg:
		v, err := n.left.eval(ec)
		if err != nil {
			return Value{}, err
		}
		return neg(v), nil
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeFloorDiv, nodeMod, nodePow:
		l, err := n.left.eval(ec)
		if err != nil {
			return Value{}, err
		}
		r, err := n.right.eval(ec)
		if err != nil {
			return Value{}, err
		}
		return binary(ec, n.kind, l, r)
	default:
		panic("safeexpr: invalid AST node " + n.kind.String())
	}
}

// neg negates a value in its own representation.
func neg(v Value) Value {
	switch v.domain {
	case Float:
		return newFloat(-v.f)
	case Decimal:
		return newDecimal(new(apd.Decimal).Neg(v.d))
	case Fraction:
		return newFraction(new(big.Rat).Neg(v.r))
	default:
		panic("safeexpr: invalid value domain " + v.domain.String())
	}
}

// errIncompatible reports a binary operation whose operand representations
// do not match the active domain. It is the one error kind that triggers
// the evaluator's coercion retry; everything else propagates immediately.
var errIncompatible = errors.New("operand representation mismatch")

// binary applies a binary operator to two evaluated operands. Division by
// zero is detected structurally on the divisor, before the operation and
// before any coercion, so it always surfaces as DivisionByZeroError. If the
// native operation reports incompatible representations and the domain is
// Decimal or Fraction, both operands are coerced into the domain's
// canonical representation and the operation retried exactly once.
func binary(ec *evalCtx, op nodeKind, l, r Value) (Value, error) {
	switch op {
	case nodeDiv, nodeFloorDiv, nodeMod:
		if r.isZero() {
			return Value{}, &DivisionByZeroError{Op: op.opText()}
		}
	}
	v, err := apply(ec, op, l, r)
	if !errors.Is(err, errIncompatible) {
		return v, err
	}
	if ec.cfg.domain == Float {
		return Value{}, &EvalError{Op: op.opText(), Reason: "incompatible operands"}
	}
	lc, lerr := convert(ec, l)
	rc, rerr := convert(ec, r)
	if lerr != nil || rerr != nil {
		return Value{}, &EvalError{Op: op.opText(), Reason: "incompatible operands", Err: errors.Join(lerr, rerr)}
	}
	v, err = apply(ec, op, lc, rc)
	if errors.Is(err, errIncompatible) {
		return Value{}, &EvalError{Op: op.opText(), Reason: "incompatible operands"}
	}
	return v, err
}

// apply performs the domain-native operation. Both operands must already
// carry the active domain's representation.
func apply(ec *evalCtx, op nodeKind, l, r Value) (Value, error) {
	d := ec.cfg.domain
	if l.domain != d || r.domain != d {
		return Value{}, errIncompatible
	}
	switch d {
	case Float:
		return applyFloat(op, l, r)
	case Decimal:
		return applyDecimal(ec, op, l, r)
	case Fraction:
		return applyFraction(op, l, r)
	default:
		panic("safeexpr: invalid domain " + d.String())
	}
}

func applyFloat(op nodeKind, l, r Value) (Value, error) {
	a, b := l.f, r.f
	switch op {
	case nodeAdd:
		return newFloat(a + b), nil
	case nodeSub:
		return newFloat(a - b), nil
	case nodeMul:
		return newFloat(a * b), nil
	case nodeDiv:
		return newFloat(a / b), nil
	case nodeFloorDiv:
		return newFloat(math.Floor(a / b)), nil
	case nodeMod:
		// Remainder with the divisor's sign, so that a == (a//b)*b + a%b.
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return newFloat(m), nil
	case nodePow:
		return powFloat(l, r)
	default:
		panic("safeexpr: invalid binary op " + op.String())
	}
}

func applyDecimal(ec *evalCtx, op nodeKind, l, r Value) (Value, error) {
	if op == nodePow {
		return powDecimal(ec, l, r)
	}
	res := new(apd.Decimal)
	var err error
	switch op {
	case nodeAdd:
		_, err = ec.dec.Add(res, l.d, r.d)
	case nodeSub:
		_, err = ec.dec.Sub(res, l.d, r.d)
	case nodeMul:
		_, err = ec.dec.Mul(res, l.d, r.d)
	case nodeDiv:
		err = exactQuo(ec, res, l.d, r.d)
	case nodeFloorDiv:
		_, err = ec.dec.QuoInteger(res, l.d, r.d)
	case nodeMod:
		_, err = ec.dec.Rem(res, l.d, r.d)
	default:
		panic("safeexpr: invalid binary op " + op.String())
	}
	if err != nil {
		return Value{}, &EvalError{Op: op.opText(), Err: err}
	}
	return newDecimal(res), nil
}

func applyFraction(op nodeKind, l, r Value) (Value, error) {
	a, b := l.r, r.r
	switch op {
	case nodeAdd:
		return newFraction(new(big.Rat).Add(a, b)), nil
	case nodeSub:
		return newFraction(new(big.Rat).Sub(a, b)), nil
	case nodeMul:
		return newFraction(new(big.Rat).Mul(a, b)), nil
	case nodeDiv:
		return newFraction(new(big.Rat).Quo(a, b)), nil
	case nodeFloorDiv:
		return newFraction(new(big.Rat).SetInt(ratFloorQuo(a, b))), nil
	case nodeMod:
		// a - (a//b)*b, matching floored division.
		q := new(big.Rat).SetInt(ratFloorQuo(a, b))
		return newFraction(new(big.Rat).Sub(a, q.Mul(q, b))), nil
	case nodePow:
		return powFraction(l, r)
	default:
		panic("safeexpr: invalid binary op " + op.String())
	}
}

// ratFloorQuo returns floor(a/b) as an integer. The divisor is known to be
// nonzero.
func ratFloorQuo(a, b *big.Rat) *big.Int {
	q := new(big.Rat).Quo(a, b)
	// Rat denominators are positive, so Euclidean division floors.
	return new(big.Int).Div(q.Num(), q.Denom())
}

// Eval is a shortcut to parse an expression and evaluate it under a domain.
func Eval(src io.RuneScanner, mode Domain, opts ...ContextOption) (Value, error) {
	e, err := Parse(src)
	if err != nil {
		return Value{}, err
	}
	return e.Eval(NewContext(mode, opts...))
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, mode Domain, opts ...ContextOption) (Value, error) {
	return Eval(strings.NewReader(src), mode, opts...)
}

// Evaluate parses and evaluates an expression and returns the result in the
// domain's native display form. This is the primary call surface for
// collaborators that render results as text.
func Evaluate(src string, mode Domain, opts ...ContextOption) (string, error) {
	v, err := EvalString(src, mode, opts...)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
