package safeexpr

import (
	"errors"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/zephyrtronium/bigfloat"
)

// domainFunc is the behavior of a whitelisted function in one numeric
// domain. call may assume canCall(len(args)) is true. Arguments may carry
// any representation; implementations coerce into their own domain.
type domainFunc struct {
	name string
	// min and max bound the argument count. max < 0 means variadic.
	min, max int
	call     func(ec *evalCtx, args []Value) (Value, error)
}

func (f domainFunc) canCall(n int) bool {
	return n >= f.min && (f.max < 0 || n <= f.max)
}

// funcNames is the closed whitelist of callable identifiers. A name outside
// this set is an unknown function in every domain; a name inside it may
// still be unsupported in a particular domain.
var funcNames = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"log": true, "ln": true, "sqrt": true,
	"abs": true, "max": true, "min": true,
	"pow": true,
}

// resolve looks up a function's behavior for a domain.
func resolve(d Domain, name string) (domainFunc, error) {
	if fn, ok := registry[d][name]; ok {
		return fn, nil
	}
	if funcNames[name] {
		return domainFunc{}, &DomainFunctionError{Name: name, Domain: d}
	}
	return domainFunc{}, &FunctionError{Name: name}
}

var registry = map[Domain]map[string]domainFunc{
	Float: {
		"sin":  floatMonadic("sin", math.Sin),
		"cos":  floatMonadic("cos", math.Cos),
		"tan":  floatMonadic("tan", math.Tan),
		"log":  floatMonadic("log", math.Log),
		"ln":   floatMonadic("ln", math.Log),
		"sqrt": floatMonadic("sqrt", math.Sqrt),
		"abs":  floatMonadic("abs", math.Abs),
		"max":  {name: "max", min: 1, max: -1, call: floatExtremum(+1)},
		"min":  {name: "min", min: 1, max: -1, call: floatExtremum(-1)},
		"pow": {name: "pow", min: 2, max: 2, call: func(ec *evalCtx, args []Value) (Value, error) {
			return powFloat(args[0], args[1])
		}},
	},
	Decimal: {
		"sin":  decimalTrig("sin", math.Sin),
		"cos":  decimalTrig("cos", math.Cos),
		"tan":  decimalTrig("tan", math.Tan),
		"log":  decimalBridge("log", bigfloat.Log),
		"ln":   decimalBridge("ln", bigfloat.Log),
		"sqrt": {name: "sqrt", min: 1, max: 1, call: sqrtDecimal},
		"abs": {name: "abs", min: 1, max: 1, call: func(ec *evalCtx, args []Value) (Value, error) {
			d, err := args[0].toDecimal(ec)
			if err != nil {
				return Value{}, err
			}
			return newDecimal(new(apd.Decimal).Abs(d)), nil
		}},
		"max": {name: "max", min: 1, max: -1, call: decimalExtremum(+1)},
		"min": {name: "min", min: 1, max: -1, call: decimalExtremum(-1)},
		"pow": {name: "pow", min: 2, max: 2, call: func(ec *evalCtx, args []Value) (Value, error) {
			return powDecimal(ec, args[0], args[1])
		}},
	},
	Fraction: {
		// Transcendental functions have no exact rational form, so this
		// domain supports only the order and sign operations and exact
		// integer powers. The rest resolve to DomainFunctionError.
		"abs": {name: "abs", min: 1, max: 1, call: func(ec *evalCtx, args []Value) (Value, error) {
			r, err := args[0].toFraction()
			if err != nil {
				return Value{}, err
			}
			return newFraction(new(big.Rat).Abs(r)), nil
		}},
		"max": {name: "max", min: 1, max: -1, call: fractionExtremum(+1)},
		"min": {name: "min", min: 1, max: -1, call: fractionExtremum(-1)},
		"pow": {name: "pow", min: 2, max: 2, call: func(ec *evalCtx, args []Value) (Value, error) {
			return powFraction(args[0], args[1])
		}},
	},
}

// floatMonadic wraps a function of one float64 into a Float-domain
// behavior. A NaN result from a non-NaN argument reports the argument as
// outside the function's domain.
func floatMonadic(name string, f func(float64) float64) domainFunc {
	return domainFunc{name: name, min: 1, max: 1, call: func(ec *evalCtx, args []Value) (Value, error) {
		x := args[0].Float64()
		y := f(x)
		if math.IsNaN(y) && !math.IsNaN(x) {
			return Value{}, &EvalError{Op: name, Reason: "argument outside domain"}
		}
		return newFloat(y), nil
	}}
}

func floatExtremum(sign int) func(ec *evalCtx, args []Value) (Value, error) {
	return func(ec *evalCtx, args []Value) (Value, error) {
		best := args[0].Float64()
		for _, a := range args[1:] {
			if x := a.Float64(); (x > best) == (sign > 0) && x != best {
				best = x
			}
		}
		return newFloat(best), nil
	}
}

func decimalExtremum(sign int) func(ec *evalCtx, args []Value) (Value, error) {
	return func(ec *evalCtx, args []Value) (Value, error) {
		best, err := args[0].toDecimal(ec)
		if err != nil {
			return Value{}, err
		}
		for _, a := range args[1:] {
			d, err := a.toDecimal(ec)
			if err != nil {
				return Value{}, err
			}
			if d.Cmp(best) == sign {
				best = d
			}
		}
		return newDecimal(best), nil
	}
}

func fractionExtremum(sign int) func(ec *evalCtx, args []Value) (Value, error) {
	return func(ec *evalCtx, args []Value) (Value, error) {
		best, err := args[0].toFraction()
		if err != nil {
			return Value{}, err
		}
		for _, a := range args[1:] {
			r, err := a.toFraction()
			if err != nil {
				return Value{}, err
			}
			if r.Cmp(best) == sign {
				best = r
			}
		}
		return newFraction(best), nil
	}
}

// decimalTrig bridges a Decimal argument through a binary double, applies a
// native transcendental, and re-rounds the result to the context precision.
func decimalTrig(name string, f func(float64) float64) domainFunc {
	return domainFunc{name: name, min: 1, max: 1, call: func(ec *evalCtx, args []Value) (Value, error) {
		d, err := args[0].toDecimal(ec)
		if err != nil {
			return Value{}, err
		}
		x, err := d.Float64()
		if err != nil {
			return Value{}, &EvalError{Op: name, Reason: "argument outside binary range", Err: err}
		}
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return Value{}, &EvalError{Op: name, Reason: "argument outside domain"}
		}
		return decimalFromFloat(ec, y)
	}}
}

// decimalBridge bridges a Decimal argument through a big.Float at a
// precision derived from the context's digit count, applies a bigfloat
// transcendental, and converts the result back at context precision.
func decimalBridge(name string, f func(z, x *big.Float) *big.Float) domainFunc {
	return domainFunc{name: name, min: 1, max: 1, call: func(ec *evalCtx, args []Value) (v Value, err error) {
		d, err := args[0].toDecimal(ec)
		if err != nil {
			return Value{}, err
		}
		x, err := toBigFloat(ec, d)
		if err != nil {
			return Value{}, err
		}
		defer catchNaN(name, &err)
		z := new(big.Float).SetPrec(x.Prec())
		f(z, x)
		return decimalFromBig(ec, name, z)
	}}
}

// sqrtDecimal attempts an exact-context square root and falls back to a
// binary approximation when the decimal context refuses the argument.
func sqrtDecimal(ec *evalCtx, args []Value) (v Value, err error) {
	d, err := args[0].toDecimal(ec)
	if err != nil {
		return Value{}, err
	}
	res := new(apd.Decimal)
	if _, err := ec.dec.Sqrt(res, d); err == nil {
		return newDecimal(res), nil
	}
	x, err := toBigFloat(ec, d)
	if err != nil {
		return Value{}, err
	}
	defer catchNaN("sqrt", &err)
	z := new(big.Float).SetPrec(x.Prec()).Sqrt(x)
	return decimalFromBig(ec, "sqrt", z)
}

// powFloat is ** in the Float domain.
func powFloat(l, r Value) (Value, error) {
	a, b := l.Float64(), r.Float64()
	if a == 0 && b < 0 {
		return Value{}, &DivisionByZeroError{Op: "**"}
	}
	y := math.Pow(a, b)
	if math.IsNaN(y) && !math.IsNaN(a) && !math.IsNaN(b) {
		return Value{}, &EvalError{Op: "**", Reason: "no real result"}
	}
	return newFloat(y), nil
}

// powFraction is ** in the Fraction domain: the exponent must be an exact
// integer, and the result is computed by exact integer exponentiation.
func powFraction(l, r Value) (Value, error) {
	exp, err := r.toFraction()
	if err != nil {
		return Value{}, err
	}
	if !exp.IsInt() {
		return Value{}, &ExponentError{Exponent: newFraction(exp).String()}
	}
	e, ok := boundedExponent(exp)
	if !ok {
		return Value{}, &EvalError{Op: "**", Reason: "exponent too large for exact arithmetic"}
	}
	base, err := l.toFraction()
	if err != nil {
		return Value{}, err
	}
	res, err := ratPow(base, e)
	if err != nil {
		return Value{}, err
	}
	return newFraction(res), nil
}

// powDecimal is ** in the Decimal domain. An exact integer exponent
// preserves exactness via rational exponentiation rounded once into the
// context; anything else bridges through bigfloat.Pow.
func powDecimal(ec *evalCtx, l, r Value) (v Value, err error) {
	if exp, err := r.toFraction(); err == nil && exp.IsInt() {
		if e, ok := boundedExponent(exp); ok {
			base, err := l.toFraction()
			if err == nil {
				res, err := ratPow(base, e)
				if err != nil {
					return Value{}, err
				}
				d, err := newFraction(res).toDecimal(ec)
				if err != nil {
					return Value{}, err
				}
				return newDecimal(d), nil
			}
		}
	}
	ld, err := l.toDecimal(ec)
	if err != nil {
		return Value{}, err
	}
	rd, err := r.toDecimal(ec)
	if err != nil {
		return Value{}, err
	}
	x, err := toBigFloat(ec, ld)
	if err != nil {
		return Value{}, err
	}
	y, err := toBigFloat(ec, rd)
	if err != nil {
		return Value{}, err
	}
	defer catchNaN("**", &err)
	z := new(big.Float).SetPrec(x.Prec())
	bigfloat.Pow(z, x, y)
	return decimalFromBig(ec, "**", z)
}

// maxExactExponent bounds exact integer exponentiation so that untrusted
// input cannot demand an arbitrarily large big-integer blow-up.
const maxExactExponent = 1 << 20

// boundedExponent extracts an integer exponent within the exact-arithmetic
// bound from a rational known to be integral.
func boundedExponent(exp *big.Rat) (int64, bool) {
	n := exp.Num()
	if !n.IsInt64() {
		return 0, false
	}
	e := n.Int64()
	if e > maxExactExponent || e < -maxExactExponent {
		return 0, false
	}
	return e, true
}

// ratPow raises an exact rational to an integer power. A negative power of
// zero is a division by zero.
func ratPow(base *big.Rat, exp int64) (*big.Rat, error) {
	if exp < 0 && base.Sign() == 0 {
		return nil, &DivisionByZeroError{Op: "**"}
	}
	e := big.NewInt(exp)
	neg := exp < 0
	if neg {
		e.Neg(e)
	}
	num := new(big.Int).Exp(base.Num(), e, nil)
	den := new(big.Int).Exp(base.Denom(), e, nil)
	res := new(big.Rat).SetFrac(num, den)
	if neg {
		res.Inv(res)
	}
	return res, nil
}

// bridgePrec is the big.Float mantissa width, in bits, that covers the
// context's decimal digits with headroom.
func bridgePrec(ec *evalCtx) uint {
	return uint(math.Ceil(float64(ec.cfg.prec)*math.Log2(10))) + 16
}

// toBigFloat converts a decimal to a binary approximation for bridging.
func toBigFloat(ec *evalCtx, d *apd.Decimal) (*big.Float, error) {
	f, _, err := big.ParseFloat(d.String(), 10, bridgePrec(ec), big.ToNearestEven)
	if err != nil {
		return nil, &EvalError{Op: "conversion", Reason: "decimal to binary", Err: err}
	}
	return f, nil
}

// decimalFromBig converts a bridged result back into the decimal context,
// rounding to the configured precision.
func decimalFromBig(ec *evalCtx, name string, x *big.Float) (Value, error) {
	if x.IsInf() {
		return Value{}, &EvalError{Op: name, Reason: "result is not finite"}
	}
	d, _, err := apd.NewFromString(x.Text('e', int(ec.cfg.prec)+4))
	if err != nil {
		return Value{}, &EvalError{Op: name, Reason: "binary to decimal", Err: err}
	}
	if _, err := ec.dec.Round(d, d); err != nil {
		return Value{}, &EvalError{Op: name, Reason: "binary to decimal", Err: err}
	}
	return newDecimal(d), nil
}

// catchNaN converts the big.ErrNaN panics that big.Float and bigfloat
// operations use to report out-of-domain arguments into evaluation errors.
// Any other panic resumes.
func catchNaN(name string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if !ok || !errors.As(e, new(big.ErrNaN)) {
		panic(r)
	}
	*err = &EvalError{Op: name, Reason: "argument outside domain", Err: e}
}
