package safeexpr

import (
	"math"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Value is a number in one of the three numeric domains. Values are
// immutable: every operation produces a new Value and never writes through
// an operand.
type Value struct {
	domain Domain
	f      float64
	d      *apd.Decimal
	r      *big.Rat
}

func newFloat(f float64) Value {
	return Value{domain: Float, f: f}
}

func newDecimal(d *apd.Decimal) Value {
	return Value{domain: Decimal, d: d}
}

func newFraction(r *big.Rat) Value {
	return Value{domain: Fraction, r: r}
}

// Domain returns the domain whose representation the value carries.
func (v Value) Domain() Domain {
	return v.domain
}

// Float64 returns the nearest binary double to the value. The conversion is
// lossy everywhere but the Float domain.
func (v Value) Float64() float64 {
	switch v.domain {
	case Float:
		return v.f
	case Decimal:
		f, err := v.d.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case Fraction:
		f, _ := v.r.Float64()
		return f
	default:
		panic("safeexpr: invalid value domain " + v.domain.String())
	}
}

// String returns the value in its domain's native display form: shortest
// round-trip notation for Float, significant digits for Decimal, and
// "numerator/denominator" (or a bare integer) for Fraction.
func (v Value) String() string {
	switch v.domain {
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Decimal:
		return v.d.String()
	case Fraction:
		if v.r.IsInt() {
			return v.r.Num().String()
		}
		return v.r.RatString()
	default:
		panic("safeexpr: invalid value domain " + v.domain.String())
	}
}

// isZero reports whether the value is the zero of its own representation.
func (v Value) isZero() bool {
	switch v.domain {
	case Float:
		return v.f == 0
	case Decimal:
		return v.d.IsZero()
	case Fraction:
		return v.r.Sign() == 0
	default:
		return false
	}
}

// literal converts a numeric literal's source text into the context's
// domain. Decimal and Fraction parse the text directly, never through a
// binary float, so a literal like 0.1 stays an exact tenth.
func literal(ec *evalCtx, text string) (Value, error) {
	switch ec.cfg.domain {
	case Float:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			// The lexer guarantees the syntax, so the only error left is
			// range, which rounds to an infinity or to zero.
			ne, ok := err.(*strconv.NumError)
			if !ok || ne.Err != strconv.ErrRange {
				return Value{}, &EvalError{Op: text, Reason: "bad numeric literal", Err: err}
			}
		}
		return newFloat(f), nil
	case Decimal:
		d, _, err := apd.NewFromString(text)
		if err != nil {
			return Value{}, &EvalError{Op: text, Reason: "bad numeric literal", Err: err}
		}
		if _, err := ec.dec.Round(d, d); err != nil {
			return Value{}, &EvalError{Op: text, Reason: "bad numeric literal", Err: err}
		}
		return newDecimal(d), nil
	case Fraction:
		r, ok := new(big.Rat).SetString(text)
		if !ok {
			return Value{}, &EvalError{Op: text, Reason: "bad numeric literal"}
		}
		return newFraction(r), nil
	default:
		panic("safeexpr: invalid domain " + ec.cfg.domain.String())
	}
}

// consts is the named constant table. It is read-only for the process
// lifetime.
var consts = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// constant converts a named constant into the context's domain. The source
// of truth is the binary double; Decimal takes its shortest round-trip
// decimal form and Fraction its exact binary fraction.
func constant(ec *evalCtx, name string) (Value, error) {
	f, ok := consts[name]
	if !ok {
		return Value{}, &NameError{Name: name}
	}
	switch ec.cfg.domain {
	case Float:
		return newFloat(f), nil
	case Decimal:
		return decimalFromFloat(ec, f)
	case Fraction:
		r := new(big.Rat).SetFloat64(f)
		if r == nil {
			return Value{}, &EvalError{Op: name, Reason: "constant is not finite"}
		}
		return newFraction(r), nil
	default:
		panic("safeexpr: invalid domain " + ec.cfg.domain.String())
	}
}

// convert coerces a value into the context's domain. This is the explicit
// cross-domain conversion used by the evaluator's coercion fallback and by
// functions that accept arguments from any representation.
func convert(ec *evalCtx, v Value) (Value, error) {
	switch ec.cfg.domain {
	case Float:
		return newFloat(v.Float64()), nil
	case Decimal:
		d, err := v.toDecimal(ec)
		if err != nil {
			return Value{}, err
		}
		return newDecimal(d), nil
	case Fraction:
		r, err := v.toFraction()
		if err != nil {
			return Value{}, err
		}
		return newFraction(r), nil
	default:
		panic("safeexpr: invalid domain " + ec.cfg.domain.String())
	}
}

// toDecimal returns the value as a decimal. Fractions divide numerator by
// denominator under the context precision; this direction may round.
// Floats convert through their shortest round-trip decimal form.
func (v Value) toDecimal(ec *evalCtx) (*apd.Decimal, error) {
	switch v.domain {
	case Decimal:
		return v.d, nil
	case Float:
		d, err := decimalFromFloat(ec, v.f)
		if err != nil {
			return nil, err
		}
		return d.d, nil
	case Fraction:
		num, _, err := apd.NewFromString(v.r.Num().String())
		if err != nil {
			return nil, &EvalError{Op: "conversion", Reason: "fraction to decimal", Err: err}
		}
		den, _, err := apd.NewFromString(v.r.Denom().String())
		if err != nil {
			return nil, &EvalError{Op: "conversion", Reason: "fraction to decimal", Err: err}
		}
		res := new(apd.Decimal)
		if err := exactQuo(ec, res, num, den); err != nil {
			return nil, &EvalError{Op: "conversion", Reason: "fraction to decimal", Err: err}
		}
		return res, nil
	default:
		panic("safeexpr: invalid value domain " + v.domain.String())
	}
}

// toFraction returns the value as an exact rational. Decimals reconstruct
// the exact fraction implied by their digits and exponent; this direction
// never rounds. Floats yield their exact binary fraction.
func (v Value) toFraction() (*big.Rat, error) {
	switch v.domain {
	case Fraction:
		return v.r, nil
	case Decimal:
		r, ok := new(big.Rat).SetString(v.d.Text('f'))
		if !ok {
			return nil, &EvalError{Op: "conversion", Reason: "decimal " + v.d.String() + " is not finite"}
		}
		return r, nil
	case Float:
		r := new(big.Rat).SetFloat64(v.f)
		if r == nil {
			return nil, &EvalError{Op: "conversion", Reason: "float " + v.String() + " is not finite"}
		}
		return r, nil
	default:
		panic("safeexpr: invalid value domain " + v.domain.String())
	}
}

// exactQuo divides l by r under the context. apd's Quo keeps an exact
// quotient at full context precision, trailing zeros included; decimal
// division instead delivers the ideal exponent for exact results, so that
// 1/4 is 0.25 rather than 0.2500000000000000000000000000. When the
// quotient is exact, strip the trailing zeros, but no further than the
// ideal exponent. Inexact quotients are left at context precision.
func exactQuo(ec *evalCtx, res, l, r *apd.Decimal) error {
	cond, err := ec.dec.Quo(res, l, r)
	if err != nil || cond&apd.Inexact != 0 {
		return err
	}
	res.Reduce(res)
	if zeros := int64(res.Exponent) - int64(l.Exponent) + int64(r.Exponent); zeros > 0 {
		// Reduce strips past the ideal exponent; put back as many zeros as
		// the precision has room for. Lowering the exponent of an exact
		// value never rounds.
		if room := int64(ec.cfg.prec) - res.NumDigits(); zeros > room {
			zeros = room
		}
		if zeros > 0 {
			if _, err := ec.dec.Quantize(res, res, res.Exponent-int32(zeros)); err != nil {
				return err
			}
		}
	}
	return nil
}

// decimalFromFloat builds a decimal from a float's shortest round-trip
// decimal form, rounded to the context precision. Going through the digit
// string rather than the binary value keeps artifacts like
// 0.1000000000000000055511151231257827 out of decimal results.
func decimalFromFloat(ec *evalCtx, f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, &EvalError{Op: "conversion", Reason: "value " + strconv.FormatFloat(f, 'g', -1, 64) + " is not finite"}
	}
	d, _, err := apd.NewFromString(strconv.FormatFloat(f, 'g', -1, 64))
	if err != nil {
		return Value{}, &EvalError{Op: "conversion", Reason: "float to decimal", Err: err}
	}
	if _, err := ec.dec.Round(d, d); err != nil {
		return Value{}, &EvalError{Op: "conversion", Reason: "float to decimal", Err: err}
	}
	return newDecimal(d), nil
}
