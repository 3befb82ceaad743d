package safeexpr

import (
	"errors"
	"strconv"
)

// NameError is an error from a reference to an identifier that is not a
// named constant.
type NameError struct {
	// Name is the unknown identifier.
	Name string
}

func (err *NameError) Error() string {
	return "unknown name: " + strconv.Quote(err.Name)
}

// FunctionError is an error from a call to an identifier that is not a
// whitelisted function in any domain.
type FunctionError struct {
	// Name is the unknown callee.
	Name string
}

func (err *FunctionError) Error() string {
	return "unknown function: " + strconv.Quote(err.Name)
}

// DomainFunctionError is an error from calling a whitelisted function in a
// domain that does not support it, e.g. sin in fraction mode.
type DomainFunctionError struct {
	// Name is the function.
	Name string
	// Domain is the active domain.
	Domain Domain
}

func (err *DomainFunctionError) Error() string {
	return "function " + err.Name + " is not supported in " + err.Domain.String() + " mode"
}

// ExponentError is an error from ** or pow with a non-integer exponent in
// fraction mode, where the result would not be exact.
type ExponentError struct {
	// Exponent is the display form of the offending exponent.
	Exponent string
}

func (err *ExponentError) Error() string {
	return "non-integer exponent " + err.Exponent + " in fraction mode"
}

// DivisionByZeroError is an error from any division whose divisor is the
// domain's zero. It is always reported distinctly; the evaluator never
// retries or coerces it away.
type DivisionByZeroError struct {
	// Op is the operator: "/", "//", "%", or "**" for a negative power of
	// zero.
	Op string
}

func (err *DivisionByZeroError) Error() string {
	return "division by zero in " + strconv.Quote(err.Op)
}

// EvalError is an error from a native operation that failed for a reason
// with no more specific kind, including exhaustion of the evaluator's
// one-shot coercion retry.
type EvalError struct {
	// Op is the operator or function that failed.
	Op string
	// Reason describes the failure.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

func (err *EvalError) Error() string {
	s := "cannot evaluate " + strconv.Quote(err.Op)
	if err.Reason != "" {
		s += ": " + err.Reason
	}
	if err.Err != nil {
		s += ": " + err.Err.Error()
	}
	return s
}

func (err *EvalError) Unwrap() error {
	return err.Err
}

// ErrorKind is the flat classification of every error Evaluate can return.
// Every failure maps to exactly one kind.
type ErrorKind int

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota
	// KindSyntax: the text does not parse as an arithmetic expression.
	KindSyntax
	// KindUnsupportedConstruct: the text is recognizable but uses a
	// construct outside the whitelist.
	KindUnsupportedConstruct
	// KindUnknownName: an identifier is not a named constant.
	KindUnknownName
	// KindUnknownFunction: a callee is not a whitelisted function.
	KindUnknownFunction
	// KindDomainUnsupportedFunction: the function exists but not in the
	// active domain.
	KindDomainUnsupportedFunction
	// KindNonIntegerExponent: ** or pow with a non-integer exponent in
	// fraction mode.
	KindNonIntegerExponent
	// KindDivisionByZero: a divisor was the domain's zero.
	KindDivisionByZero
	// KindEvaluation: any other native operation failure.
	KindEvaluation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSyntax:
		return "syntax error"
	case KindUnsupportedConstruct:
		return "unsupported construct"
	case KindUnknownName:
		return "unknown name"
	case KindUnknownFunction:
		return "unknown function"
	case KindDomainUnsupportedFunction:
		return "function unsupported in domain"
	case KindNonIntegerExponent:
		return "non-integer exponent"
	case KindDivisionByZero:
		return "division by zero"
	case KindEvaluation:
		return "evaluation error"
	default:
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// KindOf classifies an error returned by Parse, Eval, or Evaluate.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.As(err, new(*UnsupportedError)),
		errors.As(err, new(*SeparatorError)),
		errors.As(err, new(*CallError)):
		return KindUnsupportedConstruct
	case errors.As(err, new(InputError)):
		return KindSyntax
	case errors.As(err, new(*NameError)):
		return KindUnknownName
	case errors.As(err, new(*FunctionError)):
		return KindUnknownFunction
	case errors.As(err, new(*DomainFunctionError)):
		return KindDomainUnsupportedFunction
	case errors.As(err, new(*ExponentError)):
		return KindNonIntegerExponent
	case errors.As(err, new(*DivisionByZeroError)):
		return KindDivisionByZero
	default:
		return KindEvaluation
	}
}
