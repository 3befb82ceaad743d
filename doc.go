// Package safeexpr evaluates untrusted arithmetic expressions under one of
// three numeric domains: binary floating point, arbitrary-precision decimal,
// or exact rationals.
//
// The grammar is a closed whitelist: numeric literals, the constants pi and
// e, the operators + - * / // % ** with unary + and -, parenthesized
// grouping, and calls to a fixed set of functions by bare name. Anything
// else is rejected while building the expression tree, before evaluation
// starts, so no expression can do more than arithmetic.
//
// Each domain has its own exactness rules. Float is IEEE-754 double.
// Decimal is base-10 arithmetic rounded to a configured number of
// significant digits; transcendental functions bridge through a binary
// approximation and re-round. Fraction is exact: results carry no rounding
// error, and operations with no exact form (sin, sqrt, fractional
// exponents) are refused rather than approximated.
//
// Evaluations share no mutable state. A Context is a value holding the
// domain and precision, so any number of goroutines may evaluate
// expressions concurrently.
package safeexpr
