package safeexpr

import "strings"

// transcendentals are the function names whose presence pushes auto
// detection toward Decimal: they have no exact rational form, and binary
// floating point would surface artifacts in the displayed digits.
var transcendentals = [...]string{"sin", "cos", "tan", "log", "ln", "sqrt"}

// SelectMode guesses the numeric domain for an expression the caller has
// not pinned to one. The rules apply first match wins, on the text with
// spaces removed:
//
//  1. A decimal point means Decimal.
//  2. A transcendental function name means Decimal.
//  3. A single / (not //) with digits on both sides means Fraction.
//  4. Text of only digits, arithmetic operators, and parentheses means
//     Fraction.
//  5. Anything else is Float.
//
// This is a best-effort classifier, not a grammar check, and it can
// misclassify inputs that mix the rules' cues: "sqrt(4)/2" selects Decimal
// even though the division suggests Fraction, and "3.0/2" selects Decimal
// by rule 1. Callers that need a specific domain should pass one to
// Evaluate instead.
func SelectMode(text string) Domain {
	text = strings.ReplaceAll(text, " ", "")

	if strings.Contains(text, ".") {
		return Decimal
	}

	for _, f := range transcendentals {
		if strings.Contains(text, f) {
			return Decimal
		}
	}

	if strings.Contains(text, "/") && !strings.Contains(text, "//") {
		k := strings.IndexByte(text, '/')
		if k > 0 && k+1 < len(text) && isDigit(text[k-1]) && isDigit(text[k+1]) {
			return Fraction
		}
	}

	if strings.IndexFunc(text, func(r rune) bool {
		return !('0' <= r && r <= '9') && !strings.ContainsRune("+-*/()", r)
	}) < 0 {
		return Fraction
	}

	return Float
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
