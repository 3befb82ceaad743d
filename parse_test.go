package safeexpr_test

import (
	"errors"
	"testing"

	"github.com/calclab/safeexpr"
)

func TestParse(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		// literals and names
		{"0", "0"},
		{"1.5", "1.5"},
		{".5", ".5"},
		{"1e3", "1e3"},
		{"pi", "pi"},
		// precedence
		{"1+2*3", "(1 + (2 * 3))"},
		{"1*2+3", "((1 * 2) + 3)"},
		{"1-2-3", "((1 - 2) - 3)"},
		{"1/2/3", "((1 / 2) / 3)"},
		{"7//2%3", "((7 // 2) % 3)"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		// exponentiation is right-associative and binds over unary minus
		{"2**3**2", "(2 ** (3 ** 2))"},
		{"-2**2", "(-(2 ** 2))"},
		{"2**-3", "(2 ** (-3))"},
		// unary
		{"-1", "(-1)"},
		{"+1", "(+1)"},
		{"--1", "(-(-1))"},
		{"-(1+2)", "(-(1 + 2))"},
		// calls
		{"sqrt(2)", "sqrt(2)"},
		{"max(1,2+3)", "max(1, (2 + 3))"},
		{"min(1,2,3)", "min(1, 2, 3)"},
		{"f()", "f()"},
		{"pow(2,sin(pi))", "pow(2, sin(pi))"},
		// whitespace is insignificant
		{" 7 % 3 ", "(7 % 3)"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := safeexpr.ParseString(c.src)
			if err != nil {
				t.Fatalf("parsing %q: unexpected error %v", c.src, err)
			}
			if got := e.String(); got != c.want {
				t.Errorf("parsing %q: want %q, got %q", c.src, c.want, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind safeexpr.ErrorKind
	}{
		{"empty", "", safeexpr.KindSyntax},
		{"only-space", "   ", safeexpr.KindSyntax},
		{"dangling-op", "1+", safeexpr.KindSyntax},
		{"double-op", "1*/2", safeexpr.KindSyntax},
		{"leading-binop", "*1", safeexpr.KindSyntax},
		{"unclosed", "(1", safeexpr.KindSyntax},
		{"unopened", "1)", safeexpr.KindSyntax},
		{"empty-parens", "()", safeexpr.KindSyntax},
		{"bad-number", "1.2.3", safeexpr.KindSyntax},
		{"trailing-arg-comma", "max(1,)", safeexpr.KindSyntax},
		{"leading-arg-comma", "max(,1)", safeexpr.KindUnsupportedConstruct},
		{"top-level-comma", "1,2", safeexpr.KindUnsupportedConstruct},
		{"adjacency", "2 pi", safeexpr.KindUnsupportedConstruct},
		{"computed-call", "(1)(2)", safeexpr.KindUnsupportedConstruct},
		{"assignment", "a=1", safeexpr.KindUnsupportedConstruct},
		{"attribute", "x.y", safeexpr.KindUnsupportedConstruct},
		{"string-arg", "__import__('os')", safeexpr.KindUnsupportedConstruct},
		{"list", "[1, 2, 3]", safeexpr.KindUnsupportedConstruct},
		{"comparison", "1 < 2", safeexpr.KindUnsupportedConstruct},
		{"bitwise", "3 ^ 2", safeexpr.KindUnsupportedConstruct},
		{"statements", "1; 2", safeexpr.KindUnsupportedConstruct},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := safeexpr.ParseString(c.src)
			if err == nil {
				t.Fatalf("parsing %q gave no error, parsed %v", c.src, e)
			}
			if got := safeexpr.KindOf(err); got != c.kind {
				t.Errorf("parsing %q: want error kind %v, got %v from %v", c.src, c.kind, got, err)
			}
			var ie safeexpr.InputError
			if !errors.As(err, &ie) {
				t.Fatalf("parsing %q: error %#v carries no position", c.src, err)
			}
			if ie.Pos() <= 0 {
				t.Errorf("parsing %q: nonpositive position %d in %v", c.src, ie.Pos(), err)
			}
		})
	}
}
