package safeexpr_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calclab/safeexpr"
)

func TestEvaluateFloat(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1+2*3", "7"},
		{"1/4", "0.25"},
		{"1/3", "0.3333333333333333"},
		{"7//2", "3"},
		{"-7//2", "-4"},
		{"7%3", "1"},
		{"-7%3", "2"},
		{"2**10", "1024"},
		{"2**-2", "0.25"},
		{"2**0.5", "1.4142135623730951"},
		{"0.1+0.2", "0.30000000000000004"},
		{".5*2", "1"},
		{"pi", "3.141592653589793"},
		{"-(1+2)", "-3"},
		{"--4", "4"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := safeexpr.Evaluate(c.src, safeexpr.Float)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestEvaluateDecimal(t *testing.T) {
	cases := []struct {
		src  string
		opts []safeexpr.ContextOption
		want string
	}{
		{"0.1+0.2", nil, "0.3"},
		{"0.1*3", nil, "0.3"},
		{".5+.25", nil, "0.75"},
		{"1/4", nil, "0.25"},
		{"1/8", nil, "0.125"},
		// exact quotients take the ideal exponent, like Python's decimal
		{"100/10", nil, "10"},
		{"2.0/2", nil, "1.0"},
		{"10**2", nil, "100"},
		{"1/3", nil, "0.3333333333333333333333333333"},
		{"1/3", []safeexpr.ContextOption{safeexpr.Prec(5)}, "0.33333"},
		{"2**10", nil, "1024"},
		{"2**-2", nil, "0.25"},
		{"7//2", nil, "3"},
		{"7%2", nil, "1"},
		// integer division and remainder truncate toward zero
		{"-7//2", nil, "-3"},
		{"-7%2", nil, "-1"},
		{"pi", []safeexpr.ContextOption{safeexpr.Prec(10)}, "3.141592654"},
		{"sqrt(2)", []safeexpr.ContextOption{safeexpr.Prec(10)}, "1.414213562"},
		{"sin(0)", nil, "0"},
		{"abs(-2.5)", nil, "2.5"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := safeexpr.Evaluate(c.src, safeexpr.Decimal, c.opts...)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestEvaluateFraction(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1/3", "1/3"},
		{"1/2+1/3", "5/6"},
		{"0.1+0.2", "3/10"},
		{"2**10", "1024"},
		{"2**-2", "1/4"},
		{"pow(2,8)", "256"},
		{"7//2", "3"},
		{"-7//2", "-4"},
		{"7%3", "1"},
		{"-7%3", "2"},
		{"abs(-(3/4))", "3/4"},
		{"max(1/2,1/3)", "1/2"},
		{"min(1/2,1/3,2)", "1/3"},
		// the constant is the exact binary fraction of the double
		{"pi", "884279719003555/281474976710656"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := safeexpr.Evaluate(c.src, safeexpr.Fraction)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

// TestEvaluateAgreement checks that expressions with one exact answer give
// the same rendering in every domain.
func TestEvaluateAgreement(t *testing.T) {
	srcs := []string{"2+2", "10-4*2", "3*7", "2**10", "100//7", "100%7", "abs(0-5)", "max(1,2,3)"}
	domains := []safeexpr.Domain{safeexpr.Float, safeexpr.Decimal, safeexpr.Fraction}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			want, err := safeexpr.Evaluate(src, safeexpr.Float)
			require.NoError(t, err)
			for _, d := range domains[1:] {
				got, err := safeexpr.Evaluate(src, d)
				require.NoError(t, err, "in %v mode", d)
				assert.Equal(t, want, got, "in %v mode", d)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	domains := []safeexpr.Domain{safeexpr.Float, safeexpr.Decimal, safeexpr.Fraction}
	cases := []struct {
		name string
		src  string
		kind safeexpr.ErrorKind
	}{
		{"div-zero", "5/0", safeexpr.KindDivisionByZero},
		{"floordiv-zero", "5//0", safeexpr.KindDivisionByZero},
		{"mod-zero", "5%0", safeexpr.KindDivisionByZero},
		{"neg-power-of-zero", "0**-1", safeexpr.KindDivisionByZero},
		{"zero-literal-divisor", "1/(2-2)", safeexpr.KindDivisionByZero},
		{"unknown-name", "qux", safeexpr.KindUnknownName},
		{"unknown-function", "foo(1)", safeexpr.KindUnknownFunction},
		{"no-arguments", "max()", safeexpr.KindEvaluation},
		{"too-many-arguments", "sqrt(1,2)", safeexpr.KindEvaluation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, d := range domains {
				if c.name == "too-many-arguments" && d == safeexpr.Fraction {
					// sqrt resolves to a domain error before arity there.
					continue
				}
				_, err := safeexpr.EvalString(c.src, d)
				require.Error(t, err, "in %v mode", d)
				assert.Equal(t, c.kind, safeexpr.KindOf(err), "in %v mode: %v", d, err)
			}
		})
	}
}

func TestEvaluateDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		mode safeexpr.Domain
		kind safeexpr.ErrorKind
	}{
		{"fraction-sin", "sin(1)", safeexpr.Fraction, safeexpr.KindDomainUnsupportedFunction},
		{"fraction-sqrt", "sqrt(4)", safeexpr.Fraction, safeexpr.KindDomainUnsupportedFunction},
		{"fraction-ln", "ln(2)", safeexpr.Fraction, safeexpr.KindDomainUnsupportedFunction},
		{"fraction-real-exponent", "2**0.5", safeexpr.Fraction, safeexpr.KindNonIntegerExponent},
		{"fraction-pow-real", "pow(2,1/2)", safeexpr.Fraction, safeexpr.KindNonIntegerExponent},
		{"float-sqrt-negative", "sqrt(0-1)", safeexpr.Float, safeexpr.KindEvaluation},
		{"decimal-sqrt-negative", "sqrt(0-1)", safeexpr.Decimal, safeexpr.KindEvaluation},
		{"decimal-ln-negative", "ln(0-1)", safeexpr.Decimal, safeexpr.KindEvaluation},
		{"float-no-real-result", "(0-1)**0.5", safeexpr.Float, safeexpr.KindEvaluation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := safeexpr.EvalString(c.src, c.mode)
			require.Error(t, err)
			assert.Equal(t, c.kind, safeexpr.KindOf(err), "from %v", err)
		})
	}
}

// TestEvalConcurrent checks that one parsed expression can be evaluated
// under many contexts at once with no shared state.
func TestEvalConcurrent(t *testing.T) {
	e, err := safeexpr.ParseString("1/3 + 2**10")
	require.NoError(t, err)
	contexts := []safeexpr.Context{
		safeexpr.NewContext(safeexpr.Float),
		safeexpr.NewContext(safeexpr.Decimal),
		safeexpr.NewContext(safeexpr.Decimal, safeexpr.Prec(5)),
		safeexpr.NewContext(safeexpr.Fraction),
	}
	want := make([]string, len(contexts))
	for i, ctx := range contexts {
		v, err := e.Eval(ctx)
		require.NoError(t, err)
		want[i] = v.String()
	}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		for j, ctx := range contexts {
			wg.Add(1)
			go func(j int, ctx safeexpr.Context) {
				defer wg.Done()
				v, err := e.Eval(ctx)
				assert.NoError(t, err)
				assert.Equal(t, want[j], v.String())
			}(j, ctx)
		}
	}
	wg.Wait()
}

// TestEvalRepeatable checks that evaluating the same expression twice under
// the same context gives identical results.
func TestEvalRepeatable(t *testing.T) {
	for _, src := range []string{"sqrt(2)", "1/3", "pi*2", "2**0.5"} {
		t.Run(src, func(t *testing.T) {
			ctx := safeexpr.NewContext(safeexpr.Decimal, safeexpr.Prec(20))
			e, err := safeexpr.ParseString(src)
			require.NoError(t, err)
			a, err := e.Eval(ctx)
			require.NoError(t, err)
			b, err := e.Eval(ctx)
			require.NoError(t, err)
			assert.Equal(t, a.String(), b.String())
		})
	}
}

func ExampleEvaluate() {
	got, err := safeexpr.Evaluate("0.1 + 0.2", safeexpr.Decimal)
	if err != nil {
		panic(err)
	}
	fmt.Println(got)
	got, err = safeexpr.Evaluate("1/3 + 1/6", safeexpr.Fraction)
	if err != nil {
		panic(err)
	}
	fmt.Println(got)
	// Output:
	// 0.3
	// 1/2
}
