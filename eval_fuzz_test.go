//go:build go1.18

package safeexpr_test

import (
	"testing"

	"github.com/calclab/safeexpr"
)

func FuzzEvalString(f *testing.F) {
	f.Add("1/3 + 1/6")
	f.Add("0.1+0.2")
	f.Add("2**0.5")
	f.Add("sqrt(0-1)")
	f.Add("5/0")
	f.Add("0**-1")
	f.Add("max(1,2,3)%min(4,5)")
	f.Add("pi*e")
	f.Fuzz(func(t *testing.T, s string) {
		for _, d := range []safeexpr.Domain{safeexpr.Float, safeexpr.Decimal, safeexpr.Fraction} {
			v, err := safeexpr.EvalString(s, d, safeexpr.Prec(10))
			if err != nil {
				if kind := safeexpr.KindOf(err); kind == safeexpr.KindNone {
					t.Errorf("evaluating %q in %v mode: unclassified error %v", s, d, err)
				}
				continue
			}
			_ = v.String()
		}
	})
}
