package safeexpr

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Domain selects the numeric representation an evaluation runs under.
type Domain int

const (
	// Float evaluates with IEEE-754 double precision binary floating point.
	Float Domain = iota
	// Decimal evaluates with arbitrary-precision base-10 arithmetic,
	// rounded to the context's number of significant digits.
	Decimal
	// Fraction evaluates with exact rational arithmetic.
	Fraction
)

func (d Domain) String() string {
	switch d {
	case Float:
		return "float"
	case Decimal:
		return "decimal"
	case Fraction:
		return "fraction"
	default:
		return "Domain(" + strconv.Itoa(int(d)) + ")"
	}
}

// ParseDomain converts a mode name to a Domain.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "float":
		return Float, nil
	case "decimal":
		return Decimal, nil
	case "fraction":
		return Fraction, nil
	default:
		return 0, &ModeError{Mode: s}
	}
}

// ModeError is an error indicating an unknown mode name.
type ModeError struct {
	// Mode is the name that did not match any domain.
	Mode string
}

func (err *ModeError) Error() string {
	return "unknown mode " + strconv.Quote(err.Mode)
}

// DefaultPrecision is the number of significant digits Decimal evaluation
// uses when no precision is configured.
const DefaultPrecision = 28

// Context is the configuration for evaluating an expression: the numeric
// domain and, for Decimal, the precision in significant digits. A Context
// is an immutable value; evaluations using it share no state, so a single
// Context may drive any number of concurrent evaluations.
type Context struct {
	domain Domain
	prec   uint32
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption(Context) Context
}

type precopt uint32

func (p precopt) ctxOption(c Context) Context {
	c.prec = uint32(p)
	return c
}

// Prec sets the number of significant digits for Decimal evaluation. It has
// no effect in the other domains. A precision of 0 means DefaultPrecision.
func Prec(digits uint32) ContextOption {
	return precopt(digits)
}

// NewContext creates an evaluation context for a domain.
func NewContext(domain Domain, opts ...ContextOption) Context {
	c := Context{domain: domain, prec: DefaultPrecision}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		c = opt.ctxOption(c)
	}
	if c.prec == 0 {
		c.prec = DefaultPrecision
	}
	return c
}

// Domain returns the context's numeric domain.
func (c Context) Domain() Domain {
	return c.domain
}

// Prec returns the context's Decimal precision in significant digits.
func (c Context) Prec() uint32 {
	return c.prec
}

// evalCtx is the per-evaluation state: the caller's configuration plus a
// decimal context derived from it. Each Eval call builds its own, so the
// precision in effect can never drift mid-call or between calls.
type evalCtx struct {
	cfg Context
	dec *apd.Context
}

func newEvalCtx(cfg Context) *evalCtx {
	if cfg.prec == 0 {
		cfg.prec = DefaultPrecision
	}
	return &evalCtx{
		cfg: cfg,
		dec: apd.BaseContext.WithPrecision(cfg.prec),
	}
}
