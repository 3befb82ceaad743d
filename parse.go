package safeexpr

import (
	"io"
	"strings"
)

// Expr    = Term
// Term    = Unary | Term ('+'|'-'|'*'|'/'|'//'|'%'|'**') Term
// Unary   = num | name | Call | '(' Expr ')' | ('+'|'-') Unary
// Call    = name '(' [ Expr { ',' Expr } ] ')'
//
// The grammar is the whole language. There are no statements, no
// assignment, and the callee of a call is always a bare identifier.

// Expr is a parsed expression that can be evaluated with a context. An Expr
// is immutable once built and safe for concurrent use.
type Expr struct {
	// n is the root node of the expression.
	n *node
}

// Parse parses an expression from a rune scanner. The input must contain
// exactly one expression; anything trailing it is an error.
func Parse(src io.RuneScanner) (*Expr, error) {
	scan := lex(src)
	n, err := parseterm(scan, exprprec)
	if err != nil {
		return nil, err
	}
	tok := scan.must()
	if n == nil {
		switch tok.kind {
		case tokenClose:
			return nil, &BracketError{Col: tok.pos, Right: tok.text}
		default:
			return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
		}
	}
	switch tok.kind {
	case tokenEOF:
		return &Expr{n: n}, nil
	case tokenClose:
		return nil, &BracketError{Col: tok.pos, Right: tok.text}
	case tokenSep:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("safeexpr: parse ended on " + tok.String())
	}
}

// ParseString parses an expression from a string.
func ParseString(src string) (*Expr, error) {
	return Parse(strings.NewReader(src))
}

// String creates a string representation of the parsed expression, with
// parentheses grouping each term.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b)
	return b.String()
}

// parseterm parses a single term. If there is no error, then parseterm
// pushes the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an
// error in contexts where empty subexpressions are illegal.
func parseterm(scan *lexer, until operator) (*node, error) {
	n, err := parselhs(scan, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenNum, tokenIdent:
			// The grammar has no adjacency product: "2 pi" is not "2*pi".
			return nil, &UnsupportedError{Col: tok.pos, Construct: "implicit multiplication"}
		case tokenOpen:
			// A parenthesis directly after a term would be a call of a
			// computed callee, which the grammar refuses.
			return nil, &CallError{Col: tok.pos}
		case tokenClose, tokenSep, tokenEOF:
			// End of this subexpression; the caller decides whether the
			// token is legal where it stands.
			scan.push(tok)
			return n, nil
		default:
			panic("safeexpr: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary
// and any encountered token must be valid as the start of a subexpression.
func parselhs(scan *lexer, until operator) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		return &node{kind: nodeNum, name: tok.text}, nil
	case tokenIdent:
		nx, err := scan.next()
		if err != nil {
			return nil, err
		}
		if nx.kind != tokenOpen {
			scan.push(nx)
			return &node{kind: nodeName, name: tok.text}, nil
		}
		args, err := parseargs(scan, nx)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeCall, name: tok.text, args: args}, nil
	case tokenOp:
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// x**-y parses as x**(-y). Just use the enclosing operator's
			// precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return &node{kind: prec.op, left: rhs}, nil
	case tokenOpen:
		rhs, err := parseterm(scan, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
		case tokenSep:
			return nil, &SeparatorError{Col: end.pos, Sep: end.text}
		default:
			return nil, &BracketError{Col: end.pos, Left: tok.text, Right: ""}
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return rhs, nil
	case tokenClose:
		// Might be the end of an empty argument list; let the caller
		// decide what to do.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		scan.push(tok)
		return nil, nil
	default:
		panic("safeexpr: unknown token: " + tok.String())
	}
}

// parseargs parses a parenthesized, comma-separated argument list. The open
// parenthesis is already consumed; open is its token, used for errors.
func parseargs(scan *lexer, open lexToken) ([]*node, error) {
	var args []*node
	for {
		rhs, err := parseterm(scan, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			if rhs == nil {
				// f() is grammatical; f(a,) is not.
				if len(args) != 0 {
					return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, nil
			}
			return append(args, rhs), nil
		case tokenSep:
			if rhs == nil {
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			args = append(args, rhs)
		case tokenEOF:
			return nil, &BracketError{Col: end.pos, Left: open.text, Right: ""}
		default:
			panic("safeexpr: argument list ended on non-end token " + end.String())
		}
	}
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such
// binary operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*":
		return operator{5, false, nodeMul}
	case "/":
		return operator{5, false, nodeDiv}
	case "//":
		return operator{5, false, nodeFloorDiv}
	case "%":
		return operator{5, false, nodeMod}
	case "**":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodePos}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
