package safeexpr

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression. The kinds
// below are the only node kinds the parser can produce; there is no
// representation for assignment, attribute access, subscripting, string
// literals, or anything else outside the arithmetic whitelist.
type node struct {
	kind nodeKind

	// name is the literal text for nodeNum and the identifier for nodeName
	// and nodeCall.
	name string

	left  *node
	right *node

	// args is the ordered argument list for nodeCall.
	args []*node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // numeric literal, text in name
	nodeName // named constant reference
	nodeCall // call to a whitelisted function

	nodeNeg // negate left
	nodePos // unary plus, evaluate left

	nodeAdd      // left + right
	nodeSub      // left - right
	nodeMul      // left * right
	nodeDiv      // left / right
	nodeFloorDiv // left // right
	nodeMod      // left % right
	nodePow      // left ** right
)

func (k nodeKind) String() string {
	switch k {
	case nodeNone:
		return "None"
	case nodeNum:
		return "Num"
	case nodeName:
		return "Name"
	case nodeCall:
		return "Call"
	case nodeNeg:
		return "Neg"
	case nodePos:
		return "Pos"
	case nodeAdd:
		return "Add"
	case nodeSub:
		return "Sub"
	case nodeMul:
		return "Mul"
	case nodeDiv:
		return "Div"
	case nodeFloorDiv:
		return "FloorDiv"
	case nodeMod:
		return "Mod"
	case nodePow:
		return "Pow"
	default:
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// opText returns the operator spelling for unary and binary node kinds.
func (k nodeKind) opText() string {
	switch k {
	case nodeNeg, nodeSub:
		return "-"
	case nodePos, nodeAdd:
		return "+"
	case nodeMul:
		return "*"
	case nodeDiv:
		return "/"
	case nodeFloorDiv:
		return "//"
	case nodeMod:
		return "%"
	case nodePow:
		return "**"
	default:
		return "?"
	}
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

func (n *node) fmt(b *strings.Builder) {
	switch n.kind {
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		b.WriteByte('(')
		for i, a := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.fmt(b)
		}
		b.WriteByte(')')
	case nodeNeg, nodePos:
		b.WriteByte('(')
		b.WriteString(n.kind.opText())
		n.left.fmt(b)
		b.WriteByte(')')
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeFloorDiv, nodeMod, nodePow:
		b.WriteByte('(')
		n.left.fmt(b)
		b.WriteByte(' ')
		b.WriteString(n.kind.opText())
		b.WriteByte(' ')
		n.right.fmt(b)
		b.WriteByte(')')
	default:
		panic("safeexpr: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}
