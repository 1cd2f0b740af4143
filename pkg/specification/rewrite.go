package specification

import (
	"fmt"
	"strings"
)

// Substitute returns n with every leaf bound to from rebound to to.
// Subtrees that contain no such leaf are returned unchanged, so the result
// shares structure with n. It panics if the parameters have different types.
func Substitute(n Node, from, to *Parameter) Node {
	if from == to {
		return n
	}
	if from.typ != to.typ {
		panic(fmt.Sprintf("specification: cannot substitute %s with %s", from, to))
	}
	return substitute(n, from, to)
}

func substitute(n Node, from, to *Parameter) Node {
	switch n := n.(type) {
	case *Const:
		return n
	case *Predicate:
		if n.Param != from {
			return n
		}
		rebound := *n
		rebound.Param = to
		return &rebound
	case *And:
		left, right := substitute(n.Left, from, to), substitute(n.Right, from, to)
		if left == n.Left && right == n.Right {
			return n
		}
		return &And{Left: left, Right: right}
	case *Or:
		left, right := substitute(n.Left, from, to), substitute(n.Right, from, to)
		if left == n.Left && right == n.Right {
			return n
		}
		return &Or{Left: left, Right: right}
	case *Not:
		operand := substitute(n.Operand, from, to)
		if operand == n.Operand {
			return n
		}
		return &Not{Operand: operand}
	default:
		panic(fmt.Sprintf("specification: unknown node %T", n))
	}
}

// Walk calls fn for n and each of its descendants in depth-first order.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	switch n := n.(type) {
	case *And:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Or:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Not:
		Walk(n.Operand, fn)
	}
}

// Format renders n for diagnostics.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Const:
		b.WriteString(n.name)
	case *Predicate:
		if n.Name == "" {
			b.WriteString("<predicate>")
		} else {
			b.WriteString(n.Name)
		}
		b.WriteString("(")
		b.WriteString(n.Param.name)
		b.WriteString(")")
	case *And:
		b.WriteString("(")
		format(b, n.Left)
		b.WriteString(" AND ")
		format(b, n.Right)
		b.WriteString(")")
	case *Or:
		b.WriteString("(")
		format(b, n.Left)
		b.WriteString(" OR ")
		format(b, n.Right)
		b.WriteString(")")
	case *Not:
		b.WriteString("NOT ")
		format(b, n.Operand)
	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}
