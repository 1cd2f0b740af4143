package specification

import "fmt"

// AllExpr returns the canonical universal expression for T.
func AllExpr[T any]() *Expr[T] {
	return All[T]().expr
}

// AndExpr combines two expressions with a logical AND.
// The universal expression is the identity: combining with it returns the other
// operand unchanged.
func AndExpr[T any](left, right *Expr[T]) *Expr[T] {
	if left.IsAll() {
		return right
	}
	if right.IsAll() {
		return left
	}
	return &Expr[T]{
		param: left.param,
		body:  &And{Left: left.body, Right: Substitute(right.body, right.param, left.param)},
	}
}

// OrExpr combines two expressions with a logical OR.
// The universal expression absorbs: if either operand is universal, that operand
// is returned.
func OrExpr[T any](left, right *Expr[T]) *Expr[T] {
	if left.IsAll() {
		return left
	}
	if right.IsAll() {
		return right
	}
	return &Expr[T]{
		param: left.param,
		body:  &Or{Left: left.body, Right: Substitute(right.body, right.param, left.param)},
	}
}

// NotExpr negates an expression. Double negation is kept as is.
func NotExpr[T any](e *Expr[T]) *Expr[T] {
	return &Expr[T]{param: e.param, body: &Not{Operand: e.body}}
}

// AndAllExpr folds exprs with AND, starting from the universal expression.
// An empty sequence yields the universal expression. Nil entries are skipped.
func AndAllExpr[T any](exprs ...*Expr[T]) *Expr[T] {
	acc := AllExpr[T]()
	for _, e := range exprs {
		if e == nil {
			continue
		}
		acc = AndExpr(acc, e)
	}
	return acc
}

// OrAnyExpr folds exprs with OR.
// An empty sequence yields the universal expression, not "match nothing": an
// absent list of alternatives leaves the query unrestricted. Nil entries are skipped.
func OrAnyExpr[T any](exprs ...*Expr[T]) *Expr[T] {
	var acc *Expr[T]
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if acc == nil {
			acc = e
			continue
		}
		acc = OrExpr(acc, e)
	}
	if acc == nil {
		return AllExpr[T]()
	}
	return acc
}

// Compile turns an expression into an evaluator.
// AND and OR evaluate left to right and short-circuit.
func Compile[T any](e *Expr[T]) func(T) bool {
	return compileNode[T](e.body, e.param)
}

func compileNode[T any](n Node, param *Parameter) func(T) bool {
	switch n := n.(type) {
	case *Const:
		return func(T) bool { return true }
	case *Predicate:
		if n.Param != param {
			panic(fmt.Sprintf("specification: predicate %q reads unbound parameter %s", n.Name, n.Param))
		}
		fn, ok := n.eval.(func(T) bool)
		if !ok {
			panic(fmt.Sprintf("specification: predicate %q does not accept %s", n.Name, param.typ))
		}
		return fn
	case *And:
		left, right := compileNode[T](n.Left, param), compileNode[T](n.Right, param)
		return func(v T) bool { return left(v) && right(v) }
	case *Or:
		left, right := compileNode[T](n.Left, param), compileNode[T](n.Right, param)
		return func(v T) bool { return left(v) || right(v) }
	case *Not:
		operand := compileNode[T](n.Operand, param)
		return func(v T) bool { return !operand(v) }
	default:
		panic(fmt.Sprintf("specification: unknown node %T", n))
	}
}
