package specification

import (
	"fmt"
	"reflect"
)

// Widener returns the conversion from D to T. D must be assignable to T,
// typically a concrete type implementing the interface T. It panics otherwise.
func Widener[D, T any]() func(D) T {
	dt, tt := reflect.TypeFor[D](), reflect.TypeFor[T]()
	if dt == tt {
		return func(d D) T {
			t, _ := any(d).(T)
			return t
		}
	}
	if !dt.AssignableTo(tt) {
		panic(fmt.Sprintf("specification: %s is not assignable to %s", dt, tt))
	}
	return func(d D) T {
		var t T
		reflect.ValueOf(&t).Elem().Set(reflect.ValueOf(&d).Elem())
		return t
	}
}

// CastDown re-targets a specification written for T to the derived type D.
// D must be assignable to T; the check happens here, once, and panics on failure.
func CastDown[D, T any](s *Specification[T]) *Specification[D] {
	return CastDownBy(s, Widener[D, T]())
}

// CastDownBy re-targets a specification written for T to D using via to reach
// the T inside each D, for example an embedded struct.
//
// The tree shape and every symbolic form are preserved; only the parameter's
// type tag changes, so SQL symbols still name T's columns. via should expose
// fields of the same row when the result is pushed to a database. The
// universal specification maps to All[D].
func CastDownBy[D, T any](s *Specification[T], via func(D) T) *Specification[D] {
	if s.IsAll() {
		return All[D]()
	}
	from := s.expr.param
	to := NewParameter[D](from.name)
	return New(&Expr[D]{param: to, body: castNode[D, T](s.expr.body, from, to, via)})
}

func castNode[D, T any](n Node, from, to *Parameter, via func(D) T) Node {
	switch n := n.(type) {
	case *Const:
		return n
	case *Predicate:
		if n.Param != from {
			panic(fmt.Sprintf("specification: predicate %q reads unbound parameter %s", n.Name, n.Param))
		}
		fn, ok := n.eval.(func(T) bool)
		if !ok {
			panic(fmt.Sprintf("specification: predicate %q does not accept %s", n.Name, from.typ))
		}
		return &Predicate{
			Param:  to,
			Name:   n.Name,
			Symbol: n.Symbol,
			eval:   func(d D) bool { return fn(via(d)) },
		}
	case *And:
		return &And{Left: castNode(n.Left, from, to, via), Right: castNode(n.Right, from, to, via)}
	case *Or:
		return &Or{Left: castNode(n.Left, from, to, via), Right: castNode(n.Right, from, to, via)}
	case *Not:
		return &Not{Operand: castNode(n.Operand, from, to, via)}
	default:
		panic(fmt.Sprintf("specification: unknown node %T", n))
	}
}
