// Package specification implements reusable business rules as predicate
// expressions that can be combined, re-targeted to derived types, evaluated in
// memory or translated by a query provider.
package specification

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

// Filter is the type-erased view of a specification used by query providers.
type Filter interface {
	// Parameter returns the free parameter of the expression.
	Parameter() *Parameter
	// Body returns the root of the predicate AST.
	Body() Node
	// Match evaluates the predicate against a candidate of the parameter's type.
	// Candidates of any other type do not match.
	Match(candidate any) bool
}

// Specification is an immutable, combinable predicate over T.
// It is safe for concurrent use.
type Specification[T any] struct {
	expr *Expr[T]

	// compiled is derived from expr on first evaluation. Concurrent first
	// evaluations may each compile; any of the results is valid.
	compiled atomic.Pointer[func(T) bool]
}

var universals sync.Map // reflect.Type -> *Specification[T]

// All returns the universal specification for T. Every call returns the same instance.
func All[T any]() *Specification[T] {
	key := reflect.TypeFor[T]()
	if s, ok := universals.Load(key); ok {
		return s.(*Specification[T])
	}
	s := &Specification[T]{expr: &Expr[T]{param: NewParameter[T](DefaultParameterName), body: True}}
	actual, _ := universals.LoadOrStore(key, s)
	return actual.(*Specification[T])
}

// New wraps an expression.
func New[T any](expr *Expr[T]) *Specification[T] {
	if expr == nil {
		panic("specification: nil expression")
	}
	return &Specification[T]{expr: expr}
}

// Where creates a specification from a predicate function with no symbolic form.
// Providers that cannot translate it evaluate it in memory.
func Where[T any](name string, fn func(T) bool) *Specification[T] {
	return New(Leaf(name, fn, nil))
}

// WhereSQL creates a specification from a predicate function and the equivalent
// query text for providers that translate filters.
func WhereSQL[T any](name string, fn func(T) bool, symbol sqltext.Fragment) *Specification[T] {
	return New(Leaf(name, fn, symbol))
}

// Expr returns the predicate AST.
func (s *Specification[T]) Expr() *Expr[T] { return s.expr }

// Parameter returns the free parameter of the AST.
func (s *Specification[T]) Parameter() *Parameter { return s.expr.param }

// Body returns the root node of the AST.
func (s *Specification[T]) Body() Node { return s.expr.body }

// IsAll reports whether s is exactly the universal predicate.
func (s *Specification[T]) IsAll() bool { return s.expr.IsAll() }

// And returns a specification satisfied when both s and other are.
func (s *Specification[T]) And(other *Specification[T]) *Specification[T] {
	if s.IsAll() {
		return other
	}
	if other.IsAll() {
		return s
	}
	return New(AndExpr(s.expr, other.expr))
}

// Or returns a specification satisfied when either s or other is.
func (s *Specification[T]) Or(other *Specification[T]) *Specification[T] {
	if s.IsAll() {
		return s
	}
	if other.IsAll() {
		return other
	}
	return New(OrExpr(s.expr, other.expr))
}

// Not returns the negation of s.
func (s *Specification[T]) Not() *Specification[T] {
	return New(NotExpr(s.expr))
}

// IsSatisfiedBy evaluates the specification against candidate.
func (s *Specification[T]) IsSatisfiedBy(candidate T) bool {
	fn := s.compiled.Load()
	if fn == nil {
		compiled := Compile(s.expr)
		s.compiled.Store(&compiled)
		fn = &compiled
	}
	return (*fn)(candidate)
}

// Match implements Filter.
func (s *Specification[T]) Match(candidate any) bool {
	v, ok := candidate.(T)
	if !ok {
		return false
	}
	return s.IsSatisfiedBy(v)
}

func (s *Specification[T]) String() string {
	return s.expr.String()
}

// AndAll combines specs with AND. An empty list yields All.
func AndAll[T any](specs ...*Specification[T]) *Specification[T] {
	acc := All[T]()
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		acc = acc.And(spec)
	}
	return acc
}

// OrAny combines specs with OR. An empty list yields All, so an omitted set of
// alternatives does not restrict anything.
func OrAny[T any](specs ...*Specification[T]) *Specification[T] {
	var acc *Specification[T]
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		if acc == nil {
			acc = spec
			continue
		}
		acc = acc.Or(spec)
	}
	if acc == nil {
		return All[T]()
	}
	return acc
}
