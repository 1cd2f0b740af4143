package specification

import (
	"fmt"
	"reflect"

	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

// DefaultParameterName is the name given to parameters created by the leaf constructors.
const DefaultParameterName = "x"

// Parameter is the formal parameter of a predicate expression.
// Parameters are compared by identity; two parameters with the same name are distinct.
type Parameter struct {
	name string
	typ  reflect.Type
}

// NewParameter creates a parameter of type T.
func NewParameter[T any](name string) *Parameter {
	return &Parameter{name: name, typ: reflect.TypeFor[T]()}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Type returns the parameter's type tag.
func (p *Parameter) Type() reflect.Type { return p.typ }

func (p *Parameter) String() string {
	return fmt.Sprintf("%s %s", p.name, p.typ)
}

// Node is a node of the predicate AST.
// The set of node kinds is closed: *Const, *Predicate, *And, *Or and *Not.
type Node interface {
	isNode()
}

// Const is the universal "always true" leaf. The only instance is True.
type Const struct {
	name string
}

// True is the universal predicate. It is detected by identity.
var True = &Const{name: "all"}

func (*Const) isNode() {}

// Predicate is an opaque predicate leaf bound to a parameter.
type Predicate struct {
	// Param is the parameter the predicate reads.
	Param *Parameter
	// Name identifies the predicate in diagnostics.
	Name string
	// Symbol is the optional symbolic form a provider may translate.
	Symbol sqltext.Fragment

	// eval holds a func(T) bool where T is Param.Type().
	eval any
}

func (*Predicate) isNode() {}

// Translatable reports whether the leaf carries a symbolic form.
func (p *Predicate) Translatable() bool {
	return !sqltext.IsEmpty(p.Symbol)
}

// And is a logical conjunction.
type And struct {
	Left, Right Node
}

func (*And) isNode() {}

// Or is a logical disjunction.
type Or struct {
	Left, Right Node
}

func (*Or) isNode() {}

// Not is a logical negation.
type Not struct {
	Operand Node
}

func (*Not) isNode() {}

// Expr is an immutable predicate expression over exactly one parameter of type T.
type Expr[T any] struct {
	param *Parameter
	body  Node
}

// Lambda binds body to param. It panics if param is not of type T.
func Lambda[T any](param *Parameter, body Node) *Expr[T] {
	if param == nil || body == nil {
		panic("specification: lambda requires a parameter and a body")
	}
	if want := reflect.TypeFor[T](); param.typ != want {
		panic(fmt.Sprintf("specification: parameter %s is not of type %s", param, want))
	}
	return &Expr[T]{param: param, body: body}
}

// Leaf creates an expression holding a single predicate leaf.
// symbol may be nil when the predicate has no translatable form.
func Leaf[T any](name string, fn func(T) bool, symbol sqltext.Fragment) *Expr[T] {
	if fn == nil {
		panic("specification: nil predicate function")
	}
	param := NewParameter[T](DefaultParameterName)
	return &Expr[T]{
		param: param,
		body:  &Predicate{Param: param, Name: name, Symbol: symbol, eval: fn},
	}
}

// Parameter returns the expression's free parameter.
func (e *Expr[T]) Parameter() *Parameter { return e.param }

// Body returns the root node of the expression.
func (e *Expr[T]) Body() Node { return e.body }

// IsAll reports whether the expression is exactly the universal predicate.
func (e *Expr[T]) IsAll() bool { return e.body == True }

func (e *Expr[T]) String() string {
	return e.param.name + " => " + Format(e.body)
}
