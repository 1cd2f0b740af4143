// Package strategy composes specifications and projections into reusable
// query units.
//
// A unit filters its source by its preconditions combined with any caller
// restrictions and only then projects the result, so providers can always
// push the filter down.
package strategy

import (
	"github.com/narwhalmedia/querykit/pkg/query"
	"github.com/narwhalmedia/querykit/pkg/specification"
)

// Strategy turns a query over S into a query over R without executing it.
type Strategy[S, R any] interface {
	Apply(source query.Query[S]) query.Query[R]
}

// Projection is the shaping step of a Model.
type Projection[S, R any] func(query.Query[S]) query.Query[R]

// Identity is the projection that returns its source unchanged.
func Identity[S any](q query.Query[S]) query.Query[S] { return q }

// Model is a Strategy built from preconditions, caller restrictions and a
// projection. Models are immutable.
type Model[S, R any] struct {
	preconditions []*specification.Specification[S]
	restrictions  []*specification.Specification[S]
	projection    Projection[S, R]
}

// NewModel defines a unit with the given projection and preconditions.
func NewModel[S, R any](projection Projection[S, R], preconditions ...*specification.Specification[S]) *Model[S, R] {
	if projection == nil {
		panic("strategy: nil projection")
	}
	return &Model[S, R]{
		preconditions: append([]*specification.Specification[S](nil), preconditions...),
		projection:    projection,
	}
}

// NewFilter defines a unit that only filters.
func NewFilter[S any](preconditions ...*specification.Specification[S]) *Model[S, S] {
	return NewModel[S, S](Identity[S], preconditions...)
}

// Restrict returns a copy of m that also applies restrictions. The unit's
// preconditions always stay in place.
func (m *Model[S, R]) Restrict(restrictions ...*specification.Specification[S]) *Model[S, R] {
	out := *m
	out.restrictions = append(append([]*specification.Specification[S](nil), m.restrictions...), restrictions...)
	return &out
}

// Filter returns the conjunction of the preconditions and restrictions.
func (m *Model[S, R]) Filter() *specification.Specification[S] {
	specs := make([]*specification.Specification[S], 0, len(m.preconditions)+len(m.restrictions))
	specs = append(specs, m.preconditions...)
	specs = append(specs, m.restrictions...)
	return specification.AndAll(specs...)
}

// Apply filters source and projects the filtered query.
func (m *Model[S, R]) Apply(source query.Query[S]) query.Query[R] {
	return m.projection(source.Where(m.Filter()))
}

// Func adapts a plain function to a Strategy.
type Func[S, R any] func(query.Query[S]) query.Query[R]

// Apply calls f.
func (f Func[S, R]) Apply(source query.Query[S]) query.Query[R] { return f(source) }

// Run applies s to the base source of S served by provider.
func Run[S, R any](s Strategy[S, R], provider query.Provider) query.Query[R] {
	return s.Apply(query.From[S](provider))
}

// Then chains two strategies so that second consumes the output of first.
func Then[A, B, C any](first Strategy[A, B], second Strategy[B, C]) Strategy[A, C] {
	return Func[A, C](func(source query.Query[A]) query.Query[C] {
		return second.Apply(first.Apply(source))
	})
}

// Nested flattens each outer row into its children and applies inner to
// the flattened rows. Children keep their order within each outer row.
func Nested[O, I, R any](children func(O) []I, inner Strategy[I, R]) Strategy[O, R] {
	return Func[O, R](func(source query.Query[O]) query.Query[R] {
		return inner.Apply(query.SelectMany(source, children))
	})
}

// CastDown runs s over a source of D and keeps only the rows whose runtime
// type is D. D must be assignable to T.
func CastDown[D, T any](s Strategy[T, T]) Strategy[D, D] {
	specification.Widener[D, T]() // panics here when D is not assignable to T
	return Func[D, D](func(source query.Query[D]) query.Query[D] {
		return query.OfType[D](s.Apply(query.Widen[T](source)))
	})
}

// CastSource reinterprets a source of D as S so that s can run against it.
func CastSource[D, S, R any](s Strategy[S, R], via func(D) S) Strategy[D, R] {
	return Func[D, R](func(source query.Query[D]) query.Query[R] {
		return s.Apply(query.Cast(source, via))
	})
}
