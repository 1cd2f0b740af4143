// Package query describes deferred queries as immutable chains of stages.
//
// Building a Query never touches data. A Provider receives the finished Plan
// when the query is executed and decides which stages it can translate into
// its native query language; the rest run through Evaluate.
package query

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/narwhalmedia/querykit/pkg/specification"
	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

// Provider is the query source boundary implemented by persistence adapters.
type Provider interface {
	// Execute runs the plan and returns its rows. Rows are produced lazily
	// and carry the element type of the plan's last stage.
	Execute(ctx context.Context, plan Plan) (iter.Seq2[any, error], error)
}

// Entity is the runtime type tag of an entity.
type Entity struct {
	typ reflect.Type
}

// EntityOf returns the entity tag for T.
func EntityOf[T any]() Entity {
	return Entity{typ: reflect.TypeFor[T]()}
}

// Type returns the entity's Go type.
func (e Entity) Type() reflect.Type { return e.typ }

func (e Entity) String() string {
	if e.typ == nil {
		return "<nil>"
	}
	return e.typ.String()
}

// StageKind identifies what a stage does.
type StageKind int

const (
	StageSource StageKind = iota
	StageWhere
	StageSelect
	StageSelectMany
	StageCast
	StageOfType
	StageOrderBy
	StageSkip
	StageTake
)

var stageNames = map[StageKind]string{
	StageSource:     "source",
	StageWhere:      "where",
	StageSelect:     "select",
	StageSelectMany: "select_many",
	StageCast:       "cast",
	StageOfType:     "of_type",
	StageOrderBy:    "order_by",
	StageSkip:       "skip",
	StageTake:       "take",
}

func (k StageKind) String() string {
	if name, ok := stageNames[k]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(k))
}

// SortKey compares two rows for an ordering stage.
type SortKey struct {
	Compare    func(a, b any) int
	Descending bool
}

// Stage is one immutable step of a plan.
type Stage struct {
	Kind   StageKind
	Parent *Stage

	// Entity and SQL describe a source stage. SQL is nil for entity roots.
	Entity Entity
	SQL    sqltext.Fragment

	// Filter is set on where stages.
	Filter specification.Filter

	// Map is set on select and cast stages.
	Map func(any) any

	// Widening marks a cast that only views each row as a wider type, so
	// filters after it still describe the source rows.
	Widening bool

	// Flatten is set on select_many stages.
	Flatten func(any) iter.Seq[any]

	// Accept is set on of_type stages; it reports whether a row has the
	// narrower type and returns it converted.
	Accept func(any) (any, bool)

	// Keys is set on order_by stages, most significant first.
	Keys []SortKey

	// Count is set on skip and take stages.
	Count int
}

// Plan is a stage chain flattened from its source.
type Plan struct {
	Source *Stage
	// Stages are the stages after the source, in application order.
	Stages []*Stage
}

// Entity returns the entity of the plan's source.
func (p Plan) Entity() Entity { return p.Source.Entity }

// Kinds lists the kinds of the plan's stages after the source.
func (p Plan) Kinds() []StageKind {
	kinds := make([]StageKind, len(p.Stages))
	for i, s := range p.Stages {
		kinds[i] = s.Kind
	}
	return kinds
}

func planOf(last *Stage) Plan {
	var stages []*Stage
	s := last
	for ; s.Kind != StageSource; s = s.Parent {
		stages = append(stages, s)
	}
	for i, j := 0, len(stages)-1; i < j; i, j = i+1, j-1 {
		stages[i], stages[j] = stages[j], stages[i]
	}
	return Plan{Source: s, Stages: stages}
}

// Query is a deferred query yielding values of type T.
// Queries are immutable; every composition returns a new Query.
type Query[T any] struct {
	provider Provider
	stage    *Stage
}

// From returns the base data source for entity T.
func From[T any](provider Provider) Query[T] {
	if provider == nil {
		panic("query: nil provider")
	}
	return Query[T]{
		provider: provider,
		stage:    &Stage{Kind: StageSource, Entity: EntityOf[T]()},
	}
}

// FromSQL returns a base data source for entity T defined by raw query text.
// Only providers that understand the text can execute it.
func FromSQL[T any](provider Provider, text sqltext.Fragment) Query[T] {
	q := From[T](provider)
	q.stage.SQL = text
	return q
}

// Provider returns the provider the query executes against.
func (q Query[T]) Provider() Provider { return q.provider }

// Plan returns the query's stages from the source.
func (q Query[T]) Plan() Plan { return planOf(q.stage) }

// as converts a row to T; a nil row becomes the zero value.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

func (q Query[T]) then(s *Stage) *Stage {
	s.Parent = q.stage
	return s
}

// Where filters the query by spec. Filtering by the universal specification
// returns q unchanged.
func (q Query[T]) Where(spec *specification.Specification[T]) Query[T] {
	if spec == nil || spec.IsAll() {
		return q
	}
	return Query[T]{provider: q.provider, stage: q.then(&Stage{Kind: StageWhere, Filter: spec})}
}

// Skip bypasses the first n rows.
func (q Query[T]) Skip(n int) Query[T] {
	if n < 0 {
		n = 0
	}
	return Query[T]{provider: q.provider, stage: q.then(&Stage{Kind: StageSkip, Count: n})}
}

// Take limits the query to at most n rows.
func (q Query[T]) Take(n int) Query[T] {
	if n < 0 {
		n = 0
	}
	return Query[T]{provider: q.provider, stage: q.then(&Stage{Kind: StageTake, Count: n})}
}

// Where is the function form of Query.Where.
func Where[T any](q Query[T], spec *specification.Specification[T]) Query[T] {
	return q.Where(spec)
}

// Select projects each row through fn.
func Select[T, R any](q Query[T], fn func(T) R) Query[R] {
	return Query[R]{provider: q.provider, stage: q.then(&Stage{
		Kind: StageSelect,
		Map:  func(v any) any { return fn(as[T](v)) },
	})}
}

// SelectMany projects each row to a sequence and flattens the result,
// yielding every inner element of the first row before those of the next.
func SelectMany[T, R any](q Query[T], fn func(T) []R) Query[R] {
	return Query[R]{provider: q.provider, stage: q.then(&Stage{
		Kind: StageSelectMany,
		Flatten: func(v any) iter.Seq[any] {
			return func(yield func(any) bool) {
				for _, r := range fn(as[T](v)) {
					if !yield(r) {
						return
					}
				}
			}
		},
	})}
}

// Cast reinterprets the rows of q as T without changing which rows flow.
// via may compute a different view of each row, so providers do not push
// filters through it.
func Cast[T, D any](q Query[D], via func(D) T) Query[T] {
	return Query[T]{provider: q.provider, stage: q.then(&Stage{
		Kind: StageCast,
		Map:  func(v any) any { return via(as[D](v)) },
	})}
}

// Widen views the rows of q as the wider type T. D must be assignable to T;
// it panics otherwise. Providers may push filters through a widening cast.
func Widen[T, D any](q Query[D]) Query[T] {
	via := specification.Widener[D, T]()
	return Query[T]{provider: q.provider, stage: q.then(&Stage{
		Kind:     StageCast,
		Map:      func(v any) any { return via(as[D](v)) },
		Widening: true,
	})}
}

// OfType keeps the rows whose runtime type is D.
func OfType[D, T any](q Query[T]) Query[D] {
	return Query[D]{provider: q.provider, stage: q.then(&Stage{
		Kind: StageOfType,
		Accept: func(v any) (any, bool) {
			d, ok := v.(D)
			return d, ok
		},
	})}
}

// Ordered is a query with an ordering that further keys can refine.
type Ordered[T any] struct {
	Query[T]
}

func orderBy[T, K any](q Query[T], key func(T) K, cmpFn func(a, b K) int, desc bool) Ordered[T] {
	return Ordered[T]{Query[T]{provider: q.provider, stage: q.then(&Stage{
		Kind: StageOrderBy,
		Keys: []SortKey{sortKey(key, cmpFn, desc)},
	})}}
}

func sortKey[T, K any](key func(T) K, cmpFn func(a, b K) int, desc bool) SortKey {
	return SortKey{
		Compare:    func(a, b any) int { return cmpFn(key(as[T](a)), key(as[T](b))) },
		Descending: desc,
	}
}

func thenBy[T any](q Ordered[T], k SortKey) Ordered[T] {
	s := *q.stage
	s.Keys = append(append([]SortKey(nil), q.stage.Keys...), k)
	return Ordered[T]{Query[T]{provider: q.provider, stage: &s}}
}

// OrderBy sorts rows by key in ascending order. The sort is stable.
func OrderBy[T any, K cmp.Ordered](q Query[T], key func(T) K) Ordered[T] {
	return orderBy(q, key, cmp.Compare[K], false)
}

// OrderByDescending sorts rows by key in descending order. The sort is stable.
func OrderByDescending[T any, K cmp.Ordered](q Query[T], key func(T) K) Ordered[T] {
	return orderBy(q, key, cmp.Compare[K], true)
}

// OrderByFunc sorts rows by key using compare.
func OrderByFunc[T, K any](q Query[T], key func(T) K, compare func(a, b K) int) Ordered[T] {
	return orderBy(q, key, compare, false)
}

// ThenBy adds an ascending secondary key.
func ThenBy[T any, K cmp.Ordered](q Ordered[T], key func(T) K) Ordered[T] {
	return thenBy(q, sortKey(key, cmp.Compare[K], false))
}

// ThenByDescending adds a descending secondary key.
func ThenByDescending[T any, K cmp.Ordered](q Ordered[T], key func(T) K) Ordered[T] {
	return thenBy(q, sortKey(key, cmp.Compare[K], true))
}
