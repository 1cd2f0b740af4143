package query

import (
	"context"
	"iter"

	"github.com/narwhalmedia/querykit/pkg/errors"
)

// Counter is implemented by providers that can count a plan's rows without
// materializing them.
type Counter interface {
	// Count reports the number of rows the plan yields. ok is false when
	// the provider cannot count this plan natively.
	Count(ctx context.Context, plan Plan) (n int64, ok bool, err error)
}

// Seq executes the query and returns its rows. The sequence stops with
// ctx.Err() once ctx is done.
func (q Query[T]) Seq(ctx context.Context) (iter.Seq2[T, error], error) {
	rows, err := q.provider.Execute(ctx, q.Plan())
	if err != nil {
		return nil, err
	}
	return func(yield func(T, error) bool) {
		var zero T
		for v, err := range rows {
			if err != nil {
				yield(zero, err)
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(zero, ctxErr)
				return
			}
			if !yield(as[T](v), nil) {
				return
			}
		}
	}, nil
}

// ToSlice executes the query and collects every row.
func (q Query[T]) ToSlice(ctx context.Context) ([]T, error) {
	seq, err := q.Seq(ctx)
	if err != nil {
		return nil, err
	}
	items := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// Count reports how many rows the query yields.
func (q Query[T]) Count(ctx context.Context) (int64, error) {
	if c, ok := q.provider.(Counter); ok {
		n, counted, err := c.Count(ctx, q.Plan())
		if err != nil {
			return 0, err
		}
		if counted {
			return n, nil
		}
	}
	seq, err := q.Seq(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, err := range seq {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// Any reports whether the query yields at least one row.
func (q Query[T]) Any(ctx context.Context) (bool, error) {
	_, found, err := q.Take(1).first(ctx)
	return found, err
}

func (q Query[T]) first(ctx context.Context) (T, bool, error) {
	var zero T
	seq, err := q.Seq(ctx)
	if err != nil {
		return zero, false, err
	}
	for v, err := range seq {
		if err != nil {
			return zero, false, err
		}
		return v, true, nil
	}
	return zero, false, nil
}

// First returns the first row, or a not found error when there is none.
func (q Query[T]) First(ctx context.Context) (T, error) {
	v, found, err := q.Take(1).first(ctx)
	if err != nil {
		return v, err
	}
	if !found {
		return v, errors.NoElements()
	}
	return v, nil
}

// FirstOrDefault returns the first row, or the zero value when there is none.
func (q Query[T]) FirstOrDefault(ctx context.Context) (T, error) {
	v, _, err := q.Take(1).first(ctx)
	return v, err
}

func (q Query[T]) single(ctx context.Context) (T, bool, error) {
	var zero T
	items, err := q.Take(2).ToSlice(ctx)
	if err != nil {
		return zero, false, err
	}
	switch len(items) {
	case 0:
		return zero, false, nil
	case 1:
		return items[0], true, nil
	default:
		return zero, false, errors.MoreThanOneElement()
	}
}

// Single returns the only row. It fails when the query yields no rows or
// more than one.
func (q Query[T]) Single(ctx context.Context) (T, error) {
	v, found, err := q.single(ctx)
	if err != nil {
		return v, err
	}
	if !found {
		return v, errors.NoElements()
	}
	return v, nil
}

// SingleOrDefault returns the only row, or the zero value when there is
// none. It fails when the query yields more than one row.
func (q Query[T]) SingleOrDefault(ctx context.Context) (T, error) {
	v, _, err := q.single(ctx)
	return v, err
}
