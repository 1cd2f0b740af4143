package query

import (
	"fmt"
	"iter"
	"slices"

	"github.com/narwhalmedia/querykit/pkg/errors"
)

// Rows adapts a slice to the row sequence consumed by Evaluate.
func Rows[T any](items []T) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Evaluate applies stages to rows in order. It is the reference interpreter
// providers use for every stage they do not translate. Errors from rows stop
// the sequence after being yielded.
func Evaluate(rows iter.Seq2[any, error], stages []*Stage) iter.Seq2[any, error] {
	for _, s := range stages {
		rows = apply(rows, s)
	}
	return rows
}

func apply(src iter.Seq2[any, error], s *Stage) iter.Seq2[any, error] {
	switch s.Kind {
	case StageWhere:
		return func(yield func(any, error) bool) {
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				if s.Filter.Match(v) && !yield(v, nil) {
					return
				}
			}
		}
	case StageSelect, StageCast:
		return func(yield func(any, error) bool) {
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(s.Map(v), nil) {
					return
				}
			}
		}
	case StageSelectMany:
		return func(yield func(any, error) bool) {
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				for inner := range s.Flatten(v) {
					if !yield(inner, nil) {
						return
					}
				}
			}
		}
	case StageOfType:
		return func(yield func(any, error) bool) {
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				if d, ok := s.Accept(v); ok && !yield(d, nil) {
					return
				}
			}
		}
	case StageOrderBy:
		return func(yield func(any, error) bool) {
			var buffered []any
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				buffered = append(buffered, v)
			}
			slices.SortStableFunc(buffered, func(a, b any) int {
				for _, k := range s.Keys {
					c := k.Compare(a, b)
					if k.Descending {
						c = -c
					}
					if c != 0 {
						return c
					}
				}
				return 0
			})
			for _, v := range buffered {
				if !yield(v, nil) {
					return
				}
			}
		}
	case StageSkip:
		return func(yield func(any, error) bool) {
			skipped := 0
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				if skipped < s.Count {
					skipped++
					continue
				}
				if !yield(v, nil) {
					return
				}
			}
		}
	case StageTake:
		return func(yield func(any, error) bool) {
			if s.Count == 0 {
				return
			}
			taken := 0
			for v, err := range src {
				if err != nil {
					yield(nil, err)
					return
				}
				taken++
				if !yield(v, nil) || taken >= s.Count {
					return
				}
			}
		}
	default:
		return func(yield func(any, error) bool) {
			yield(nil, errors.InvalidArgument(fmt.Sprintf("query: cannot evaluate %s stage", s.Kind)))
		}
	}
}
