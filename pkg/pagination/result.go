package pagination

import (
	"context"
	"fmt"
	"math"

	"github.com/narwhalmedia/querykit/pkg/query"
)

// PagedResult is a read-only page of items with its metadata.
type PagedResult[T any] struct {
	PageInfo
	items []T
}

// NewPagedResult wraps items as the page described by info.
func NewPagedResult[T any](info PageInfo, items []T) *PagedResult[T] {
	return &PagedResult[T]{PageInfo: info, items: append([]T(nil), items...)}
}

// Items returns a copy of the page's items in order.
func (r *PagedResult[T]) Items() []T { return append([]T(nil), r.items...) }

// Len is the number of items on the page.
func (r *PagedResult[T]) Len() int { return len(r.items) }

// At returns the i-th item on the page.
func (r *PagedResult[T]) At(i int) T { return r.items[i] }

// LastItemOnPage is the 1-based ordinal of the last item returned.
func (r *PagedResult[T]) LastItemOnPage() int64 {
	return LastItemOnPage(r.FirstItemOnPage(), len(r.items), r.TotalCount)
}

// Paginate counts q and fetches one page of it.
func Paginate[T any](ctx context.Context, q query.Query[T], pageNumber int64, pageSize int32) (*PagedResult[T], error) {
	if err := validate(pageNumber, pageSize); err != nil {
		return nil, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	info, err := NewPageInfo(pageNumber, pageSize, total)
	if err != nil {
		return nil, err
	}
	if !info.IsValidPage() {
		return NewPagedResult[T](info, nil), nil
	}

	offset := info.Offset()
	if offset > math.MaxInt {
		return NewPagedResult[T](info, nil), nil
	}
	items, err := q.Skip(int(offset)).Take(int(pageSize)).ToSlice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching page %d: %w", pageNumber, err)
	}
	return NewPagedResult(info, items), nil
}
