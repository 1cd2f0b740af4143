// Package pagination computes page metadata and fetches pages of deferred
// queries.
package pagination

import (
	"math"

	"github.com/narwhalmedia/querykit/pkg/errors"
)

// PageCount is the number of pages needed for total items.
func PageCount(pageSize int32, total int64) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return (total + size - 1) / size
}

// PageExists reports whether pageNumber falls within the page count.
func PageExists(pageNumber int64, pageSize int32, total int64) bool {
	return pageNumber >= 1 && pageNumber <= PageCount(pageSize, total)
}

// FirstItemOnPage is the 1-based ordinal of the first item on the page, or 0
// when there are no pages. It saturates at math.MaxInt64.
func FirstItemOnPage(pageNumber int64, pageSize int32, total int64) int64 {
	if PageCount(pageSize, total) == 0 {
		return 0
	}
	offset := itemsBefore(pageNumber, pageSize)
	if offset == math.MaxInt64 {
		return offset
	}
	return offset + 1
}

// itemsBefore is the number of items on the pages before pageNumber,
// saturating at math.MaxInt64.
func itemsBefore(pageNumber int64, pageSize int32) int64 {
	if pageNumber <= 1 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	if pageNumber-1 > math.MaxInt64/size {
		return math.MaxInt64
	}
	return (pageNumber - 1) * size
}

// LastItemOnPage is the 1-based ordinal of the last item actually returned on
// a page, or 0 when the page returned nothing.
func LastItemOnPage(firstItem int64, returned int, total int64) int64 {
	if returned == 0 {
		return 0
	}
	return min(firstItem+int64(returned)-1, total)
}

// PageInfo describes one page of a larger result set.
type PageInfo struct {
	PageNumber int64
	PageSize   int32
	TotalCount int64
}

// NewPageInfo validates the paging input before any arithmetic is done.
func NewPageInfo(pageNumber int64, pageSize int32, total int64) (PageInfo, error) {
	if err := validate(pageNumber, pageSize); err != nil {
		return PageInfo{}, err
	}
	if total < 0 {
		return PageInfo{}, errors.InvalidArgument("total_count must not be negative")
	}
	return PageInfo{PageNumber: pageNumber, PageSize: pageSize, TotalCount: total}, nil
}

func validate(pageNumber int64, pageSize int32) error {
	if pageNumber < 1 {
		return errors.OutOfRange("page_number", pageNumber)
	}
	if pageSize < 1 {
		return errors.OutOfRange("page_size", pageSize)
	}
	return nil
}

// PageCount is the number of pages for the total count.
func (p PageInfo) PageCount() int64 { return PageCount(p.PageSize, p.TotalCount) }

// IsValidPage reports whether the page lies within the result set.
func (p PageInfo) IsValidPage() bool { return PageExists(p.PageNumber, p.PageSize, p.TotalCount) }

// HasPrevious reports whether a page precedes this one.
func (p PageInfo) HasPrevious() bool { return p.PageNumber > 1 }

// HasNext reports whether a page follows this one.
func (p PageInfo) HasNext() bool { return p.PageNumber < p.PageCount() }

// IsFirstPage reports whether this is page 1.
func (p PageInfo) IsFirstPage() bool { return p.PageNumber == 1 }

// IsLastPage reports whether this is the final page.
func (p PageInfo) IsLastPage() bool { return p.PageNumber == p.PageCount() }

// FirstItemOnPage is the 1-based ordinal of the page's first item.
func (p PageInfo) FirstItemOnPage() int64 {
	return FirstItemOnPage(p.PageNumber, p.PageSize, p.TotalCount)
}

// Offset is the number of items preceding the page, saturating at
// math.MaxInt64.
func (p PageInfo) Offset() int64 { return itemsBefore(p.PageNumber, p.PageSize) }
