// Package pagination slices ordered result sets into numbered pages.
//
// Page lookup is lenient: a page value that is not an integer resolves to the
// first page, and one outside [1, NumPages] resolves to the last page. An empty
// result set still has a single (empty) page.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used by all post listings.
const DefaultPerPage = 10

// Page is one page of items plus the navigation metadata templates need.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Number   int   `json:"page"`
	NumPages int   `json:"num_pages"`
	Count    int64 `json:"count"`
	PerPage  int   `json:"per_page"`
}

// Window describes which slice of the full result set a page covers.
type Window struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
}

// Resolve computes the window for raw (the "page" query value) over count items.
func Resolve(count int64, raw string, perPage int) Window {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := 1
	if count > 0 {
		numPages = int((count + int64(perPage) - 1) / int64(perPage))
	}

	number := 1
	if raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		switch {
		case errors.Is(err, strconv.ErrRange):
			// an integer, just not one that fits
			number = numPages
		case err != nil:
			number = 1
		case n < 1 || n > numPages:
			number = numPages
		default:
			number = n
		}
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * perPage,
		Limit:    perPage,
	}
}

// New builds a page from already-fetched items for w.
func New[T any](items []T, count int64, w Window) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Number: w.Number, NumPages: w.NumPages, Count: count, PerPage: w.Limit}
}

func (p *Page[T]) Len() int { return len(p.Items) }

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

func (p *Page[T]) NextNumber() int { return p.Number + 1 }

func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// PageRange lists every page number, 1-based.
func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
