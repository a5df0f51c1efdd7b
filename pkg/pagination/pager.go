package pagination

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// ErrNoMorePages is returned by NextPage once HasMore is false
var ErrNoMorePages = errors.New("no more pages")

// Pager walks a paged result set. Results holds the current page only.
type Pager[T any] interface {
	Results() []T
	HasMore() bool
	NextPage(ctx context.Context) error
	Cursor() string
}

// Page is one fetched page
type Page[T any] struct {
	Items   []T
	Cursor  string // passed to the next fetch
	HasMore bool
}

// FetchFunc loads the page following cursor. The first page is fetched with "".
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// CursorPager drives a FetchFunc
type CursorPager[T any] struct {
	fetch FetchFunc[T]

	mu      sync.RWMutex
	results []T
	cursor  string
	hasMore bool
}

// New fetches the first page and returns a pager positioned on it
func New[T any](ctx context.Context, fetch FetchFunc[T]) (*CursorPager[T], error) {
	p := &CursorPager[T]{fetch: fetch}
	page, err := fetch(ctx, "")
	if err != nil {
		return nil, err
	}
	p.set(page)
	return p, nil
}

// FromPage returns a pager positioned on an already fetched first page
func FromPage[T any](first Page[T], fetch FetchFunc[T]) *CursorPager[T] {
	p := &CursorPager[T]{fetch: fetch}
	p.set(first)
	return p
}

func (p *CursorPager[T]) set(page Page[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = page.Items
	p.cursor = page.Cursor
	// a page without a cursor cannot be continued
	p.hasMore = page.HasMore && page.Cursor != ""
}

func (p *CursorPager[T]) Results() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.results
}

func (p *CursorPager[T]) HasMore() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hasMore
}

func (p *CursorPager[T]) Cursor() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cursor
}

// NextPage replaces Results with the following page. On error the pager is unchanged.
func (p *CursorPager[T]) NextPage(ctx context.Context) error {
	p.mu.RLock()
	cursor, more := p.cursor, p.hasMore
	p.mu.RUnlock()

	if !more {
		return ErrNoMorePages
	}
	page, err := p.fetch(ctx, cursor)
	if err != nil {
		return err
	}
	p.set(page)
	return nil
}

// NumberedFetchFunc loads a page by number
type NumberedFetchFunc[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// NewNumbered pages by page number starting at start. The cursor is the next page number.
func NewNumbered[T any](ctx context.Context, start int, fetch NumberedFetchFunc[T]) (*CursorPager[T], error) {
	return New(ctx, func(ctx context.Context, cursor string) (Page[T], error) {
		n := start
		if cursor != "" {
			parsed, err := strconv.Atoi(cursor)
			if err != nil {
				return Page[T]{}, err
			}
			n = parsed
		}
		items, more, err := fetch(ctx, n)
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Items: items, Cursor: strconv.Itoa(n + 1), HasMore: more}, nil
	})
}

type empty[T any] struct{}

// Empty returns a pager with no results and nothing further to fetch
func Empty[T any]() Pager[T] { return empty[T]{} }

func (empty[T]) Results() []T                   { return nil }
func (empty[T]) HasMore() bool                  { return false }
func (empty[T]) NextPage(context.Context) error { return ErrNoMorePages }
func (empty[T]) Cursor() string                 { return "" }

// Collect drains p into a slice, stopping once limit items are gathered. A limit of zero means no limit.
func Collect[T any](ctx context.Context, p Pager[T], limit int) ([]T, error) {
	var out []T
	for {
		out = append(out, p.Results()...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if !p.HasMore() {
			return out, nil
		}
		if err := p.NextPage(ctx); err != nil {
			return out, err
		}
	}
}
