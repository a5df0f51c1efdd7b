package graphql

import (
	"context"

	"github.com/saturnines/nexus-source/pkg/core"
	"github.com/saturnines/nexus-source/pkg/errors"
	"github.com/saturnines/nexus-source/pkg/pagination"
)

// Connection describes where a paged persisted query keeps its items and page info.
// Paths use core.ExtractField syntax and are read from the response data.
type Connection[T any] struct {
	Query          PersistedQuery
	CursorVariable string // variable the end cursor is passed back in; defaults to "cursor"

	ItemsPath       string
	EndCursorPath   string
	HasNextPagePath string

	MapItem func(item any) (T, bool)
}

// NewCursorPager fetches the first page of conn and returns a pager over it
func NewCursorPager[T any](ctx context.Context, c *Client, conn Connection[T]) (*pagination.CursorPager[T], error) {
	if conn.CursorVariable == "" {
		conn.CursorVariable = "cursor"
	}
	return pagination.New(ctx, func(ctx context.Context, cursor string) (pagination.Page[T], error) {
		q := conn.Query
		vars := make(map[string]any, len(q.Variables)+1)
		for k, v := range q.Variables {
			vars[k] = v
		}
		if cursor != "" {
			vars[conn.CursorVariable] = cursor
		}
		q.Variables = vars

		data, err := c.Persisted(ctx, q)
		if err != nil {
			return pagination.Page[T]{}, err
		}
		return conn.page(data)
	})
}

func (conn Connection[T]) page(data any) (pagination.Page[T], error) {
	var page pagination.Page[T]

	if raw, ok := core.ExtractField(data, conn.ItemsPath); ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			return page, errors.GraphQL("expected a list at " + conn.ItemsPath)
		}
		for _, item := range items {
			if conn.MapItem == nil {
				if v, ok := item.(T); ok {
					page.Items = append(page.Items, v)
				}
				continue
			}
			if v, ok := conn.MapItem(item); ok {
				page.Items = append(page.Items, v)
			}
		}
	}

	page.Cursor = core.ExtractString(data, conn.EndCursorPath)
	if more, ok := core.ExtractField(data, conn.HasNextPagePath); ok {
		page.HasMore, _ = more.(bool)
	}
	return page, nil
}
