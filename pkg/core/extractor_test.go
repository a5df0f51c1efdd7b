package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/nexus-source/pkg/transform"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestExtractField(t *testing.T) {
	data := decode(t, `{
		"data": {
			"videos": {
				"edges": [
					{"node": {"id": "a", "author": {"name": "Ann"}}},
					{"node": {"id": "b", "author": {"name": "Bob"}}}
				],
				"pageInfo": {"endCursor": "c2", "hasNextPage": true}
			}
		}
	}`)

	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{"data.videos.pageInfo.endCursor", "c2", true},
		{"data.videos.pageInfo.hasNextPage", true, true},
		{"data.videos.edges[0].node.id", "a", true},
		{"data.videos.edges[-1].node.author.name", "Bob", true},
		{"data.videos.edges[*].node.id", []any{"a", "b"}, true},
		{"data.videos.edges[5].node.id", nil, false},
		{"data.missing", nil, false},
		{"data.videos.edges.node", nil, false},
		{"data.videos.edges[x]", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, found := ExtractField(data, tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAllAndString(t *testing.T) {
	data := decode(t, `{"tags":["a","b"],"title":"T","n":3}`)

	all, err := ExtractAll(data, "tags")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, all)

	one, err := ExtractAll(data, "title")
	require.NoError(t, err)
	assert.Equal(t, []any{"T"}, one)

	_, err = ExtractAll(data, "nope")
	assert.Error(t, err)

	assert.Equal(t, "T", ExtractString(data, "title"))
	assert.Equal(t, "", ExtractString(data, "n"))
}

func TestMapper(t *testing.T) {
	ints, err := transform.NewRegistry().Create("int", nil)
	require.NoError(t, err)

	m := &Mapper{
		RootPath: "data.videos.edges",
		Fields: []Field{
			{Name: "id", Path: "node.id"},
			{Name: "views", Path: "node.views", Transform: ints},
			{Name: "live", Path: "node.live", Default: false},
		},
	}

	out, err := m.MapAll(decode(t, `{"data":{"videos":{"edges":[
		{"node":{"id":"a","views":"12","live":true}},
		{"node":{"id":"b","views":7,"live":null}}
	]}}}`))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": "a", "views": 12, "live": true},
		{"id": "b", "views": 7, "live": false},
	}, out)

	_, err = m.MapAll(decode(t, `{"data":{}}`))
	assert.Error(t, err)

	bad := &Mapper{Fields: []Field{{Name: "views", Path: "views", Transform: ints}}}
	_, err = bad.MapAll(decode(t, `[{"views":"many"}]`))
	assert.Error(t, err)
}

func TestMapperItemsFallbacks(t *testing.T) {
	m := &Mapper{}

	items, err := m.Items(decode(t, `{"items":[1,2]}`))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = m.Items(decode(t, `{"data":[1]}`))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = m.Items(decode(t, `{"single":true}`))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"single": true}}, items)

	items, err = m.Items(nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
