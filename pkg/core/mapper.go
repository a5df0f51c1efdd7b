package core

import (
	"fmt"

	"github.com/saturnines/nexus-source/pkg/transform"
)

// Field maps one output key from a path in the source item
type Field struct {
	Name      string
	Path      string
	Default   any                   // used when the path is missing or null
	Transform transform.Transformer // optional coercion
}

// Mapper pulls a list of items out of a payload and maps each one
type Mapper struct {
	RootPath string
	Fields   []Field
}

// Items returns the array at RootPath. An empty RootPath accepts a root array,
// or falls back to "items" then "data", else the payload itself.
func (m *Mapper) Items(payload any) ([]any, error) {
	if payload == nil {
		return []any{}, nil
	}

	if m.RootPath == "" {
		switch v := payload.(type) {
		case []any:
			return v, nil
		case map[string]any:
			if items, ok := v["items"].([]any); ok {
				return items, nil
			}
			if data, ok := v["data"].([]any); ok {
				return data, nil
			}
			return []any{v}, nil
		default:
			return nil, fmt.Errorf("unexpected response format: %T", payload)
		}
	}

	root, ok := ExtractField(payload, m.RootPath)
	if !ok {
		return nil, fmt.Errorf("root path '%s' not found", m.RootPath)
	}
	switch v := root.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	default:
		return nil, fmt.Errorf("root path '%s' is not an array", m.RootPath)
	}
}

// Map applies Fields to a single item
func (m *Mapper) Map(item any) (map[string]any, error) {
	out := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		value, ok := ExtractField(item, f.Path)
		if !ok || value == nil {
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}
		if f.Transform != nil {
			v, err := f.Transform.Transform(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			value = v
		}
		out[f.Name] = value
	}
	return out, nil
}

// MapAll runs Items then Map over each item
func (m *Mapper) MapAll(payload any) ([]map[string]any, error) {
	items, err := m.Items(payload)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		mapped, err := m.Map(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, mapped)
	}
	return out, nil
}
