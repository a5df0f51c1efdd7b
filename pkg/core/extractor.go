package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ExtractField reads a value out of decoded JSON using a path.
// Supported syntax:
//   - nested fields: "author.name"
//   - array indices: "edges[0]", "edges[-1]" (negative counts from the end)
//   - wildcards: "edges[*].node.id" (results are flattened)
func ExtractField(data any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	segments, err := parsePath(path)
	if err != nil {
		return nil, false
	}

	return traversePath(data, segments)
}

// ExtractAll is ExtractField that always yields a slice
func ExtractAll(data any, path string) ([]any, error) {
	result, ok := ExtractField(data, path)
	if !ok {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	if arr, ok := result.([]any); ok {
		return arr, nil
	}
	return []any{result}, nil
}

// ExtractString returns the string at path, or "" when missing or not a string
func ExtractString(data any, path string) string {
	v, ok := ExtractField(data, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

type segmentType int

const (
	fieldSegment  segmentType = iota // map key
	arrayIndex                       // [0], [-1]
	arrayWildcard                    // [*]
)

type pathSegment struct {
	field string
	kind  segmentType
	index int
}

func parsePath(path string) ([]pathSegment, error) {
	var segments []pathSegment

	if strings.HasPrefix(path, "[") {
		path = "." + path
	}

	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}

		idx := strings.Index(part, "[")
		if idx == -1 {
			segments = append(segments, pathSegment{field: part, kind: fieldSegment})
			continue
		}

		if idx > 0 {
			segments = append(segments, pathSegment{field: part[:idx], kind: fieldSegment})
		}

		remaining := part[idx:]
		for len(remaining) > 0 {
			if !strings.HasPrefix(remaining, "[") {
				return nil, fmt.Errorf("invalid syntax after bracket: %s", part)
			}
			end := strings.Index(remaining, "]")
			if end == -1 {
				return nil, fmt.Errorf("unclosed bracket in path: %s", part)
			}

			inner := remaining[1:end]
			if inner == "*" {
				segments = append(segments, pathSegment{kind: arrayWildcard})
			} else {
				n, err := strconv.Atoi(inner)
				if err != nil {
					return nil, fmt.Errorf("invalid array index: %s", inner)
				}
				segments = append(segments, pathSegment{kind: arrayIndex, index: n})
			}
			remaining = remaining[end+1:]
		}
	}

	return segments, nil
}

func traversePath(data any, segments []pathSegment) (any, bool) {
	current := data

	for i, segment := range segments {
		switch segment.kind {
		case fieldSegment:
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			val, ok := m[segment.field]
			if !ok {
				return nil, false
			}
			current = val

		case arrayIndex:
			arr, ok := current.([]any)
			if !ok {
				return nil, false
			}
			index := segment.index
			if index < 0 {
				index = len(arr) + index
			}
			if index < 0 || index >= len(arr) {
				return nil, false
			}
			current = arr[index]

		case arrayWildcard:
			arr, ok := current.([]any)
			if !ok {
				return nil, false
			}
			if i == len(segments)-1 {
				return arr, true
			}

			var results []any
			for _, elem := range arr {
				result, ok := traversePath(elem, segments[i+1:])
				if !ok {
					continue
				}
				if nested, isArr := result.([]any); isArr {
					results = append(results, nested...)
				} else {
					results = append(results, result)
				}
			}
			return results, len(results) > 0
		}
	}

	return current, true
}
