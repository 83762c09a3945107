package plan

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

func isComposite(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

// stringField reads a scalar; absent or null yields def.
func stringField(item object, key, def string) (string, error) {
	v, ok := item[key]
	if !ok || v == nil {
		return def, nil
	}
	if isComposite(v) {
		return "", fmt.Errorf("%s: expected scalar, got %T", key, v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

func intField(item object, key string, def int) (int, error) {
	v, ok := item[key]
	if !ok || v == nil {
		return def, nil
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func listField(item object, key string) ([]string, error) {
	out, err := stringList(item[key])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// stringList accepts a list of scalars or a single string. The result is
// never nil so it encodes as [].
func stringList(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return []string{}, nil
		}
		return []string{x}, nil
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if e == nil {
				continue
			}
			if isComposite(e) {
				return nil, fmt.Errorf("expected list of scalars, got %T element", e)
			}
			s, err := cast.ToStringE(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

// topLevelList is stringList for plan-level fields, where a bad value only
// costs that field.
func topLevelList(raw object, key string, diags *[]Diagnostic) []string {
	out, err := stringList(raw[key])
	if err != nil {
		*diags = append(*diags, Diagnostic{Field: key, Index: -1, Err: err})
		return []string{}
	}
	return out
}

// optionalString returns nil for absent or falsy values.
func optionalString(v interface{}) *string {
	if !truthy(v) || isComposite(v) {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return nil
	}
	return &s
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case []interface{}:
		return len(x) > 0
	case map[string]interface{}:
		return len(x) > 0
	default:
		return true
	}
}
