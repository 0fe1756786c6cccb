package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Params are the named arguments of one step.
//
// Values come from the pipeline configuration: numbers arrive as
// json.Number (JSON and CUE documents) or int/float64 (YAML documents).
// The typed getters accept all of these.
type Params map[string]any

// Clone returns a deep copy of p. Nested lists and maps are copied too, so
// a unit cannot reach the configuration through its parameters.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case Params:
		return val.Clone()
	default:
		return v
	}
}

// Check returns an error naming every key not in allowed. A unit calls it
// first so a misspelled parameter fails the step instead of being ignored.
func (p Params) Check(allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	var unexpected []string
	for k := range p {
		if !ok[k] {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) == 0 {
		return nil
	}
	sort.Strings(unexpected)
	return fmt.Errorf("unexpected parameter(s): %s", strings.Join(unexpected, ", "))
}

// Bool returns p[key] as a bool, or def when absent.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: expected bool, got %T", key, v)
	}
	return b, nil
}

// String returns p[key] as a string, or def when absent.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected string, got %T", key, v)
	}
	return s, nil
}

// Int returns p[key] as an int64, or def when absent.
func (p Params) Int(key string, def int64) (int64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", key, err)
	}
	return n, nil
}

// Ints returns p[key] as a list of int64. present is false when the key
// is absent or null.
func (p Params) Ints(key string) (vals []int64, present bool, err error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, true, fmt.Errorf("parameter %q: expected list, got %T", key, v)
	}
	vals = make([]int64, len(list))
	for i, elem := range list {
		n, err := toInt(elem)
		if err != nil {
			return nil, true, fmt.Errorf("parameter %q[%d]: %w", key, i, err)
		}
		vals[i] = n
	}
	return vals, true, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %s", n)
		}
		return i, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		// 2^63 is exactly representable; anything at or above it overflows.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("integer out of range: %v", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
