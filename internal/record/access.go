package record

import "fmt"

// Accessors used by pipeline units to navigate decoded tally records.
// Each returns an error naming the missing or ill-typed field so a unit can
// surface it as a step failure.

// Object returns obj[key] as an Object.
func (obj Object) Object(key string) (Object, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	o, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("field %q: expected object, got %s", key, TypeName(v))
	}
	return o, nil
}

// Array returns obj[key] as an Array.
func (obj Object) Array(key string) (Array, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	a, ok := v.(Array)
	if !ok {
		return nil, fmt.Errorf("field %q: expected array, got %s", key, TypeName(v))
	}
	return a, nil
}

// Int returns obj[key] as an int64.
func (obj Object) Int(key string) (int64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("field %q: expected int, got %s", key, TypeName(v))
	}
	return int64(n), nil
}

// IntOr returns obj[key] as an int64, or def when the field is absent.
func (obj Object) IntOr(key string, def int64) (int64, error) {
	if _, ok := obj[key]; !ok {
		return def, nil
	}
	return obj.Int(key)
}

// String returns obj[key] as a string.
func (obj Object) String(key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %s", key, TypeName(v))
	}
	return string(s), nil
}

// StringOr returns obj[key] as a string, or def when the field is absent.
func (obj Object) StringOr(key, def string) (string, error) {
	if _, ok := obj[key]; !ok {
		return def, nil
	}
	return obj.String(key)
}

// Objects returns every element of arr as an Object.
func (arr Array) Objects() ([]Object, error) {
	out := make([]Object, len(arr))
	for i, v := range arr {
		o, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("element %d: expected object, got %s", i, TypeName(v))
		}
		out[i] = o
	}
	return out, nil
}

// TypeName returns the JSON type name of v.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
