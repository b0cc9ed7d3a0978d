package openalex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Doc is a loosely typed upstream JSON object. Any key may be absent and
// any nested level may be null or of an unexpected type; the accessors
// below walk a key path step by step and return the supplied default as
// soon as a step cannot be taken.
type Doc map[string]any

// DecodeDoc parses a JSON object. A literal null decodes to a nil Doc
// without error. Numbers are kept as json.Number.
func DecodeDoc(data []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoding document: expected object, got %T", v)
	}
	return Doc(obj), nil
}

// AsDoc converts a decoded JSON value to a Doc, or nil when v is not an object.
func AsDoc(v any) Doc {
	switch obj := v.(type) {
	case Doc:
		return obj
	case map[string]any:
		return Doc(obj)
	default:
		return nil
	}
}

// Lookup walks path and returns the value found there. The boolean is
// false when any step is missing, null, or not an object.
func (d Doc) Lookup(path ...string) (any, bool) {
	var cur any = d
	for _, key := range path {
		obj := AsDoc(cur)
		if obj == nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	if cur == nil {
		return nil, false
	}
	if obj, ok := cur.(Doc); ok && obj == nil {
		return nil, false
	}
	return cur, true
}

// Has reports whether path resolves to a non-null value.
func (d Doc) Has(path ...string) bool {
	_, ok := d.Lookup(path...)
	return ok
}

// String returns the trimmed string at path, or def when it is missing,
// not a string, or blank.
func (d Doc) String(def string, path ...string) string {
	v, ok := d.Lookup(path...)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Float returns the number at path, or def when it is missing or not numeric.
func (d Doc) Float(def float64, path ...string) float64 {
	v, ok := d.Lookup(path...)
	if !ok {
		return def
	}
	if f, ok := floatValue(v); ok {
		return f
	}
	return def
}

// Int returns the number at path truncated to an int, or def when it is
// missing or not numeric.
func (d Doc) Int(def int, path ...string) int {
	v, ok := d.Lookup(path...)
	if !ok {
		return def
	}
	if i, ok := intValue(v); ok {
		return i
	}
	return def
}

func floatValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intValue(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil && i <= math.MaxInt32 && i >= math.MinInt32 {
			return int(i), true
		}
	}
	f, ok := floatValue(v)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Bool returns the boolean at path, or def when it is missing or not a boolean.
func (d Doc) Bool(def bool, path ...string) bool {
	v, ok := d.Lookup(path...)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Slice returns the array at path, or nil when it is missing or not an array.
func (d Doc) Slice(path ...string) []any {
	v, ok := d.Lookup(path...)
	if !ok {
		return nil
	}
	arr, _ := v.([]any)
	return arr
}

// Docs returns the array at path as documents. Elements that are not
// objects, null included, come back as nil entries in their position.
func (d Doc) Docs(path ...string) []Doc {
	arr := d.Slice(path...)
	if arr == nil {
		return nil
	}
	docs := make([]Doc, len(arr))
	for i, v := range arr {
		docs[i] = AsDoc(v)
	}
	return docs
}

// Sub returns the object at path, or nil.
func (d Doc) Sub(path ...string) Doc {
	v, ok := d.Lookup(path...)
	if !ok {
		return nil
	}
	return AsDoc(v)
}
