package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dig walks a vendor payload by key. String keys index maps, numeric keys index
// slices. Any missing or mistyped step yields (nil, false); it never panics.
func Dig(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, key := range keys {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[key]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// DigString returns the value at keys rendered as a string, or "".
func DigString(m map[string]any, keys ...string) string {
	v, ok := Dig(m, keys...)
	if !ok {
		return ""
	}
	return toString(v)
}

// DigInt returns the numeric value at keys.
func DigInt(m map[string]any, keys ...string) (int64, bool) {
	v, ok := Dig(m, keys...)
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// DigFloat returns the numeric value at keys as a float64.
func DigFloat(m map[string]any, keys ...string) (float64, bool) {
	v, ok := Dig(m, keys...)
	if !ok {
		return 0, false
	}
	return toFloat64(v)
}

// DigBool returns the boolean value at keys.
func DigBool(m map[string]any, keys ...string) (bool, bool) {
	v, ok := Dig(m, keys...)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}

// DigMap returns the nested object at keys.
func DigMap(m map[string]any, keys ...string) map[string]any {
	v, ok := Dig(m, keys...)
	if !ok {
		return nil
	}
	out, _ := v.(map[string]any)
	return out
}

// DigSlice returns the nested list at keys. A single object is returned as a
// one-element list since some BMCs collapse one-member collections.
func DigSlice(m map[string]any, keys ...string) []any {
	v, ok := Dig(m, keys...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case map[string]any:
		return []any{t}
	}
	return nil
}

// FirstString returns the first non-empty top-level value among keys.
func FirstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := DigString(m, k); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt returns the first numeric top-level value among keys.
func FirstInt(m map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		if n, ok := DigInt(m, k); ok {
			return n, true
		}
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		return ""
	}
	return fmt.Sprint(v)
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	case float32:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		return int64(f), err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}
