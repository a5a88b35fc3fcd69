// Package record provides the canonical component record shared by every
// adapter, together with the helpers used to read vendor payloads safely and to
// resolve identities across vendor identifier schemes.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is a flat, field-named view of one vendor component (CPU, drive,
// volume, controller, ...). Fields keep insertion order so that output stays
// stable. Raw holds the vendor payload the record was built from and is only
// consulted for identifier extraction; it is never serialized.
type Record struct {
	ID  string
	Raw map[string]any

	keys   []string
	fields map[string]any
}

// New creates an empty record backed by the given vendor payload.
func New(raw map[string]any) *Record {
	return &Record{
		Raw:    raw,
		fields: map[string]any{},
	}
}

// Set stores a field value. Absent values (nil, empty strings, nil records) are
// skipped so a record never carries placeholders.
func (r *Record) Set(key string, value any) *Record {
	if absent(value) {
		return r
	}
	if r.fields == nil {
		r.fields = map[string]any{}
	}
	if _, exists := r.fields[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = value
	return r
}

// SetDefault stores value only when key has not been written yet. It reports
// whether the value was stored.
func (r *Record) SetDefault(key string, value any) bool {
	if r.Has(key) || absent(value) {
		return false
	}
	r.Set(key, value)
	return true
}

// Delete removes a field.
func (r *Record) Delete(key string) {
	if _, ok := r.fields[key]; !ok {
		return
	}
	delete(r.fields, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

func (r *Record) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.fields[key]
	return ok
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Fields returns a shallow copy of the record's fields.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Get reads a field by dotted path. Path segments walk into nested records,
// maps and slices ("ports.0.mac_address").
func (r *Record) Get(path string) (any, bool) {
	if r == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	value, ok := r.fields[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		value, ok = step(value, part)
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// String returns the field at path as a string, or "" when absent.
func (r *Record) String(path string) string {
	v, ok := r.Get(path)
	if !ok {
		return ""
	}
	return toString(v)
}

// Int returns the field at path as an int.
func (r *Record) Int(path string) (int, bool) {
	v, ok := r.Get(path)
	if !ok {
		return 0, false
	}
	n, ok := toInt64(v)
	return int(n), ok
}

// Int64 returns the field at path as an int64.
func (r *Record) Int64(path string) (int64, bool) {
	v, ok := r.Get(path)
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// Bool returns the field at path as a bool.
func (r *Record) Bool(path string) (bool, bool) {
	v, ok := r.Get(path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Records returns the nested record list stored under key.
func (r *Record) Records(key string) []*Record {
	v, ok := r.Get(key)
	if !ok {
		return nil
	}
	rs, _ := v.([]*Record)
	return rs
}

// MarshalJSON encodes the record's fields in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rebuilds a record from its serialized fields. Nested objects
// become maps; the vendor payload is not recoverable from this form.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}
	r.fields = map[string]any{}
	r.keys = nil
	for _, k := range keys {
		r.Set(k, fields[k])
	}
	return nil
}

// MarshalYAML encodes the record as an ordered YAML mapping.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range r.keys {
		var key, val yaml.Node
		if err := key.Encode(k); err != nil {
			return nil, err
		}
		if err := val.Encode(r.fields[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}

func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case *Record:
		return t == nil
	}
	return false
}

func step(v any, key string) (any, bool) {
	switch t := v.(type) {
	case *Record:
		return t.Get(key)
	case map[string]any:
		out, ok := t[key]
		return out, ok
	case []*Record:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	}
	return nil, false
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
