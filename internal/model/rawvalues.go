package model

import (
	"bytes"
	"encoding/json"
)

// RawValues is the pass-through bag of a row's original columns. Unlike a
// plain map it remembers insertion order, so the JSON form lists columns in
// the same order as the uploaded header.
type RawValues struct {
	keys []string
	vals map[string]any
}

// NewRawValues creates an empty bag with capacity for n columns.
func NewRawValues(n int) RawValues {
	return RawValues{
		keys: make([]string, 0, n),
		vals: make(map[string]any, n),
	}
}

// Set stores a value under key. Setting an existing key overwrites the value
// and keeps the key's original position.
func (r *RawValues) Set(key string, v any) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the value stored under key.
func (r RawValues) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys returns the column names in insertion order.
func (r RawValues) Keys() []string {
	return r.keys
}

// Len returns the number of stored columns.
func (r RawValues) Len() int {
	return len(r.keys)
}

// MarshalJSON writes the bag as a JSON object with keys in insertion order.
func (r RawValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.vals[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
