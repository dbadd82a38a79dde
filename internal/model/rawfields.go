package model

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/valyala/fastjson"
)

// RawFields is the original top-level JSON object of a log line. Values are
// kept as raw JSON and keys keep the order they first appeared in.
type RawFields struct {
	keys   []string
	values map[string]json.RawMessage
}

func NewRawFields(capacity int) RawFields {
	return RawFields{
		keys:   make([]string, 0, capacity),
		values: make(map[string]json.RawMessage, capacity),
	}
}

// Set stores a value. A repeated key keeps its first position and takes the
// latest value.
func (r *RawFields) Set(key string, value json.RawMessage) {
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r RawFields) Get(key string) (json.RawMessage, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns a copy of the field names in first-seen order.
func (r RawFields) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r RawFields) Len() int {
	return len(r.keys)
}

func (r RawFields) MarshalJSON() ([]byte, error) {
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
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *RawFields) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	obj, err := v.Object()
	if err != nil {
		return errors.New("raw fields must be a JSON object")
	}
	*r = NewRawFields(obj.Len())
	obj.Visit(func(key []byte, v *fastjson.Value) {
		r.Set(string(key), v.MarshalTo(nil))
	})
	return nil
}
