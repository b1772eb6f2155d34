// Package schema defines the record model for Claude Code session logs:
// one type per JSONL line kind, content blocks, token usage, and schema
// generation detection. Records preserve every byte of their source line so
// they can be re-emitted losslessly.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawFields is an insertion-ordered map of top-level JSON fields. It keeps
// the raw bytes of every value so re-serialization reproduces the original
// object, including fields this package knows nothing about.
type RawFields struct {
	keys   []string
	values map[string]json.RawMessage
}

// Get returns the raw value for key and whether it was present.
func (f *RawFields) Get(key string) (json.RawMessage, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set stores a raw value, appending the key if it is new.
func (f *RawFields) Set(key string, value json.RawMessage) {
	if f.values == nil {
		f.values = make(map[string]json.RawMessage)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Keys returns the field names in insertion order.
func (f *RawFields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of fields.
func (f *RawFields) Len() int {
	return len(f.keys)
}

// Without returns a copy with the given keys removed, preserving order.
func (f *RawFields) Without(drop ...string) RawFields {
	skip := make(map[string]bool, len(drop))
	for _, k := range drop {
		skip[k] = true
	}
	var out RawFields
	for _, k := range f.keys {
		if skip[k] {
			continue
		}
		out.Set(k, f.values[k])
	}
	return out
}

// UnmarshalJSON decodes a JSON object, recording key order and keeping each
// value verbatim.
func (f *RawFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	f.keys = nil
	f.values = make(map[string]json.RawMessage)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		f.Set(key, raw)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-emits the object with fields in their original order.
func (f RawFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(f.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
