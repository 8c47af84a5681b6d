package spending

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Award is one returned award record: an ordered mapping of field name to raw
// value. Field order is preserved from the upstream response, and values keep
// their original JSON text so that re-encoding a page drops nothing.
type Award struct {
	keys   []string
	values map[string]json.RawMessage
}

// Fields returns the award's field names in upstream order.
func (a Award) Fields() []string {
	return slices.Clone(a.keys)
}

// Get returns the raw value of the given field.
func (a Award) Get(field string) (json.RawMessage, bool) {
	v, ok := a.values[field]
	return v, ok
}

// Cell returns the flattened text of the given field for tabular output.
//
// Missing fields and nulls flatten to the empty string; strings are unquoted;
// numbers and booleans keep their literal JSON text so no precision or
// formatting is lost; nested objects and arrays flatten to compact JSON.
// A field may hold different types across records, so nothing is assumed
// about the value's type.
func (a Award) Cell(field string) string {
	raw, ok := a.values[field]
	if !ok {
		return ""
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed)
		}
		return s
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return string(trimmed)
		}
		return compact.String()
	default:
		return string(trimmed)
	}
}

// UnmarshalJSON decodes an award object, recording the field order.
func (a *Award) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid award: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("invalid award: expected an object, got %v", tok)
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("invalid award: %v", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("invalid award field name: %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("invalid award value for %s: %v", key, err)
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("invalid award: %v", err)
	}

	a.keys = keys
	a.values = values
	return nil
}

// MarshalJSON re-encodes the award with its fields in original order.
func (a Award) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal award field name %q: %v", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(a.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
