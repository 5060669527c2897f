package util

import (
	"bytes"
	"encoding/json"
)

// EncodeJSON serializes v compactly without HTML escaping, so '<', '>' and '&'
// survive verbatim the way browser JSON.stringify emits them.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encoder always terminates with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeJSONString is EncodeJSON returning a string
func EncodeJSONString(v any) (string, error) {
	data, err := EncodeJSON(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Field is a single key/value pair of an OrderedObject
type Field struct {
	Key   string
	Value any
}

// OrderedObject marshals as a JSON object whose keys keep their slice order
type OrderedObject []Field

func (o OrderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := EncodeJSON(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := EncodeJSON(f.Value)
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
