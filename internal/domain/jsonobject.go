package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// marshalObject writes n key/value pairs as a JSON object, keeping the
// caller's key order instead of the sorted order encoding/json uses for maps.
func marshalObject(n int, entry func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		key, value := entry(i)
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", key, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// unmarshalObject walks a JSON object in document order. A JSON null is
// accepted and yields no entries.
func unmarshalObject(data []byte, each func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode value for %q: %w", key, err)
		}
		if err := each(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
