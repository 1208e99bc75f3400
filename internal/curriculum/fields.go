package curriculum

import (
	"bytes"
	"encoding/json"
)

// fields is a decoded JSON object whose values are resolved lazily by
// candidate key, first non-null wins.
type fields map[string]json.RawMessage

func parseFields(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// str returns the first candidate holding a non-empty scalar. Numbers keep
// their literal text so ids like 4.10 survive. Anything else counts as absent.
func (f fields) str(keys ...string) string {
	for _, k := range keys {
		if s, ok := scalar(f[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

// strs returns the first candidate holding a non-empty list of scalars.
// A bare string is treated as a one-element list.
func (f fields) strs(keys ...string) []string {
	for _, k := range keys {
		raw := f[k]
		if isNull(raw) {
			continue
		}
		if s, ok := scalar(raw); ok {
			if s != "" {
				return []string{s}
			}
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := scalar(item); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// list decodes the first non-null candidate into dst. Shape errors here are
// returned: a non-array where a list of nodes is required is a broken document.
func (f fields) list(dst any, keys ...string) error {
	for _, k := range keys {
		raw := f[k]
		if isNull(raw) {
			continue
		}
		return json.Unmarshal(raw, dst)
	}
	return nil
}

func scalar(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
