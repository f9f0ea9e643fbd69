// Package jsonutil renders values recovered from stored JSON blobs.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stringify converts a diff value to its display string. Values read
// back from a stored diff lose their original Go types (numbers become
// float64, times become RFC 3339 strings), so rendering must accept
// whatever JSON decoding produced. Returns empty string for nil.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a fractional part.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case json.RawMessage:
		return stringifyRaw(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func stringifyRaw(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return Stringify(v)
}
