package testutil

import (
	"encoding/json"
	"hash/fnv"
)

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// jsonFieldEquals reports whether the top-level string field named key in
// the JSON object obj equals value.
func jsonFieldEquals(obj []byte, key, value string) bool {
	var m map[string]any
	if err := json.Unmarshal(obj, &m); err != nil {
		return false
	}
	v, ok := m[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == value
}
