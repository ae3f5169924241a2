package helpers

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/zeebo/blake3"
)

// ETag returns a weak entity tag for the JSON encoding of v.
func ETag(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// ETagMatches reports whether an If-None-Match header value covers tag.
func ETagMatches(header, tag string) bool {
	if header == "" || tag == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == tag || "W/"+part == tag {
			return true
		}
	}
	return false
}
