package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint derives the cache key for a request from its URL and query
// parameters. Parameters are sorted by name first, so two requests that
// differ only in parameter order always map to the same key. The key is a
// hex SHA-256 digest, safe for use as a filename.
func Fingerprint(url string, params map[string]string) string {
	sum := sha256.Sum256([]byte(canonicalRequest(url, params)))
	return hex.EncodeToString(sum[:])
}

// canonicalRequest builds the stable string that identifies a request.
func canonicalRequest(url string, params map[string]string) string {
	if len(params) == 0 {
		return url
	}

	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)

	var b strings.Builder
	b.WriteString(url)
	b.WriteByte('?')
	b.WriteString(strings.Join(parts, "&"))
	return b.String()
}
