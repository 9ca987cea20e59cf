package naming

// Package naming provides short deterministic hashes used to identify
// rendered manifest sets in logs and the run journal, and name checks
// for user supplied Kubernetes identifiers.

import (
	"crypto/sha1"
	"fmt"
)

// digestLength defines the hex length of manifest digests (bits ~ length * 4).
const digestLength = 12

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// ManifestDigest returns the short digest of a rendered manifest stream.
func ManifestDigest(data []byte) string {
	return ShortHash(string(data), digestLength)
}
