// Package social holds the record formats and graph primitives of the
// people-you-might-know pipeline.
package social

import "strings"

const pairSeparator = ","

// PairKey encodes the unordered pair {a, b} with the lexicographically
// smaller id first, so PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}

	return a + pairSeparator + b
}

// SplitPairKey decodes a key produced by PairKey. ok is false for keys that
// do not hold a pair, such as roster keys.
func SplitPairKey(key string) (a, b string, ok bool) {
	a, b, ok = strings.Cut(key, pairSeparator)
	if !ok || a == "" || b == "" {
		return "", "", false
	}

	return a, b, true
}
