package social

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DirectMarker is the signal value marking a pair as existing friends. It
	// contains candidateSeparator, so no valid user id can equal it.
	DirectMarker = ":direct"

	fieldSeparator     = "\t"
	friendSeparator    = ","
	candidateSeparator = ":"
)

var ErrMalformedCandidate = errors.New("malformed candidate record")

// ValidUserID reports whether id can be used as a user id. Ids are non-empty
// and never contain a record, list or candidate separator.
func ValidUserID(id string) bool {
	return id != "" && !strings.ContainsAny(id, fieldSeparator+friendSeparator+candidateSeparator)
}

// ParseAdjacency parses a "user<TAB>f1,f2,..." line. A line without a friend
// field yields an empty friend list. Friend ids are trimmed; invalid ids,
// duplicates and the user itself are dropped. ok is false for lines without
// a valid user id.
func ParseAdjacency(line string) (user string, friends []string, ok bool) {
	user, rest, _ := strings.Cut(strings.TrimRight(line, "\r\n"), fieldSeparator)
	user = strings.TrimSpace(user)
	if !ValidUserID(user) {
		return "", nil, false
	}

	seen := make(map[string]struct{})
	for _, f := range strings.Split(rest, friendSeparator) {
		f = strings.TrimSpace(f)
		if !ValidUserID(f) || f == user {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		friends = append(friends, f)
	}

	return user, friends, true
}

// SplitRecord splits a "key<TAB>value" line. A line without a TAB is all key.
func SplitRecord(line string) (key, value string) {
	key, value, _ = strings.Cut(strings.TrimRight(line, "\r\n"), fieldSeparator)

	return key, value
}

// FormatRecord joins a key and value into one output line, without the
// trailing newline.
func FormatRecord(key, value string) string {
	return key + fieldSeparator + value
}

// FormatCandidate encodes a candidate record value: "candidate:count".
func FormatCandidate(candidate string, count int) string {
	return candidate + candidateSeparator + strconv.Itoa(count)
}

// ParseCandidate decodes a value produced by FormatCandidate.
func ParseCandidate(value string) (string, int, error) {
	candidate, rawCount, ok := strings.Cut(value, candidateSeparator)
	if !ok || candidate == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedCandidate, value)
	}

	count, err := strconv.Atoi(rawCount)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %w", ErrMalformedCandidate, value, err)
	}

	return candidate, count, nil
}

// FormatRecommendations renders a ranked list as the final output value.
func FormatRecommendations(candidates []Candidate) string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	return strings.Join(ids, friendSeparator)
}
