package social

import "sort"

// DefaultLimit is the number of recommendations kept per user.
const DefaultLimit = 10

// Candidate is a recommended user and the number of mutual friends shared
// with the owner of the list.
type Candidate struct {
	ID          string
	MutualCount int
}

// Before reports whether c ranks ahead of o: more mutual friends first,
// then ascending id.
func (c Candidate) Before(o Candidate) bool {
	if c.MutualCount != o.MutualCount {
		return c.MutualCount > o.MutualCount
	}

	return c.ID < o.ID
}

// RankCandidates decodes "candidate:count" values and returns at most limit
// of them in rank order. Empty values are ignored; malformed ones are
// skipped and counted. If a candidate appears more than once, the last
// value wins.
func RankCandidates(values []string, limit int) (ranked []Candidate, skipped int) {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		id, n, err := ParseCandidate(v)
		if err != nil {
			skipped++
			continue
		}
		counts[id] = n
	}

	ranked = make([]Candidate, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, Candidate{ID: id, MutualCount: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Before(ranked[j])
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, skipped
}
