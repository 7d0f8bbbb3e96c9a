package social

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
)

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestRankCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		values      []string
		limit       int
		want        []string
		wantSkipped int
	}{
		{
			name:   "count descending",
			values: []string{"B:1", "C:3", "D:2"},
			limit:  10,
			want:   []string{"C", "D", "B"},
		},
		{
			name:   "ties broken by ascending id",
			values: []string{"D:1", "B:1", "C:1"},
			limit:  10,
			want:   []string{"B", "C", "D"},
		},
		{
			name:   "truncated to limit",
			values: []string{"A:1", "B:2", "C:3", "D:4"},
			limit:  2,
			want:   []string{"D", "C"},
		},
		{
			name:        "malformed values skipped",
			values:      []string{"B:2", "garbage", "C:x", "D:1"},
			limit:       10,
			want:        []string{"B", "D"},
			wantSkipped: 2,
		},
		{
			name:   "roster value ignored",
			values: []string{"", "B:1"},
			limit:  10,
			want:   []string{"B"},
		},
		{
			name:   "duplicate candidate, last write wins",
			values: []string{"B:5", "C:2", "B:1"},
			limit:  10,
			want:   []string{"C", "B"},
		},
		{
			name:   "no candidates",
			values: []string{""},
			limit:  10,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, skipped := RankCandidates(tt.values, tt.limit)
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("RankCandidates = %v, want %v", ids(got), tt.want)
			}
			if skipped != tt.wantSkipped {
				t.Errorf("skipped = %d, want %d", skipped, tt.wantSkipped)
			}
		})
	}
}

func TestRankCandidates_TotalOrder(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(7, 7))
	var values []string
	for i := range 200 {
		values = append(values, FormatCandidate(fmt.Sprintf("u%03d", i), r.IntN(5)))
	}

	first, _ := RankCandidates(values, DefaultLimit)
	if len(first) != DefaultLimit {
		t.Fatalf("got %d candidates, want %d", len(first), DefaultLimit)
	}

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.MutualCount < cur.MutualCount {
			t.Errorf("counts increase at %d: %+v then %+v", i, prev, cur)
		}
		if prev.MutualCount == cur.MutualCount && prev.ID >= cur.ID {
			t.Errorf("tie not in ascending id order at %d: %+v then %+v", i, prev, cur)
		}
	}

	// Any permutation of the input ranks the same.
	for range 5 {
		shuffled := slices.Clone(values)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, _ := RankCandidates(shuffled, DefaultLimit)
		if !slices.Equal(got, first) {
			t.Fatalf("ranking depends on input order: %v vs %v", ids(got), ids(first))
		}
	}
}
