package recommend

import (
	"context"

	log "github.com/sirupsen/logrus"

	"pkg.jsn.cam/friendrec/pkg/mapreduce"
	"pkg.jsn.cam/friendrec/pkg/social"
)

// RecommendWorker implements the second stage of the recommendation job.
// Input: "owner<TAB>candidate:mutualCount" lines from the first stage.
// Output: "owner<TAB>c1,c2,..." with at most Limit candidates, most mutual
// friends first and ties broken by ascending id.
type RecommendWorker struct {
	// Limit is the maximum list length. Zero means social.DefaultLimit.
	Limit int
}

func (w RecommendWorker) limit() int {
	if w.Limit <= 0 {
		return social.DefaultLimit
	}

	return w.Limit
}

// Map re-keys every record by its owner, unchanged.
func (w RecommendWorker) Map(ctx context.Context, chunk []string, emit mapreduce.Emitter) error {
	for _, line := range chunk {
		if err := ctx.Err(); err != nil {
			return err
		}

		owner, value := social.SplitRecord(line)
		if owner == "" {
			continue
		}
		emit(mapreduce.KeyValue{Key: owner, Value: value})
	}

	return nil
}

// Combine keeps only the task-local top candidates of an owner. A candidate
// appears at most once per owner, so the global top list is always a subset
// of the union of local ones. Roster and malformed values pass through for
// Reduce to handle.
func (w RecommendWorker) Combine(ctx context.Context, key string, values []string, emit mapreduce.Emitter) error {
	var (
		candidates []string
		roster     bool
	)

	for _, v := range values {
		if v == "" {
			roster = true
			continue
		}
		if _, _, err := social.ParseCandidate(v); err != nil {
			emit(mapreduce.KeyValue{Key: key, Value: v})
			continue
		}
		candidates = append(candidates, v)
	}

	if roster {
		emit(mapreduce.KeyValue{Key: key, Value: ""})
	}

	ranked, _ := social.RankCandidates(candidates, w.limit())
	for _, c := range ranked {
		emit(mapreduce.KeyValue{Key: key, Value: social.FormatCandidate(c.ID, c.MutualCount)})
	}

	return nil
}

// Reduce ranks an owner's candidates and emits the top ids. Owners without
// candidates get an empty list.
func (w RecommendWorker) Reduce(ctx context.Context, key string, values []string, emit mapreduce.Emitter) error {
	ranked, skipped := social.RankCandidates(values, w.limit())
	if skipped > 0 {
		log.WithFields(log.Fields{
			"user":    key,
			"skipped": skipped,
		}).Debug("Skipped malformed candidate records")
	}

	emit(mapreduce.KeyValue{Key: key, Value: social.FormatRecommendations(ranked)})

	return nil
}

func (w RecommendWorker) Description() string {
	return "Ranks mutual-friend candidates per user and keeps the top recommendations"
}
