package mutualfriends

import (
	"context"
	"sort"

	"pkg.jsn.cam/friendrec/pkg/mapreduce"
	"pkg.jsn.cam/friendrec/pkg/social"
)

// MutualFriendsWorker implements the first stage of the recommendation job.
// Input: "user<TAB>f1,f2,..." adjacency lines.
// Output: "owner<TAB>candidate:mutualCount" for every pair of users that
// share at least one friend and are not friends themselves, plus one
// "user<TAB>" roster record per input user.
type MutualFriendsWorker struct{}

// Map emits a direct marker for every (user, friend) pair, and the user as a
// contributor for every pair of its friends. Keys are canonical pair keys;
// the roster record is keyed by the bare user id.
func (w MutualFriendsWorker) Map(ctx context.Context, chunk []string, emit mapreduce.Emitter) error {
	for _, line := range chunk {
		if err := ctx.Err(); err != nil {
			return err
		}

		user, friends, ok := social.ParseAdjacency(line)
		if !ok {
			continue
		}

		emit(mapreduce.KeyValue{Key: user, Value: ""})

		for _, friend := range friends {
			emit(mapreduce.KeyValue{Key: social.PairKey(user, friend), Value: social.DirectMarker})

			for _, mutualFriend := range friends {
				if friend == mutualFriend {
					continue
				}
				emit(mapreduce.KeyValue{Key: social.PairKey(friend, mutualFriend), Value: user})
			}
		}
	}

	return nil
}

// Combine collapses a task's signals for one key: a single direct marker if
// the pair is direct, otherwise each distinct contributor once.
func (w MutualFriendsWorker) Combine(ctx context.Context, key string, values []string, emit mapreduce.Emitter) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == social.DirectMarker {
			emit(mapreduce.KeyValue{Key: key, Value: social.DirectMarker})
			return nil
		}
		seen[v] = struct{}{}
	}

	for _, v := range sortedSet(seen) {
		emit(mapreduce.KeyValue{Key: key, Value: v})
	}

	return nil
}

// Reduce drops direct pairs and emits the distinct contributor count once
// from each side of the pair.
func (w MutualFriendsWorker) Reduce(ctx context.Context, key string, values []string, emit mapreduce.Emitter) error {
	a, b, ok := social.SplitPairKey(key)
	if !ok {
		emit(mapreduce.KeyValue{Key: key, Value: ""})
		return nil
	}

	contributors := make(map[string]struct{})
	for _, v := range values {
		if v == social.DirectMarker {
			return nil
		}
		if v != "" {
			contributors[v] = struct{}{}
		}
	}

	emit(mapreduce.KeyValue{Key: a, Value: social.FormatCandidate(b, len(contributors))})
	emit(mapreduce.KeyValue{Key: b, Value: social.FormatCandidate(a, len(contributors))})

	return nil
}

func (w MutualFriendsWorker) Description() string {
	return "Counts mutual friends for every pair of users that are not already friends"
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)

	return out
}
