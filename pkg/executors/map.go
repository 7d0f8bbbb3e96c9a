package executors

import (
	"sort"

	"pkg.jsn.cam/friendrec/pkg/executors/mutualfriends"
	"pkg.jsn.cam/friendrec/pkg/executors/recommend"
	"pkg.jsn.cam/friendrec/pkg/mapreduce"
)

const (
	MutualFriends = "mutualfriends"
	Recommend     = "recommend"
)

var Executors = map[string]mapreduce.Worker{
	MutualFriends: mutualfriends.MutualFriendsWorker{},
	Recommend:     recommend.RecommendWorker{},
}

func IsValidExecutor(name string) bool {
	_, exists := Executors[name]
	return exists
}

func GetExecutor(name string) mapreduce.Worker {
	return Executors[name]
}

func ListExecutors() []string {
	var names []string
	for name := range Executors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func GetDescription(name string) (string, error) {
	if worker, exists := Executors[name]; exists {
		return worker.Description(), nil
	}
	return "", mapreduce.ErrInvalidExecutor
}
