package mapreduce

import (
	"hash/fnv"
	"sort"
)

// PartitionKey maps a key to one of n reduce partitions with FNV-1a, so
// every value of a key lands in the same partition regardless of which map
// task emitted it. n < 1 is treated as a single partition.
func PartitionKey(key string, n int) int {
	if n <= 1 {
		return 0
	}

	h := fnv.New32a()
	h.Write([]byte(key))

	return int(h.Sum32() % uint32(n))
}

// PartitionMapOutput splits one map task's output by partition. Pairs keep
// their emission order within a partition; partitions without pairs are
// absent.
func PartitionMapOutput(kvs []KeyValue, n int) map[int][]KeyValue {
	out := make(map[int][]KeyValue, max(min(n, len(kvs)), 0))

	for _, kv := range kvs {
		p := PartitionKey(kv.Key, n)
		out[p] = append(out[p], kv)
	}

	return out
}

// ShuffleAndGroup orders a partition's pairs by key and groups their values.
// Values of a key keep their relative order.
func ShuffleAndGroup(kvs []KeyValue) map[string][]string {
	sort.SliceStable(kvs, func(i, j int) bool {
		return kvs[i].Key < kvs[j].Key
	})

	return Shuffle(kvs)
}
