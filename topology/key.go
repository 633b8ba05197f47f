// Package topology implements the core cluster model: brokers, replication
// groups, topics and partitions, and the invariant-preserving mutators the
// balancer packages use to move replicas and swap leaders.
package topology

import "sort"

// PartitionKey identifies a partition by topic name and index, mirroring
// the (topic, partition) identity used throughout the Kafka ecosystem.
type PartitionKey struct {
	Topic string
	Index int
}

// Less orders keys by topic name, then by index, matching the sort order
// kafka-kit uses for its partition lists so that plans diff deterministically.
func (k PartitionKey) Less(other PartitionKey) bool {
	if k.Topic != other.Topic {
		return k.Topic < other.Topic
	}
	return k.Index < other.Index
}

// SortPartitionKeys sorts a slice of keys in place using Less.
func SortPartitionKeys(keys []PartitionKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
