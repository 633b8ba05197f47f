package topology

import "sort"

// Partition is a shard of a topic. Replicas is the ordered broker id list;
// Replicas[0] is the preferred leader. Replication factor is len(Replicas).
type Partition struct {
	Topic    string
	Index    int
	Replicas []int
}

// Key returns the partition's (topic, index) identity.
func (p *Partition) Key() PartitionKey {
	return PartitionKey{Topic: p.Topic, Index: p.Index}
}

// ReplicationFactor returns the current replica count.
func (p *Partition) ReplicationFactor() int {
	return len(p.Replicas)
}

// PreferredLeader returns the broker id at position 0.
func (p *Partition) PreferredLeader() int {
	return p.Replicas[0]
}

// HasReplica reports whether brokerID holds a replica of this partition.
func (p *Partition) HasReplica(brokerID int) bool {
	for _, id := range p.Replicas {
		if id == brokerID {
			return true
		}
	}
	return false
}

// indexOf returns the position of brokerID in Replicas, or -1.
func (p *Partition) indexOf(brokerID int) int {
	for i, id := range p.Replicas {
		if id == brokerID {
			return i
		}
	}
	return -1
}

// ReplicasCopy returns a defensive copy of the replica list, in order.
func (p *Partition) ReplicasCopy() []int {
	cpy := make([]int, len(p.Replicas))
	copy(cpy, p.Replicas)
	return cpy
}

// Topic is the set of partitions sharing a topic name.
type Topic struct {
	Name       string
	Partitions map[int]*Partition
}

// PartitionIndexes returns the topic's partition indexes in ascending order.
func (t *Topic) PartitionIndexes() []int {
	idx := make([]int, 0, len(t.Partitions))
	for i := range t.Partitions {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
