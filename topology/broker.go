package topology

import "sort"

// Broker is a storage/serving node tagged with a replication group.
// Placement state (which partitions it holds, and for which of those it
// is the preferred leader) is mutable and maintained exclusively by
// ClusterTopology's mutators.
type Broker struct {
	ID                 int
	ReplicationGroupID string
	Decommissioned     bool
	Inactive           bool

	partitions map[PartitionKey]struct{}
	leaders    map[PartitionKey]struct{}
}

func newBroker(id int, groupID string, inactive, decommissioned bool) *Broker {
	return &Broker{
		ID:                 id,
		ReplicationGroupID: groupID,
		Inactive:           inactive,
		Decommissioned:     decommissioned,
		partitions:         make(map[PartitionKey]struct{}),
		leaders:            make(map[PartitionKey]struct{}),
	}
}

// PartitionKeys returns the partitions currently replicated on this broker,
// sorted by (topic, index) for deterministic iteration.
func (b *Broker) PartitionKeys() []PartitionKey {
	keys := make([]PartitionKey, 0, len(b.partitions))
	for k := range b.partitions {
		keys = append(keys, k)
	}
	SortPartitionKeys(keys)
	return keys
}

// PartitionCount is the number of partitions replicated on this broker.
func (b *Broker) PartitionCount() int {
	return len(b.partitions)
}

// LeaderCount is the number of partitions for which this broker is the
// preferred leader.
func (b *Broker) LeaderCount() int {
	return len(b.leaders)
}

// HasPartition reports whether this broker holds a replica of key.
func (b *Broker) HasPartition(key PartitionKey) bool {
	_, ok := b.partitions[key]
	return ok
}

// IsLeaderOf reports whether this broker is the preferred leader of key.
func (b *Broker) IsLeaderOf(key PartitionKey) bool {
	_, ok := b.leaders[key]
	return ok
}

// CountPartitionsOfTopic returns how many partitions of the given topic
// this broker currently replicates. Used by the group balancer's
// topic-spread heuristic.
func (b *Broker) CountPartitionsOfTopic(topic string) int {
	n := 0
	for k := range b.partitions {
		if k.Topic == topic {
			n++
		}
	}
	return n
}

// Empty reports whether the broker holds zero partitions.
func (b *Broker) Empty() bool {
	return len(b.partitions) == 0
}

func (b *Broker) addPartition(key PartitionKey, isLeader bool) {
	b.partitions[key] = struct{}{}
	if isLeader {
		b.leaders[key] = struct{}{}
	}
}

func (b *Broker) removePartition(key PartitionKey) {
	delete(b.partitions, key)
	delete(b.leaders, key)
}

func (b *Broker) setLeader(key PartitionKey, isLeader bool) {
	if isLeader {
		b.leaders[key] = struct{}{}
	} else {
		delete(b.leaders, key)
	}
}

// BrokerList is a slice of brokers with deterministic sort helpers used by
// the balancers.
type BrokerList []*Broker

// SortByID sorts ascending by broker id.
func (bl BrokerList) SortByID() {
	sort.Slice(bl, func(i, j int) bool { return bl[i].ID < bl[j].ID })
}

// IDs returns the broker ids in the list, in list order.
func (bl BrokerList) IDs() []int {
	ids := make([]int, len(bl))
	for i, b := range bl {
		ids[i] = b.ID
	}
	return ids
}
