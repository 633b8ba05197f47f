package topology

import "sort"

// ClusterTopology owns every broker, replication group, topic and
// partition in a cluster snapshot. It is the only place mutation happens;
// every other type in this package is a passive value resolved through it.
type ClusterTopology struct {
	brokers    map[int]*Broker
	groups     map[string]*ReplicationGroup
	partitions map[PartitionKey]*Partition
	topics     map[string]*Topic
}

// New returns an empty ClusterTopology.
func New() *ClusterTopology {
	return &ClusterTopology{
		brokers:    make(map[int]*Broker),
		groups:     make(map[string]*ReplicationGroup),
		partitions: make(map[PartitionKey]*Partition),
		topics:     make(map[string]*Topic),
	}
}

// AddBroker registers a broker and its replication group. Safe to call
// with a group id already seen; the group is created on first reference.
func (ct *ClusterTopology) AddBroker(id int, groupID string, inactive, decommissioned bool) *Broker {
	b := newBroker(id, groupID, inactive, decommissioned)
	ct.brokers[id] = b

	g, ok := ct.groups[groupID]
	if !ok {
		g = newReplicationGroup(groupID)
		ct.groups[groupID] = g
	}
	g.addBrokerID(id)

	return b
}

// AddPartition registers a partition with its initial replica set. Every
// broker id in replicas must already be registered via AddBroker, replicas
// must be distinct, and len(replicas) must be at least 1 with replicas[0]
// as the preferred leader.
func (ct *ClusterTopology) AddPartition(topicName string, index int, replicas []int) (*Partition, error) {
	if len(replicas) == 0 {
		return nil, &InvalidReplicationFactorError{Message: "partition must have at least one replica"}
	}

	seen := make(map[int]struct{}, len(replicas))
	for _, id := range replicas {
		if _, dup := seen[id]; dup {
			return nil, &InvalidReplicationFactorError{
				Message: "duplicate broker in replica set",
			}
		}
		seen[id] = struct{}{}
		if _, ok := ct.brokers[id]; !ok {
			return nil, &InvalidBrokerIdError{ID: id}
		}
	}

	rc := make([]int, len(replicas))
	copy(rc, replicas)
	p := &Partition{Topic: topicName, Index: index, Replicas: rc}
	key := p.Key()
	ct.partitions[key] = p

	topic, ok := ct.topics[topicName]
	if !ok {
		topic = &Topic{Name: topicName, Partitions: make(map[int]*Partition)}
		ct.topics[topicName] = topic
	}
	topic.Partitions[index] = p

	for i, id := range replicas {
		ct.brokers[id].addPartition(key, i == 0)
	}

	return p, nil
}

// Broker resolves a broker id.
func (ct *ClusterTopology) Broker(id int) (*Broker, bool) {
	b, ok := ct.brokers[id]
	return b, ok
}

// Group resolves a replication group id.
func (ct *ClusterTopology) Group(id string) (*ReplicationGroup, bool) {
	g, ok := ct.groups[id]
	return g, ok
}

// Partition resolves a partition key.
func (ct *ClusterTopology) Partition(key PartitionKey) (*Partition, bool) {
	p, ok := ct.partitions[key]
	return p, ok
}

// GroupIDs returns all replication group ids, sorted ascending.
func (ct *ClusterTopology) GroupIDs() []string {
	ids := make([]string, 0, len(ct.groups))
	for id := range ct.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BrokerIDs returns all broker ids, sorted ascending.
func (ct *ClusterTopology) BrokerIDs() []int {
	ids := make([]int, 0, len(ct.brokers))
	for id := range ct.brokers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// PartitionKeys returns all partition keys, sorted by (topic, index).
func (ct *ClusterTopology) PartitionKeys() []PartitionKey {
	keys := make([]PartitionKey, 0, len(ct.partitions))
	for k := range ct.partitions {
		keys = append(keys, k)
	}
	SortPartitionKeys(keys)
	return keys
}

// BrokersInGroup resolves a group's member brokers, sorted by id.
func (ct *ClusterTopology) BrokersInGroup(groupID string) BrokerList {
	g, ok := ct.groups[groupID]
	if !ok {
		return nil
	}
	list := make(BrokerList, 0, len(g.brokerIDs))
	for id := range g.brokerIDs {
		list = append(list, ct.brokers[id])
	}
	list.SortByID()
	return list
}

// ActiveBrokersInGroup resolves a group's non-decommissioned brokers,
// sorted by id.
func (ct *ClusterTopology) ActiveBrokersInGroup(groupID string) BrokerList {
	all := ct.BrokersInGroup(groupID)
	list := make(BrokerList, 0, len(all))
	for _, b := range all {
		if !b.Decommissioned {
			list = append(list, b)
		}
	}
	return list
}

// DecommissionedBrokersInGroup resolves a group's decommissioned brokers,
// sorted by id.
func (ct *ClusterTopology) DecommissionedBrokersInGroup(groupID string) BrokerList {
	all := ct.BrokersInGroup(groupID)
	list := make(BrokerList, 0)
	for _, b := range all {
		if b.Decommissioned {
			list = append(list, b)
		}
	}
	return list
}

// GroupOf resolves the replication group a broker belongs to.
func (ct *ClusterTopology) GroupOf(brokerID int) (*ReplicationGroup, error) {
	b, ok := ct.brokers[brokerID]
	if !ok {
		return nil, &InvalidBrokerIdError{ID: brokerID}
	}
	g, ok := ct.groups[b.ReplicationGroupID]
	if !ok {
		return nil, &InvalidBrokerIdError{ID: brokerID}
	}
	return g, nil
}

// CountReplicaInGroup returns how many brokers in groupID replicate key.
// A group may hold several replicas of the same partition (one per broker);
// the replication-group rebalance pass spreads them across groups.
func (ct *ClusterTopology) CountReplicaInGroup(groupID string, key PartitionKey) int {
	n := 0
	for _, b := range ct.BrokersInGroup(groupID) {
		if b.HasPartition(key) {
			n++
		}
	}
	return n
}

// GroupPartitionKeys returns the (deduplicated) partition keys replicated
// anywhere in groupID, sorted.
func (ct *ClusterTopology) GroupPartitionKeys(groupID string) []PartitionKey {
	seen := make(map[PartitionKey]struct{})
	for _, b := range ct.BrokersInGroup(groupID) {
		for _, k := range b.PartitionKeys() {
			seen[k] = struct{}{}
		}
	}
	keys := make([]PartitionKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	SortPartitionKeys(keys)
	return keys
}

// TotalActiveBrokers returns the count of non-decommissioned brokers
// across the whole cluster.
func (ct *ClusterTopology) TotalActiveBrokers() int {
	n := 0
	for _, b := range ct.brokers {
		if !b.Decommissioned {
			n++
		}
	}
	return n
}

// MarkDecommissioned flags a broker as pending removal.
func (ct *ClusterTopology) MarkDecommissioned(brokerID int) error {
	b, ok := ct.brokers[brokerID]
	if !ok {
		return &InvalidBrokerIdError{ID: brokerID}
	}
	b.Decommissioned = true
	return nil
}

// MoveReplica relocates the replica of key held by fromBrokerID onto
// toBrokerID, preserving its position in the replica list (so a leader
// move stays a leader move). Both brokers must exist; fromBrokerID must
// hold key and toBrokerID must not.
func (ct *ClusterTopology) MoveReplica(key PartitionKey, fromBrokerID, toBrokerID int) error {
	p, ok := ct.partitions[key]
	if !ok {
		return &InvalidPartitionError{Key: key}
	}
	from, ok := ct.brokers[fromBrokerID]
	if !ok {
		return &InvalidBrokerIdError{ID: fromBrokerID}
	}
	to, ok := ct.brokers[toBrokerID]
	if !ok {
		return &InvalidBrokerIdError{ID: toBrokerID}
	}
	if !from.HasPartition(key) {
		return &NotEligibleGroupError{GroupID: to.ReplicationGroupID, Key: key}
	}
	if to.HasPartition(key) {
		return &NotEligibleGroupError{GroupID: to.ReplicationGroupID, Key: key}
	}

	idx := p.indexOf(fromBrokerID)
	isLeader := idx == 0
	p.Replicas[idx] = toBrokerID

	from.removePartition(key)
	to.addPartition(key, isLeader)

	return nil
}

// SwapLeader reorders key's replica list so newLeaderBrokerID is first,
// preserving the relative order of the remaining replicas. newLeaderBrokerID
// must already hold a replica of key.
func (ct *ClusterTopology) SwapLeader(key PartitionKey, newLeaderBrokerID int) error {
	p, ok := ct.partitions[key]
	if !ok {
		return &InvalidPartitionError{Key: key}
	}
	if !p.HasReplica(newLeaderBrokerID) {
		return &InvalidBrokerIdError{ID: newLeaderBrokerID}
	}

	oldLeaderID := p.Replicas[0]
	if oldLeaderID == newLeaderBrokerID {
		return nil
	}

	reordered := make([]int, 0, len(p.Replicas))
	reordered = append(reordered, newLeaderBrokerID)
	for _, id := range p.Replicas {
		if id != newLeaderBrokerID {
			reordered = append(reordered, id)
		}
	}
	p.Replicas = reordered

	if oldLeader, ok := ct.brokers[oldLeaderID]; ok {
		oldLeader.setLeader(key, false)
	}
	ct.brokers[newLeaderBrokerID].setLeader(key, true)

	return nil
}

// AppendReplica adds brokerID to key's replica list as a follower (at the
// end of the list). brokerID must not already hold a replica of key.
func (ct *ClusterTopology) AppendReplica(key PartitionKey, brokerID int) error {
	p, ok := ct.partitions[key]
	if !ok {
		return &InvalidPartitionError{Key: key}
	}
	b, ok := ct.brokers[brokerID]
	if !ok {
		return &InvalidBrokerIdError{ID: brokerID}
	}
	if p.HasReplica(brokerID) {
		return &InvalidReplicationFactorError{
			Message: "broker already in replica set",
		}
	}

	p.Replicas = append(p.Replicas, brokerID)
	b.addPartition(key, false)

	return nil
}

// RemoveReplica removes brokerID from key's replica list. If brokerID was
// the preferred leader, the next remaining replica becomes leader as a
// side effect of the list shift (callers that need deliberate leader
// reseating, e.g. remove_replica's final step, call SwapLeader afterward).
func (ct *ClusterTopology) RemoveReplica(key PartitionKey, brokerID int) error {
	p, ok := ct.partitions[key]
	if !ok {
		return &InvalidPartitionError{Key: key}
	}
	b, ok := ct.brokers[brokerID]
	if !ok {
		return &InvalidBrokerIdError{ID: brokerID}
	}
	idx := p.indexOf(brokerID)
	if idx < 0 {
		return &InvalidBrokerIdError{ID: brokerID}
	}

	p.Replicas = append(p.Replicas[:idx], p.Replicas[idx+1:]...)
	b.removePartition(key)

	if idx == 0 && len(p.Replicas) > 0 {
		ct.brokers[p.Replicas[0]].setLeader(key, true)
	}

	return nil
}
