// Package balance implements the group-level and cluster-level
// rebalancing operations described by the planner: intra-group broker
// balance, cross-group replica placement, and the cluster-level
// orchestration (replication-group balance, broker balance, leader
// balance, decommission, and replication-factor changes).
package balance

import (
	"sort"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

// RebalanceBrokersInGroup equalizes partition counts across a replication
// group's active brokers, using any decommissioned brokers still holding
// partitions as forced donors. Returns EmptyReplicationGroupError if the
// group has no active brokers.
func RebalanceBrokersInGroup(ct *topo.ClusterTopology, groupID string) error {
	active := ct.ActiveBrokersInGroup(groupID)
	if len(active) == 0 {
		return &topo.EmptyReplicationGroupError{GroupID: groupID}
	}

	decommissioned := ct.DecommissionedBrokersInGroup(groupID)

	total := 0
	for _, b := range active {
		total += b.PartitionCount()
	}
	for _, b := range decommissioned {
		total += b.PartitionCount()
	}

	for {
		over, under := separateByPartitionCount(active, total)
		over = appendNonEmpty(over, decommissioned)

		if len(over) == 0 || len(under) == 0 {
			return nil
		}

		source, dest, key, found := bestIntraGroupMove(over, under)
		if !found {
			return nil
		}

		if err := ct.MoveReplica(key, source.ID, dest.ID); err != nil {
			return nil
		}
	}
}

// separateByPartitionCount splits brokers into over/under loaded relative
// to their own partition counts.
func separateByPartitionCount(brokers topo.BrokerList, total int) (over, under topo.BrokerList) {
	return topo.SeparateGroups(
		[]*topo.Broker(brokers),
		func(b *topo.Broker) int { return b.PartitionCount() },
		func(b *topo.Broker) int { return b.ID },
		total,
	)
}

func appendNonEmpty(dst topo.BrokerList, candidates topo.BrokerList) topo.BrokerList {
	for _, b := range candidates {
		if !b.Empty() {
			dst = append(dst, b)
		}
	}
	return dst
}

// bestIntraGroupMove implements spec.md section 4.2.1 steps 4-7: pick the
// (source, destination, partition) triple that best balances partition
// counts within a replication group.
func bestIntraGroupMove(over, under topo.BrokerList) (source, dest *topo.Broker, key topo.PartitionKey, found bool) {
	sortedOver := make(topo.BrokerList, len(over))
	copy(sortedOver, over)
	sort.Slice(sortedOver, func(i, j int) bool {
		if sortedOver[i].PartitionCount() != sortedOver[j].PartitionCount() {
			return sortedOver[i].PartitionCount() > sortedOver[j].PartitionCount()
		}
		return sortedOver[i].ID < sortedOver[j].ID
	})

	sortedUnder := make(topo.BrokerList, len(under))
	copy(sortedUnder, under)
	sort.Slice(sortedUnder, func(i, j int) bool {
		if sortedUnder[i].PartitionCount() != sortedUnder[j].PartitionCount() {
			return sortedUnder[i].PartitionCount() < sortedUnder[j].PartitionCount()
		}
		return sortedUnder[i].ID < sortedUnder[j].ID
	})

	bestSiblingCount := -1

	for _, s := range sortedOver {
		for _, d := range sortedUnder {
			if !(s.PartitionCount()-d.PartitionCount() > 1 || s.Decommissioned) {
				// This and every remaining (more-loaded-than-d) destination
				// in sortedUnder are already relatively balanced against s;
				// move on to the next source.
				break
			}

			candidate, siblingCount, ok := preferredEligiblePartition(s, d)
			if !ok {
				continue
			}

			if !found || siblingCount < bestSiblingCount {
				source, dest, key, found = s, d, candidate, true
				bestSiblingCount = siblingCount
				if bestSiblingCount == 0 {
					break // minimal possible sibling count for this source
				}
			}
		}
	}

	return source, dest, key, found
}

// preferredEligiblePartition returns the partition held by source but not
// by dest that minimizes dest's current count of same-topic partitions
// (the topic-spread heuristic), tie-broken by partition key ascending.
func preferredEligiblePartition(source, dest *topo.Broker) (topo.PartitionKey, int, bool) {
	best := topo.PartitionKey{}
	bestCount := -1
	found := false

	for _, key := range source.PartitionKeys() {
		if dest.HasPartition(key) {
			continue
		}
		count := dest.CountPartitionsOfTopic(key.Topic)
		if !found || count < bestCount {
			best, bestCount, found = key, count, true
		}
	}

	return best, bestCount, found
}

// MovePartition moves one replica of key from sourceGroupID to
// destGroupID, per spec.md section 4.2.2: the source broker is the one
// holding the most partitions of the same topic (to reduce topic
// imbalance on the source group); the destination broker is the one,
// among those not already holding key, with the fewest partitions of the
// same topic. Returns (false, nil) when no legal pair exists -- callers
// driving a balance loop treat that as "nothing left to do" (spec.md
// section 9, first open question); it never returns a typed error for
// that case. AcquirePartition is the explicit-invocation counterpart that
// does.
func MovePartition(ct *topo.ClusterTopology, sourceGroupID, destGroupID string, key topo.PartitionKey) (bool, error) {
	source, ok := bestTopicSource(ct, sourceGroupID, key)
	if !ok {
		return false, nil
	}
	dest, ok := bestTopicDestination(ct, destGroupID, key)
	if !ok {
		return false, nil
	}

	if err := ct.MoveReplica(key, source.ID, dest.ID); err != nil {
		return false, nil
	}
	return true, nil
}

// AcquirePartition attempts to move a replica of key from sourceBrokerID
// into destGroupID. It fails with NotEligibleGroupError when no broker in
// destGroupID is a legal target.
func AcquirePartition(ct *topo.ClusterTopology, destGroupID string, key topo.PartitionKey, sourceBrokerID int) error {
	dest, ok := bestTopicDestination(ct, destGroupID, key)
	if !ok {
		return &topo.NotEligibleGroupError{GroupID: destGroupID, Key: key}
	}
	if err := ct.MoveReplica(key, sourceBrokerID, dest.ID); err != nil {
		return &topo.NotEligibleGroupError{GroupID: destGroupID, Key: key}
	}
	return nil
}

// bestTopicSource picks, among groupID's brokers holding key, the one
// with the highest count of partitions of key's topic; ties broken by
// broker id ascending.
func bestTopicSource(ct *topo.ClusterTopology, groupID string, key topo.PartitionKey) (*topo.Broker, bool) {
	var best *topo.Broker
	bestCount := -1
	for _, b := range ct.BrokersInGroup(groupID) {
		if !b.HasPartition(key) {
			continue
		}
		count := b.CountPartitionsOfTopic(key.Topic)
		if best == nil || count > bestCount || (count == bestCount && b.ID < best.ID) {
			best, bestCount = b, count
		}
	}
	return best, best != nil
}

// bestTopicDestination picks, among groupID's brokers not holding key,
// the one with the lowest count of partitions of key's topic; ties
// broken by broker id ascending. Decommissioned brokers are never
// eligible destinations.
func bestTopicDestination(ct *topo.ClusterTopology, groupID string, key topo.PartitionKey) (*topo.Broker, bool) {
	var best *topo.Broker
	bestCount := -1
	for _, b := range ct.BrokersInGroup(groupID) {
		if b.Decommissioned || b.HasPartition(key) {
			continue
		}
		count := b.CountPartitionsOfTopic(key.Topic)
		if best == nil || count < bestCount || (count == bestCount && b.ID < best.ID) {
			best, bestCount = b, count
		}
	}
	return best, best != nil
}
