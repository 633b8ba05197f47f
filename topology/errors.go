package topology

import (
	"fmt"
	"sort"
)

// InvalidBrokerIdError indicates a caller referenced a broker id that
// isn't present in the topology.
type InvalidBrokerIdError struct {
	ID int
}

func (e *InvalidBrokerIdError) Error() string {
	return fmt.Sprintf("broker id %d does not exist in cluster", e.ID)
}

// InvalidPartitionError indicates a caller referenced an unknown
// (topic, index) pair.
type InvalidPartitionError struct {
	Key PartitionKey
}

func (e *InvalidPartitionError) Error() string {
	return fmt.Sprintf("partition %s/%d not found", e.Key.Topic, e.Key.Index)
}

// InvalidReplicationFactorError indicates a requested replication factor
// change would exceed the active broker count, or a removal count at or
// above the current factor.
type InvalidReplicationFactorError struct {
	Message string
}

func (e *InvalidReplicationFactorError) Error() string {
	return e.Message
}

// EmptyReplicationGroupError indicates a group has no active
// (non-decommissioned) brokers when a rebalance is attempted. Surfaced as
// a warning at the cluster level, not fatal.
type EmptyReplicationGroupError struct {
	GroupID string
}

func (e *EmptyReplicationGroupError) Error() string {
	return fmt.Sprintf("replication group %s has no active brokers", e.GroupID)
}

// NotEligibleGroupError indicates AcquirePartition found no legal
// destination broker in the candidate group. Used for control flow during
// force-decommission; not intended to surface to an end user.
type NotEligibleGroupError struct {
	GroupID string
	Key     PartitionKey
}

func (e *NotEligibleGroupError) Error() string {
	return fmt.Sprintf("replication group %s has no eligible broker for partition %s/%d",
		e.GroupID, e.Key.Topic, e.Key.Index)
}

// BrokerDecommissionError indicates that, after every attempt, one or more
// decommissioned brokers still hold partitions. Unreassigned maps each such
// broker id to the partition keys it could not be relieved of.
type BrokerDecommissionError struct {
	Unreassigned map[int][]PartitionKey
}

func (e *BrokerDecommissionError) Error() string {
	total := 0
	ids := make([]int, 0, len(e.Unreassigned))
	for id, keys := range e.Unreassigned {
		total += len(keys)
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return fmt.Sprintf("could not decommission brokers %v: %d partitions could not be reassigned",
		ids, total)
}

// RebalanceError indicates a precondition for the requested rebalance
// pass failed.
type RebalanceError struct {
	Message string
}

func (e *RebalanceError) Error() string {
	return e.Message
}
