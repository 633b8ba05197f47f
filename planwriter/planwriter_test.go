package planwriter

import (
	"testing"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

func TestBuildOnlyIncludesChangedPartitions(t *testing.T) {
	ct := topo.New()
	ct.AddBroker(1, "a", false, false)
	ct.AddBroker(2, "b", false, false)
	ct.AddBroker(3, "b", false, false)

	if _, err := ct.AddPartition("t", 0, []int{1}); err != nil {
		t.Fatalf("AddPartition: %s", err)
	}
	if _, err := ct.AddPartition("t", 1, []int{1}); err != nil {
		t.Fatalf("AddPartition: %s", err)
	}

	before := Snapshot(ct)

	if err := ct.MoveReplica(topo.PartitionKey{Topic: "t", Index: 0}, 1, 2); err != nil {
		t.Fatalf("MoveReplica: %s", err)
	}

	plan := Build(ct, before)
	if plan.Version != 1 {
		t.Errorf("version = %d, want 1", plan.Version)
	}
	if len(plan.Partitions) != 1 {
		t.Fatalf("expected exactly 1 changed partition, got %d", len(plan.Partitions))
	}
	entry := plan.Partitions[0]
	if entry.Topic != "t" || entry.Partition != 0 {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if len(entry.Replicas) != 1 || entry.Replicas[0] != 2 {
		t.Errorf("expected replicas [2], got %v", entry.Replicas)
	}
}

func TestBuildEmptyWhenNothingChanged(t *testing.T) {
	ct := topo.New()
	ct.AddBroker(1, "a", false, false)
	if _, err := ct.AddPartition("t", 0, []int{1}); err != nil {
		t.Fatalf("AddPartition: %s", err)
	}

	before := Snapshot(ct)
	plan := Build(ct, before)
	if len(plan.Partitions) != 0 {
		t.Errorf("expected no changed partitions, got %d", len(plan.Partitions))
	}
}
