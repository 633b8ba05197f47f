package topology

import "testing"

func buildTestCluster(t *testing.T) *ClusterTopology {
	t.Helper()
	ct := New()
	ct.AddBroker(1, "a", false, false)
	ct.AddBroker(2, "a", false, false)
	ct.AddBroker(3, "b", false, false)
	ct.AddBroker(4, "b", false, false)

	if _, err := ct.AddPartition("orders", 0, []int{1, 3}); err != nil {
		t.Fatalf("AddPartition: %s", err)
	}
	if _, err := ct.AddPartition("orders", 1, []int{2, 4}); err != nil {
		t.Fatalf("AddPartition: %s", err)
	}
	return ct
}

func TestAddPartitionBackReferences(t *testing.T) {
	ct := buildTestCluster(t)

	b1, _ := ct.Broker(1)
	if !b1.HasPartition(PartitionKey{"orders", 0}) {
		t.Errorf("expected broker 1 to hold orders/0")
	}
	if !b1.IsLeaderOf(PartitionKey{"orders", 0}) {
		t.Errorf("expected broker 1 to lead orders/0")
	}

	b3, _ := ct.Broker(3)
	if b3.IsLeaderOf(PartitionKey{"orders", 0}) {
		t.Errorf("broker 3 should not lead orders/0")
	}
	if !b3.HasPartition(PartitionKey{"orders", 0}) {
		t.Errorf("expected broker 3 to hold orders/0")
	}
}

func TestAddPartitionRejectsDuplicateBroker(t *testing.T) {
	ct := New()
	ct.AddBroker(1, "a", false, false)

	_, err := ct.AddPartition("t", 0, []int{1, 1})
	if err == nil {
		t.Fatalf("expected error for duplicate broker in replica set")
	}
}

func TestAddPartitionRejectsUnknownBroker(t *testing.T) {
	ct := New()
	ct.AddBroker(1, "a", false, false)

	_, err := ct.AddPartition("t", 0, []int{1, 99})
	if _, ok := err.(*InvalidBrokerIdError); !ok {
		t.Fatalf("expected InvalidBrokerIdError, got %v", err)
	}
}

func TestMoveReplicaPreservesLeaderPosition(t *testing.T) {
	ct := buildTestCluster(t)
	key := PartitionKey{"orders", 0}

	if err := ct.MoveReplica(key, 1, 2); err != nil {
		t.Fatalf("MoveReplica: %s", err)
	}

	p, _ := ct.Partition(key)
	if p.PreferredLeader() != 2 {
		t.Errorf("expected broker 2 to become leader at the moved position, got %d", p.PreferredLeader())
	}

	b1, _ := ct.Broker(1)
	if b1.HasPartition(key) {
		t.Errorf("broker 1 should no longer hold orders/0")
	}
	b2, _ := ct.Broker(2)
	if !b2.HasPartition(key) || !b2.IsLeaderOf(key) {
		t.Errorf("broker 2 should hold and lead orders/0")
	}
}

func TestMoveReplicaRejectsDestinationAlreadyHolding(t *testing.T) {
	ct := buildTestCluster(t)
	key := PartitionKey{"orders", 0}

	// Broker 3 already holds orders/0; moving broker 1's replica there
	// should fail.
	if err := ct.MoveReplica(key, 1, 3); err == nil {
		t.Fatalf("expected error moving to a broker that already holds the partition")
	}
}

func TestSwapLeaderPreservesFollowerOrder(t *testing.T) {
	ct := New()
	ct.AddBroker(1, "a", false, false)
	ct.AddBroker(2, "a", false, false)
	ct.AddBroker(3, "a", false, false)
	ct.AddPartition("t", 0, []int{1, 2, 3})

	key := PartitionKey{"t", 0}
	if err := ct.SwapLeader(key, 3); err != nil {
		t.Fatalf("SwapLeader: %s", err)
	}

	p, _ := ct.Partition(key)
	want := []int{3, 1, 2}
	for i, id := range want {
		if p.Replicas[i] != id {
			t.Fatalf("Replicas = %v, want %v", p.Replicas, want)
		}
	}

	b1, _ := ct.Broker(1)
	b3, _ := ct.Broker(3)
	if b1.IsLeaderOf(key) {
		t.Errorf("broker 1 should no longer lead")
	}
	if !b3.IsLeaderOf(key) {
		t.Errorf("broker 3 should now lead")
	}
}

func TestAppendAndRemoveReplica(t *testing.T) {
	ct := buildTestCluster(t)
	key := PartitionKey{"orders", 0}

	if err := ct.AppendReplica(key, 4); err != nil {
		t.Fatalf("AppendReplica: %s", err)
	}
	p, _ := ct.Partition(key)
	if p.ReplicationFactor() != 3 {
		t.Fatalf("expected replication factor 3, got %d", p.ReplicationFactor())
	}

	if err := ct.RemoveReplica(key, 1); err != nil {
		t.Fatalf("RemoveReplica: %s", err)
	}
	p, _ = ct.Partition(key)
	if p.ReplicationFactor() != 2 {
		t.Fatalf("expected replication factor 2 after removal, got %d", p.ReplicationFactor())
	}
	if p.PreferredLeader() != 3 {
		t.Fatalf("expected broker 3 to become leader by list-shift, got %d", p.PreferredLeader())
	}

	b1, _ := ct.Broker(1)
	if b1.HasPartition(key) {
		t.Errorf("broker 1 should no longer hold orders/0")
	}
}

func TestCountReplicaInGroup(t *testing.T) {
	ct := buildTestCluster(t)
	key := PartitionKey{"orders", 0}

	if got := ct.CountReplicaInGroup("a", key); got != 1 {
		t.Errorf("expected 1 replica of orders/0 in group a, got %d", got)
	}
	if got := ct.CountReplicaInGroup("b", key); got != 1 {
		t.Errorf("expected 1 replica of orders/0 in group b, got %d", got)
	}
}
