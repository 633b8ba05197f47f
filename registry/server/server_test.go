package server

import (
	"context"
	"testing"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

func loadedMockServer(t *testing.T) *Server {
	t.Helper()

	s := mockServer()

	ct := topo.New()
	ct.AddBroker(1, "a", false, false)
	ct.AddBroker(2, "a", false, false)
	ct.AddBroker(3, "b", false, false)
	ct.AddBroker(4, "b", false, false)

	for i := 0; i < 8; i++ {
		if _, err := ct.AddPartition("t", i, []int{1, 3}); err != nil {
			t.Fatalf("AddPartition: %s", err)
		}
	}

	s.SetTopology(ct)
	return s
}

func TestServerRebalanceDispatches(t *testing.T) {
	s := loadedMockServer(t)

	resp, err := s.Rebalance(context.Background(), &RebalanceRequest{
		ReplicationGroups: true,
		Brokers:           true,
		Leaders:           true,
	})
	if err != nil {
		t.Fatalf("Rebalance: %s", err)
	}
	if resp == nil {
		t.Fatal("expected a non-nil response")
	}
}

func TestServerDecommissionBrokersDispatches(t *testing.T) {
	s := loadedMockServer(t)

	resp, err := s.DecommissionBrokers(context.Background(), &DecommissionBrokersRequest{
		BrokerIDs: []int{2},
	})
	if err != nil {
		t.Fatalf("DecommissionBrokers: %s", err)
	}
	for _, m := range resp.ReplicaMoves {
		if m.FromBroker == 2 {
			t.Fatalf("broker 2 held no replicas, yet a move off it was reported: %+v", m)
		}
	}
}

func TestServerAddReplicaDispatches(t *testing.T) {
	s := loadedMockServer(t)

	resp, err := s.AddReplica(context.Background(), &AddReplicaRequest{
		Partition: PartitionKey{Topic: "t", Partition: 0},
		Count:     1,
	})
	if err != nil {
		t.Fatalf("AddReplica: %s", err)
	}
	if len(resp.AddedBrokers) != 1 {
		t.Fatalf("expected 1 added broker, got %d", len(resp.AddedBrokers))
	}
}

func TestServerRemoveReplicaDispatches(t *testing.T) {
	s := loadedMockServer(t)

	resp, err := s.RemoveReplica(context.Background(), &RemoveReplicaRequest{
		Partition: PartitionKey{Topic: "t", Partition: 0},
		Count:     1,
	})
	if err != nil {
		t.Fatalf("RemoveReplica: %s", err)
	}
	if len(resp.RemovedBrokers) != 1 {
		t.Fatalf("expected 1 removed broker, got %d", len(resp.RemovedBrokers))
	}
}

func TestServerRejectsRequestsWithNoTopologyLoaded(t *testing.T) {
	s, err := NewServer(ServerConfig{ReadReqRate: 1, WriteReqRate: 1, mock: true})
	if err != nil {
		t.Fatalf("NewServer: %s", err)
	}

	if _, err := s.Rebalance(context.Background(), &RebalanceRequest{Brokers: true}); err == nil {
		t.Fatal("expected an error with no topology loaded")
	}
}
