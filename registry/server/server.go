// Package server fronts the rebalancing engine with a gRPC control plane,
// grounded on the teacher's registry/server package (NewServer, DialZK)
// adapted to this spec's RPCs (Rebalance, DecommissionBrokers, AddReplica,
// RemoveReplica) instead of topic/broker metadata management.
package server

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/anthonysandrin/kafka-rebalancer/topology"
	"github.com/anthonysandrin/kafka-rebalancer/topology/balance"
	"github.com/anthonysandrin/kafka-rebalancer/zkloader"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ServerConfig configures a Server's rate limits; the ZooKeeper target is
// passed to DialZK. ReadReqRate/WriteReqRate are requests-per-second ceilings,
// mirroring the teacher's ServerConfig.ReadReqRate/WriteReqRate.
type ServerConfig struct {
	ReadReqRate  float64
	WriteReqRate float64

	// mock skips the real ZooKeeper dial in DialZK; set only by tests in
	// this package.
	mock bool
}

// Server implements RebalancerServer over an in-memory ClusterTopology,
// loaded once by DialZK or installed by SetTopology; it is not reloaded
// afterwards.
type Server struct {
	config ServerConfig

	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter

	loader *zkloader.Loader

	mu  sync.RWMutex
	top *topology.ClusterTopology
}

// NewServer constructs a Server. It holds no ClusterTopology until DialZK
// (or SetTopology, for tests) populates one.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.ReadReqRate <= 0 {
		return nil, fmt.Errorf("server: ReadReqRate must be positive")
	}
	if cfg.WriteReqRate <= 0 {
		return nil, fmt.Errorf("server: WriteReqRate must be positive")
	}

	return &Server{
		config:       cfg,
		readLimiter:  rate.NewLimiter(rate.Limit(cfg.ReadReqRate), 1),
		writeLimiter: rate.NewLimiter(rate.Limit(cfg.WriteReqRate), 1),
	}, nil
}

// DialZK connects to ZooKeeper and loads the initial topology. Mirrors the
// teacher's s.DialZK(ctx, logger, cfg) shape; a mock Server (tests in this
// package only) skips the dial entirely.
func (s *Server) DialZK(ctx context.Context, onConnect func(string), cfg *zkloader.Config) error {
	if s.config.mock {
		s.mu.Lock()
		s.top = topology.New()
		s.mu.Unlock()
		return nil
	}
	if cfg == nil {
		return fmt.Errorf("server: zkloader.Config required outside mock mode")
	}

	loader, err := zkloader.Dial(*cfg)
	if err != nil {
		return err
	}
	s.loader = loader

	ct, err := loader.LoadTopology([]*regexp.Regexp{regexp.MustCompile(".*")})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.top = ct
	s.mu.Unlock()

	if onConnect != nil {
		onConnect(fmt.Sprintf("connected to zookeeper at %v", cfg.Addrs))
	}

	return nil
}

// SetTopology installs ct directly, bypassing ZooKeeper. The tests in this
// package use it to serve a hand-built topology.
func (s *Server) SetTopology(ct *topology.ClusterTopology) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top = ct
}

func (s *Server) snapshot() (*topology.ClusterTopology, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.top == nil {
		return nil, fmt.Errorf("server: no topology loaded")
	}
	return s.top, nil
}

func toReplicaMoves(moves []balance.ReplicaMove) []ReplicaMove {
	out := make([]ReplicaMove, len(moves))
	for i, m := range moves {
		out[i] = ReplicaMove{
			Topic: m.Partition.Topic, Partition: m.Partition.Index,
			FromBroker: m.FromBroker, ToBroker: m.ToBroker,
		}
	}
	return out
}

func toLeaderChanges(changes []balance.LeaderChange) []LeaderChange {
	out := make([]LeaderChange, len(changes))
	for i, c := range changes {
		out[i] = LeaderChange{Topic: c.Partition.Topic, Partition: c.Partition.Index, NewLeader: c.NewLeader}
	}
	return out
}

// Rebalance runs the requested passes against the server's current
// topology.
func (s *Server) Rebalance(ctx context.Context, req *RebalanceRequest) (*RebalanceResponse, error) {
	if err := s.writeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	ct, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := balance.Rebalance(ct, balance.RebalanceOptions{
		ReplicationGroups:     req.ReplicationGroups,
		Brokers:               req.Brokers,
		Leaders:               req.Leaders,
		MaxPartitionMovements: req.MaxPartitionMovements,
		MaxLeaderChanges:      req.MaxLeaderChanges,
		MaxMovementSize:       req.MaxMovementSize,
	})
	if err != nil {
		return nil, err
	}

	return &RebalanceResponse{
		ReplicaMoves:  toReplicaMoves(result.ReplicaMoves),
		LeaderChanges: toLeaderChanges(result.LeaderChanges),
		Warnings:      result.Warnings,
	}, nil
}

// DecommissionBrokers drains the requested brokers.
func (s *Server) DecommissionBrokers(ctx context.Context, req *DecommissionBrokersRequest) (*DecommissionBrokersResponse, error) {
	if err := s.writeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	ct, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := balance.DecommissionBrokers(ct, req.BrokerIDs)
	if err != nil {
		return nil, err
	}

	return &DecommissionBrokersResponse{
		ReplicaMoves: toReplicaMoves(result.ReplicaMoves),
		Warnings:     result.Warnings,
	}, nil
}

// AddReplica increases a partition's replication factor.
func (s *Server) AddReplica(ctx context.Context, req *AddReplicaRequest) (*AddReplicaResponse, error) {
	if err := s.writeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	ct, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := topology.PartitionKey{Topic: req.Partition.Topic, Index: req.Partition.Partition}
	result, err := balance.AddReplica(ct, key, req.Count)
	if err != nil {
		return nil, err
	}

	added := make([]int, len(result.Additions))
	for i, a := range result.Additions {
		added[i] = a.Broker
	}

	return &AddReplicaResponse{AddedBrokers: added}, nil
}

// RemoveReplica decreases a partition's replication factor.
func (s *Server) RemoveReplica(ctx context.Context, req *RemoveReplicaRequest) (*RemoveReplicaResponse, error) {
	if err := s.writeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	ct, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := topology.PartitionKey{Topic: req.Partition.Topic, Index: req.Partition.Partition}
	result, err := balance.RemoveReplica(ct, key, req.OutOfSyncBroker, req.Count)
	if err != nil {
		return nil, err
	}

	removed := make([]int, len(result.Removals))
	for i, r := range result.Removals {
		removed[i] = r.Broker
	}

	return &RemoveReplicaResponse{RemovedBrokers: removed}, nil
}

// NewGRPCServer builds a *grpc.Server with s registered. No codec option is
// set on the server; gRPC picks the codec from each request's content
// subtype, and this package registers its "json" codec in init, so clients
// dial with grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")).
func NewGRPCServer(s *Server) *grpc.Server {
	gs := grpc.NewServer()
	RegisterRebalancerServer(gs, s)
	return gs
}
