package server

import (
	"context"

	"google.golang.org/grpc"
)

// RebalancerServer is the RPC surface the registry server implements. It
// plays the role a generated *_grpc.pb.go ServiceServer interface would;
// written by hand here since this module's build never invokes protoc.
type RebalancerServer interface {
	Rebalance(context.Context, *RebalanceRequest) (*RebalanceResponse, error)
	DecommissionBrokers(context.Context, *DecommissionBrokersRequest) (*DecommissionBrokersResponse, error)
	AddReplica(context.Context, *AddReplicaRequest) (*AddReplicaResponse, error)
	RemoveReplica(context.Context, *RemoveReplicaRequest) (*RemoveReplicaResponse, error)
}

func _Rebalancer_Rebalance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RebalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RebalancerServer).Rebalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rebalancer.Rebalancer/Rebalance"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RebalancerServer).Rebalance(ctx, req.(*RebalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Rebalancer_DecommissionBrokers_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DecommissionBrokersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RebalancerServer).DecommissionBrokers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rebalancer.Rebalancer/DecommissionBrokers"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RebalancerServer).DecommissionBrokers(ctx, req.(*DecommissionBrokersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Rebalancer_AddReplica_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddReplicaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RebalancerServer).AddReplica(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rebalancer.Rebalancer/AddReplica"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RebalancerServer).AddReplica(ctx, req.(*AddReplicaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Rebalancer_RemoveReplica_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RemoveReplicaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RebalancerServer).RemoveReplica(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rebalancer.Rebalancer/RemoveReplica"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RebalancerServer).RemoveReplica(ctx, req.(*RemoveReplicaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// rebalancerServiceDesc is the hand-written equivalent of what
// protoc-gen-go-grpc emits for a service with these four unary RPCs.
var rebalancerServiceDesc = grpc.ServiceDesc{
	ServiceName: "rebalancer.Rebalancer",
	HandlerType: (*RebalancerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Rebalance", Handler: _Rebalancer_Rebalance_Handler},
		{MethodName: "DecommissionBrokers", Handler: _Rebalancer_DecommissionBrokers_Handler},
		{MethodName: "AddReplica", Handler: _Rebalancer_AddReplica_Handler},
		{MethodName: "RemoveReplica", Handler: _Rebalancer_RemoveReplica_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rebalancer.proto",
}

// RegisterRebalancerServer registers srv's RPCs with a *grpc.Server, the
// same step a generated RegisterRebalancerServer function would perform.
func RegisterRebalancerServer(s *grpc.Server, srv RebalancerServer) {
	s.RegisterService(&rebalancerServiceDesc, srv)
}
