package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// unaryHandler builds a grpc.MethodDesc.Handler without protoc-gen-go-grpc:
// there is no .proto pipeline in this module, so the decode/dispatch glue
// that codegen would normally emit is written once, generically, here
// instead of by hand per RPC.
func unaryHandler(fullMethod string, newReq func() interface{}, call func(*Handlers, context.Context, interface{}) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		req := newReq()
		if err := dec(req); err != nil {
			return nil, err
		}
		h := srv.(*Handlers)
		if interceptor == nil {
			return call(h, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		wrapped := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(h, ctx, req)
		}
		return interceptor(ctx, req, info, wrapped)
	}
}

func method(service, name string, newReq func() interface{}, call func(*Handlers, context.Context, interface{}) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler:    unaryHandler("/gcs."+service+"/"+name, newReq, call),
	}
}

// NodeInfoServiceDesc is the node lifecycle surface (register, lookup,
// listing). Heartbeat lives on its own service so a client can hit the
// lightweight aux-loop path separately from the rest of node lookup.
var NodeInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.NodeInfo",
	HandlerType: (*nodeInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("NodeInfo", "RegisterNode",
			func() interface{} { return new(RegisterNodeRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.RegisterNode(ctx, req.(*RegisterNodeRequest))
			}),
		method("NodeInfo", "GetNode",
			func() interface{} { return new(GetNodeRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetNode(ctx, req.(*GetNodeRequest))
			}),
		method("NodeInfo", "GetAllNodes",
			func() interface{} { return new(GetAllNodesRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetAllNodes(ctx, req.(*GetAllNodesRequest))
			}),
	},
}

// HeartbeatInfoServiceDesc carries the aux-loop heartbeat RPC (§4.3): fast,
// frequent, and deliberately the only method on this service so it never
// waits behind slower NodeInfo calls in a shared queue.
var HeartbeatInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.HeartbeatInfo",
	HandlerType: (*heartbeatInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("HeartbeatInfo", "Heartbeat",
			func() interface{} { return new(HeartbeatRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.RecordHeartbeat(ctx, req.(*HeartbeatRequest))
			}),
	},
}

// NodeResourceInfoServiceDesc serves both the push broadcast path (when
// config.GRPCBasedResourceBroadcast is set) and plain polled reads.
var NodeResourceInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.NodeResourceInfo",
	HandlerType: (*nodeResourceInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("NodeResourceInfo", "ReportResourceUsage",
			func() interface{} { return new(ReportResourceUsageRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.ReportResourceUsage(ctx, req.(*ReportResourceUsageRequest))
			}),
		method("NodeResourceInfo", "GetAllResourceUsage",
			func() interface{} { return new(GetAllResourceUsageRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetAllResourceUsage(ctx, req.(*GetAllResourceUsageRequest))
			}),
	},
}

var JobInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.JobInfo",
	HandlerType: (*jobInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("JobInfo", "SubmitJob",
			func() interface{} { return new(SubmitJobRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.SubmitJob(ctx, req.(*SubmitJobRequest))
			}),
		method("JobInfo", "FinishJob",
			func() interface{} { return new(FinishJobRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.FinishJob(ctx, req.(*FinishJobRequest))
			}),
		method("JobInfo", "GetJob",
			func() interface{} { return new(GetJobRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetJob(ctx, req.(*GetJobRequest))
			}),
		method("JobInfo", "ListJobs",
			func() interface{} { return new(ListJobsRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.ListJobs(ctx, req.(*ListJobsRequest))
			}),
	},
}

var ActorInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.ActorInfo",
	HandlerType: (*actorInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("ActorInfo", "RegisterActor",
			func() interface{} { return new(RegisterActorRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.RegisterActor(ctx, req.(*RegisterActorRequest))
			}),
		method("ActorInfo", "MarkDependenciesReady",
			func() interface{} { return new(MarkDependenciesReadyRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.MarkDependenciesReady(ctx, req.(*MarkDependenciesReadyRequest))
			}),
		method("ActorInfo", "GetActor",
			func() interface{} { return new(GetActorRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetActor(ctx, req.(*GetActorRequest))
			}),
		method("ActorInfo", "GetActorByName",
			func() interface{} { return new(GetActorByNameRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetActorByName(ctx, req.(*GetActorByNameRequest))
			}),
		method("ActorInfo", "ListActors",
			func() interface{} { return new(ListActorsRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.ListActors(ctx, req.(*ListActorsRequest))
			}),
		method("ActorInfo", "KillActor",
			func() interface{} { return new(KillActorRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.KillActor(ctx, req.(*KillActorRequest))
			}),
	},
}

var PlacementGroupInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.PlacementGroupInfo",
	HandlerType: (*placementGroupInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("PlacementGroupInfo", "CreatePlacementGroup",
			func() interface{} { return new(CreatePlacementGroupRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.CreatePlacementGroup(ctx, req.(*CreatePlacementGroupRequest))
			}),
		method("PlacementGroupInfo", "RemovePlacementGroup",
			func() interface{} { return new(RemovePlacementGroupRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.RemovePlacementGroup(ctx, req.(*RemovePlacementGroupRequest))
			}),
		method("PlacementGroupInfo", "GetPlacementGroup",
			func() interface{} { return new(GetPlacementGroupRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetPlacementGroup(ctx, req.(*GetPlacementGroupRequest))
			}),
		method("PlacementGroupInfo", "ListPlacementGroups",
			func() interface{} { return new(ListPlacementGroupsRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.ListPlacementGroups(ctx, req.(*ListPlacementGroupsRequest))
			}),
		method("PlacementGroupInfo", "WaitPlacementGroupUntilReady",
			func() interface{} { return new(WaitPlacementGroupUntilReadyRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.WaitPlacementGroupUntilReady(ctx, req.(*WaitPlacementGroupUntilReadyRequest))
			}),
	},
}

var ObjectInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.ObjectInfo",
	HandlerType: (*objectInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("ObjectInfo", "AddObjectLocation",
			func() interface{} { return new(AddObjectLocationRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.AddObjectLocation(ctx, req.(*AddObjectLocationRequest))
			}),
		method("ObjectInfo", "RemoveObjectLocation",
			func() interface{} { return new(RemoveObjectLocationRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.RemoveObjectLocation(ctx, req.(*RemoveObjectLocationRequest))
			}),
		method("ObjectInfo", "GetObjectLocations",
			func() interface{} { return new(GetObjectLocationsRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetObjectLocations(ctx, req.(*GetObjectLocationsRequest))
			}),
	},
}

var WorkerInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.WorkerInfo",
	HandlerType: (*workerInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("WorkerInfo", "ReportWorkerFailure",
			func() interface{} { return new(ReportWorkerFailureRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.ReportWorkerFailure(ctx, req.(*ReportWorkerFailureRequest))
			}),
		method("WorkerInfo", "GetWorker",
			func() interface{} { return new(GetWorkerRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.GetWorker(ctx, req.(*GetWorkerRequest))
			}),
	},
}

// TaskInfoServiceDesc and StatsServiceDesc are thin recording passthroughs
// (see handlers.go); spec.md §1 treats their analysis as an external
// collaborator's concern.

var TaskInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.TaskInfo",
	HandlerType: (*taskInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		method("TaskInfo", "AddTaskEvent",
			func() interface{} { return new(AddTaskEventRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.AddTaskEvent(ctx, req.(*AddTaskEventRequest))
			}),
	},
}

var StatsServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.Stats",
	HandlerType: (*statsServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Stats", "AddProfileData",
			func() interface{} { return new(AddProfileDataRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.AddProfileData(ctx, req.(*AddProfileDataRequest))
			}),
	},
}

var InternalKVServiceDesc = grpc.ServiceDesc{
	ServiceName: "gcs.InternalKV",
	HandlerType: (*internalKVServer)(nil),
	Methods: []grpc.MethodDesc{
		method("InternalKV", "KVPut",
			func() interface{} { return new(KVPutRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.KVPut(ctx, req.(*KVPutRequest))
			}),
		method("InternalKV", "KVGet",
			func() interface{} { return new(KVGetRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.KVGet(ctx, req.(*KVGetRequest))
			}),
		method("InternalKV", "KVDel",
			func() interface{} { return new(KVDelRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.KVDel(ctx, req.(*KVDelRequest))
			}),
		method("InternalKV", "KVList",
			func() interface{} { return new(KVListRequest) },
			func(h *Handlers, ctx context.Context, req interface{}) (interface{}, error) {
				return h.KVList(ctx, req.(*KVListRequest))
			}),
	},
}

// allServiceDescs is every service this server registers, in the order
// listed in spec.md §6.
var allServiceDescs = []*grpc.ServiceDesc{
	&NodeInfoServiceDesc,
	&HeartbeatInfoServiceDesc,
	&NodeResourceInfoServiceDesc,
	&JobInfoServiceDesc,
	&ActorInfoServiceDesc,
	&PlacementGroupInfoServiceDesc,
	&ObjectInfoServiceDesc,
	&WorkerInfoServiceDesc,
	&TaskInfoServiceDesc,
	&StatsServiceDesc,
	&InternalKVServiceDesc,
}
