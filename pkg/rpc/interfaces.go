package rpc

import "context"

// The interfaces below stand in for what protoc-gen-go-grpc would
// otherwise generate per service (a XxxServer interface plus a
// RegisterXxxServer helper). grpc.ServiceDesc.HandlerType must be a
// pointer to an interface, not a concrete type: grpc-go's RegisterService
// calls reflect.Type.Implements against it, which panics on a non-interface
// type. *Handlers satisfies all of them; the split exists only so each
// ServiceDesc documents the method set it actually dispatches to.

type nodeInfoServer interface {
	RegisterNode(context.Context, *RegisterNodeRequest) (*RegisterNodeResponse, error)
	GetNode(context.Context, *GetNodeRequest) (*GetNodeResponse, error)
	GetAllNodes(context.Context, *GetAllNodesRequest) (*GetAllNodesResponse, error)
}

type heartbeatInfoServer interface {
	RecordHeartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error)
}

type nodeResourceInfoServer interface {
	ReportResourceUsage(context.Context, *ReportResourceUsageRequest) (*ReportResourceUsageResponse, error)
	GetAllResourceUsage(context.Context, *GetAllResourceUsageRequest) (*GetAllResourceUsageResponse, error)
}

type jobInfoServer interface {
	SubmitJob(context.Context, *SubmitJobRequest) (*SubmitJobResponse, error)
	FinishJob(context.Context, *FinishJobRequest) (*FinishJobResponse, error)
	GetJob(context.Context, *GetJobRequest) (*GetJobResponse, error)
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
}

type actorInfoServer interface {
	RegisterActor(context.Context, *RegisterActorRequest) (*RegisterActorResponse, error)
	MarkDependenciesReady(context.Context, *MarkDependenciesReadyRequest) (*MarkDependenciesReadyResponse, error)
	GetActor(context.Context, *GetActorRequest) (*GetActorResponse, error)
	GetActorByName(context.Context, *GetActorByNameRequest) (*GetActorByNameResponse, error)
	ListActors(context.Context, *ListActorsRequest) (*ListActorsResponse, error)
	KillActor(context.Context, *KillActorRequest) (*KillActorResponse, error)
}

type placementGroupInfoServer interface {
	CreatePlacementGroup(context.Context, *CreatePlacementGroupRequest) (*CreatePlacementGroupResponse, error)
	RemovePlacementGroup(context.Context, *RemovePlacementGroupRequest) (*RemovePlacementGroupResponse, error)
	GetPlacementGroup(context.Context, *GetPlacementGroupRequest) (*GetPlacementGroupResponse, error)
	ListPlacementGroups(context.Context, *ListPlacementGroupsRequest) (*ListPlacementGroupsResponse, error)
	WaitPlacementGroupUntilReady(context.Context, *WaitPlacementGroupUntilReadyRequest) (*WaitPlacementGroupUntilReadyResponse, error)
}

type objectInfoServer interface {
	AddObjectLocation(context.Context, *AddObjectLocationRequest) (*AddObjectLocationResponse, error)
	RemoveObjectLocation(context.Context, *RemoveObjectLocationRequest) (*RemoveObjectLocationResponse, error)
	GetObjectLocations(context.Context, *GetObjectLocationsRequest) (*GetObjectLocationsResponse, error)
}

type workerInfoServer interface {
	ReportWorkerFailure(context.Context, *ReportWorkerFailureRequest) (*ReportWorkerFailureResponse, error)
	GetWorker(context.Context, *GetWorkerRequest) (*GetWorkerResponse, error)
}

type taskInfoServer interface {
	AddTaskEvent(context.Context, *AddTaskEventRequest) (*AddTaskEventResponse, error)
}

type statsServer interface {
	AddProfileData(context.Context, *AddProfileDataRequest) (*AddProfileDataResponse, error)
}

type internalKVServer interface {
	KVPut(context.Context, *KVPutRequest) (*KVPutResponse, error)
	KVGet(context.Context, *KVGetRequest) (*KVGetResponse, error)
	KVDel(context.Context, *KVDelRequest) (*KVDelResponse, error)
	KVList(context.Context, *KVListRequest) (*KVListResponse, error)
}

// compile-time assertions that Handlers satisfies every service interface.
var (
	_ nodeInfoServer           = (*Handlers)(nil)
	_ heartbeatInfoServer      = (*Handlers)(nil)
	_ nodeResourceInfoServer   = (*Handlers)(nil)
	_ jobInfoServer            = (*Handlers)(nil)
	_ actorInfoServer          = (*Handlers)(nil)
	_ placementGroupInfoServer = (*Handlers)(nil)
	_ objectInfoServer         = (*Handlers)(nil)
	_ workerInfoServer         = (*Handlers)(nil)
	_ taskInfoServer           = (*Handlers)(nil)
	_ statsServer              = (*Handlers)(nil)
	_ internalKVServer         = (*Handlers)(nil)
)
