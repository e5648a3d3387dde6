package rpc

import (
	"context"
	"time"

	"github.com/cuemby/gcsd/pkg/actor"
	"github.com/cuemby/gcsd/pkg/heartbeat"
	"github.com/cuemby/gcsd/pkg/job"
	"github.com/cuemby/gcsd/pkg/node"
	"github.com/cuemby/gcsd/pkg/object"
	"github.com/cuemby/gcsd/pkg/placementgroup"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/cuemby/gcsd/pkg/worker"
)

// Handlers is the RPC-facing adapter over the managers (§6): it translates
// between the JSON request/response shapes in messages.go and the domain
// calls each manager already exposes. It holds no state of its own.
type Handlers struct {
	Nodes           *node.Manager
	Resources       *resource.Manager
	Heartbeat       *heartbeat.Manager
	Jobs            *job.Manager
	Actors          *actor.Manager
	PlacementGroups *placementgroup.Manager
	Objects         *object.Manager
	Workers         *worker.Manager
	Store           store.Store
}

// NodeInfo service

func (h *Handlers) RegisterNode(_ context.Context, req *RegisterNodeRequest) (*RegisterNodeResponse, error) {
	if err := h.Nodes.Register(req.Node); err != nil {
		return nil, statusFromErr(err)
	}
	return &RegisterNodeResponse{Node: req.Node}, nil
}

func (h *Handlers) GetNode(_ context.Context, req *GetNodeRequest) (*GetNodeResponse, error) {
	n, err := h.Nodes.GetNode(req.NodeID)
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &GetNodeResponse{Node: n}, nil
}

func (h *Handlers) GetAllNodes(_ context.Context, req *GetAllNodesRequest) (*GetAllNodesResponse, error) {
	if req.AliveOnly {
		return &GetAllNodesResponse{Nodes: h.Nodes.GetAllAliveNodes()}, nil
	}
	return &GetAllNodesResponse{Nodes: h.Nodes.GetAllNodes()}, nil
}

// HeartbeatInfo service

func (h *Handlers) RecordHeartbeat(_ context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	if err := h.Nodes.Heartbeat(req.NodeID); err != nil {
		return nil, statusFromErr(err)
	}
	h.Heartbeat.Heartbeat(req.NodeID)
	return &HeartbeatResponse{}, nil
}

// NodeResourceInfo service

func (h *Handlers) ReportResourceUsage(_ context.Context, req *ReportResourceUsageRequest) (*ReportResourceUsageResponse, error) {
	h.Resources.ReportResources(&types.ResourceView{
		NodeID:       req.NodeID,
		Total:        req.Total,
		Available:    req.Available,
		LastReportAt: time.Now(),
	})
	return &ReportResourceUsageResponse{}, nil
}

func (h *Handlers) GetAllResourceUsage(context.Context, *GetAllResourceUsageRequest) (*GetAllResourceUsageResponse, error) {
	return &GetAllResourceUsageResponse{Views: h.Resources.Snapshot()}, nil
}

// JobInfo service

func (h *Handlers) SubmitJob(_ context.Context, req *SubmitJobRequest) (*SubmitJobResponse, error) {
	if err := h.Jobs.Submit(req.Job); err != nil {
		return nil, statusFromErr(err)
	}
	return &SubmitJobResponse{Job: req.Job}, nil
}

func (h *Handlers) FinishJob(_ context.Context, req *FinishJobRequest) (*FinishJobResponse, error) {
	if err := h.Jobs.Finish(req.JobID); err != nil {
		return nil, statusFromErr(err)
	}
	return &FinishJobResponse{}, nil
}

func (h *Handlers) GetJob(_ context.Context, req *GetJobRequest) (*GetJobResponse, error) {
	j, ok := h.Jobs.GetJob(req.JobID)
	if !ok {
		return nil, statusFromErr(store.ErrNotFound)
	}
	return &GetJobResponse{Job: j}, nil
}

func (h *Handlers) ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error) {
	return &ListJobsResponse{Jobs: h.Jobs.ListJobs()}, nil
}

// ActorInfo service

func (h *Handlers) RegisterActor(_ context.Context, req *RegisterActorRequest) (*RegisterActorResponse, error) {
	a, err := h.Actors.Register(req.Actor, req.DependenciesReady)
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &RegisterActorResponse{Actor: a}, nil
}

func (h *Handlers) MarkDependenciesReady(_ context.Context, req *MarkDependenciesReadyRequest) (*MarkDependenciesReadyResponse, error) {
	if err := h.Actors.MarkDependenciesReady(req.ActorID); err != nil {
		return nil, statusFromErr(err)
	}
	return &MarkDependenciesReadyResponse{}, nil
}

func (h *Handlers) GetActor(_ context.Context, req *GetActorRequest) (*GetActorResponse, error) {
	a, ok := h.Actors.GetActor(req.ActorID)
	if !ok {
		return nil, statusFromErr(store.ErrNotFound)
	}
	return &GetActorResponse{Actor: a}, nil
}

func (h *Handlers) GetActorByName(_ context.Context, req *GetActorByNameRequest) (*GetActorByNameResponse, error) {
	a, ok := h.Actors.GetActorByName(req.Namespace, req.Name)
	if !ok {
		return nil, statusFromErr(store.ErrNotFound)
	}
	return &GetActorByNameResponse{Actor: a}, nil
}

func (h *Handlers) ListActors(context.Context, *ListActorsRequest) (*ListActorsResponse, error) {
	return &ListActorsResponse{Actors: h.Actors.ListActors()}, nil
}

func (h *Handlers) KillActor(_ context.Context, req *KillActorRequest) (*KillActorResponse, error) {
	if err := h.Actors.Kill(req.ActorID, req.NoRestart); err != nil {
		return nil, statusFromErr(err)
	}
	return &KillActorResponse{}, nil
}

// PlacementGroupInfo service

func (h *Handlers) CreatePlacementGroup(_ context.Context, req *CreatePlacementGroupRequest) (*CreatePlacementGroupResponse, error) {
	pg, err := h.PlacementGroups.Create(req.Strategy, req.Bundles, req.JobID, req.Name, req.Namespace, req.OwnerActorID)
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &CreatePlacementGroupResponse{PlacementGroup: pg}, nil
}

func (h *Handlers) RemovePlacementGroup(_ context.Context, req *RemovePlacementGroupRequest) (*RemovePlacementGroupResponse, error) {
	if err := h.PlacementGroups.Remove(req.PlacementGroupID); err != nil {
		return nil, statusFromErr(err)
	}
	return &RemovePlacementGroupResponse{}, nil
}

func (h *Handlers) GetPlacementGroup(_ context.Context, req *GetPlacementGroupRequest) (*GetPlacementGroupResponse, error) {
	pg, ok := h.PlacementGroups.GetPlacementGroup(req.PlacementGroupID)
	if !ok {
		return nil, statusFromErr(store.ErrNotFound)
	}
	return &GetPlacementGroupResponse{PlacementGroup: pg}, nil
}

func (h *Handlers) ListPlacementGroups(context.Context, *ListPlacementGroupsRequest) (*ListPlacementGroupsResponse, error) {
	return &ListPlacementGroupsResponse{PlacementGroups: h.PlacementGroups.ListPlacementGroups()}, nil
}

func (h *Handlers) WaitPlacementGroupUntilReady(ctx context.Context, req *WaitPlacementGroupUntilReadyRequest) (*WaitPlacementGroupUntilReadyResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	pg, err := h.PlacementGroups.WaitUntilReady(ctx, req.PlacementGroupID)
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &WaitPlacementGroupUntilReadyResponse{PlacementGroup: pg}, nil
}

// ObjectInfo service

func (h *Handlers) AddObjectLocation(_ context.Context, req *AddObjectLocationRequest) (*AddObjectLocationResponse, error) {
	if err := h.Objects.AddLocation(req.ObjectID, req.NodeID); err != nil {
		return nil, statusFromErr(err)
	}
	return &AddObjectLocationResponse{}, nil
}

func (h *Handlers) RemoveObjectLocation(_ context.Context, req *RemoveObjectLocationRequest) (*RemoveObjectLocationResponse, error) {
	if err := h.Objects.RemoveLocation(req.ObjectID, req.NodeID); err != nil {
		return nil, statusFromErr(err)
	}
	return &RemoveObjectLocationResponse{}, nil
}

func (h *Handlers) GetObjectLocations(_ context.Context, req *GetObjectLocationsRequest) (*GetObjectLocationsResponse, error) {
	return &GetObjectLocationsResponse{Location: h.Objects.GetLocations(req.ObjectID)}, nil
}

// WorkerInfo service

func (h *Handlers) ReportWorkerFailure(_ context.Context, req *ReportWorkerFailureRequest) (*ReportWorkerFailureResponse, error) {
	if err := h.Workers.ReportWorkerFailure(req.WorkerID, req.NodeID, req.ExitType, req.Detail); err != nil {
		return nil, statusFromErr(err)
	}
	return &ReportWorkerFailureResponse{}, nil
}

func (h *Handlers) GetWorker(_ context.Context, req *GetWorkerRequest) (*GetWorkerResponse, error) {
	w, ok := h.Workers.GetWorker(req.WorkerID)
	if !ok {
		return nil, statusFromErr(store.ErrNotFound)
	}
	return &GetWorkerResponse{Worker: w}, nil
}

// TaskInfo service: thin recording passthrough, per the external-collaborator
// framing in spec.md §1 — the GCS stores what it's told and does not
// interpret task execution state.

func (h *Handlers) AddTaskEvent(_ context.Context, req *AddTaskEventRequest) (*AddTaskEventResponse, error) {
	return &AddTaskEventResponse{}, statusFromErr(h.Store.KVPut("task_events", req.TaskID, mustJSON(req)))
}

// Stats service: same passthrough framing as TaskInfo.

func (h *Handlers) AddProfileData(_ context.Context, req *AddProfileDataRequest) (*AddProfileDataResponse, error) {
	return &AddProfileDataResponse{}, statusFromErr(h.Store.KVPut("profile_data", req.ComponentID, mustJSON(req)))
}

// InternalKV service (§6 reserved-key store layout, including
// store.ReservedGCSAddressKey).

func (h *Handlers) KVPut(_ context.Context, req *KVPutRequest) (*KVPutResponse, error) {
	if err := h.Store.KVPut(req.Namespace, req.Key, req.Value); err != nil {
		return nil, statusFromErr(err)
	}
	return &KVPutResponse{}, nil
}

func (h *Handlers) KVGet(_ context.Context, req *KVGetRequest) (*KVGetResponse, error) {
	v, err := h.Store.KVGet(req.Namespace, req.Key)
	if err != nil {
		if errorsIsNotFound(err) {
			return &KVGetResponse{Found: false}, nil
		}
		return nil, statusFromErr(err)
	}
	return &KVGetResponse{Value: v, Found: true}, nil
}

func (h *Handlers) KVDel(_ context.Context, req *KVDelRequest) (*KVDelResponse, error) {
	if err := h.Store.KVDel(req.Namespace, req.Key); err != nil {
		return nil, statusFromErr(err)
	}
	return &KVDelResponse{}, nil
}

func (h *Handlers) KVList(_ context.Context, req *KVListRequest) (*KVListResponse, error) {
	entries, err := h.Store.KVList(req.Namespace)
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &KVListResponse{Entries: entries}, nil
}
