package rpc

import (
	"time"

	"github.com/cuemby/gcsd/pkg/types"
)

// Request/response shapes for the services in services.go. These are
// the JSON equivalent of what a .proto file would otherwise generate;
// field names match the domain structs in pkg/types rather than inventing
// a parallel wire vocabulary.

// NodeInfo service

type RegisterNodeRequest struct {
	Node *types.NodeInfo `json:"node"`
}

type RegisterNodeResponse struct {
	Node *types.NodeInfo `json:"node"`
}

type GetNodeRequest struct {
	NodeID string `json:"node_id"`
}

type GetNodeResponse struct {
	Node *types.NodeInfo `json:"node"`
}

type GetAllNodesRequest struct {
	AliveOnly bool `json:"alive_only"`
}

type GetAllNodesResponse struct {
	Nodes []*types.NodeInfo `json:"nodes"`
}

// HeartbeatInfo service

type HeartbeatRequest struct {
	NodeID string `json:"node_id"`
}

type HeartbeatResponse struct{}

// NodeResourceInfo service

type ReportResourceUsageRequest struct {
	NodeID    string          `json:"node_id"`
	Total     types.Resources `json:"total"`
	Available types.Resources `json:"available"`
}

type ReportResourceUsageResponse struct{}

type GetAllResourceUsageRequest struct{}

type GetAllResourceUsageResponse struct {
	Views []*types.ResourceView `json:"views"`
}

// JobInfo service

type SubmitJobRequest struct {
	Job *types.JobInfo `json:"job"`
}

type SubmitJobResponse struct {
	Job *types.JobInfo `json:"job"`
}

type FinishJobRequest struct {
	JobID string `json:"job_id"`
}

type FinishJobResponse struct{}

type GetJobRequest struct {
	JobID string `json:"job_id"`
}

type GetJobResponse struct {
	Job *types.JobInfo `json:"job"`
}

type ListJobsRequest struct{}

type ListJobsResponse struct {
	Jobs []*types.JobInfo `json:"jobs"`
}

// ActorInfo service

type RegisterActorRequest struct {
	Actor             *types.Actor `json:"actor"`
	DependenciesReady bool         `json:"dependencies_ready"`
}

type RegisterActorResponse struct {
	Actor *types.Actor `json:"actor"`
}

type MarkDependenciesReadyRequest struct {
	ActorID string `json:"actor_id"`
}

type MarkDependenciesReadyResponse struct{}

type GetActorRequest struct {
	ActorID string `json:"actor_id"`
}

type GetActorResponse struct {
	Actor *types.Actor `json:"actor"`
}

type GetActorByNameRequest struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

type GetActorByNameResponse struct {
	Actor *types.Actor `json:"actor"`
}

type ListActorsRequest struct{}

type ListActorsResponse struct {
	Actors []*types.Actor `json:"actors"`
}

type KillActorRequest struct {
	ActorID   string `json:"actor_id"`
	NoRestart bool   `json:"no_restart"`
}

type KillActorResponse struct{}

// PlacementGroupInfo service

type CreatePlacementGroupRequest struct {
	Strategy     types.PlacementGroupStrategy `json:"strategy"`
	Bundles      []types.Bundle               `json:"bundles"`
	JobID        string                        `json:"job_id"`
	Name         string                        `json:"name"`
	Namespace    string                        `json:"namespace"`
	OwnerActorID string                        `json:"owner_actor_id"`
}

type CreatePlacementGroupResponse struct {
	PlacementGroup *types.PlacementGroup `json:"placement_group"`
}

type RemovePlacementGroupRequest struct {
	PlacementGroupID string `json:"placement_group_id"`
}

type RemovePlacementGroupResponse struct{}

type GetPlacementGroupRequest struct {
	PlacementGroupID string `json:"placement_group_id"`
}

type GetPlacementGroupResponse struct {
	PlacementGroup *types.PlacementGroup `json:"placement_group"`
}

type ListPlacementGroupsRequest struct{}

type ListPlacementGroupsResponse struct {
	PlacementGroups []*types.PlacementGroup `json:"placement_groups"`
}

type WaitPlacementGroupUntilReadyRequest struct {
	PlacementGroupID string        `json:"placement_group_id"`
	Timeout          time.Duration `json:"timeout"`
}

type WaitPlacementGroupUntilReadyResponse struct {
	PlacementGroup *types.PlacementGroup `json:"placement_group"`
}

// ObjectInfo service

type AddObjectLocationRequest struct {
	ObjectID string `json:"object_id"`
	NodeID   string `json:"node_id"`
}

type AddObjectLocationResponse struct{}

type RemoveObjectLocationRequest struct {
	ObjectID string `json:"object_id"`
	NodeID   string `json:"node_id"`
}

type RemoveObjectLocationResponse struct{}

type GetObjectLocationsRequest struct {
	ObjectID string `json:"object_id"`
}

type GetObjectLocationsResponse struct {
	Location *types.ObjectLocation `json:"location"`
}

// WorkerInfo service

type ReportWorkerFailureRequest struct {
	WorkerID string                `json:"worker_id"`
	NodeID   string                `json:"node_id"`
	ExitType types.WorkerExitType `json:"exit_type"`
	Detail   string                `json:"detail"`
}

type ReportWorkerFailureResponse struct{}

type GetWorkerRequest struct {
	WorkerID string `json:"worker_id"`
}

type GetWorkerResponse struct {
	Worker *types.Worker `json:"worker"`
}

// TaskInfo service (recording handler only, per spec.md §1 external
// collaborator framing: the GCS stores what it is told, it does not
// analyze task execution).

type AddTaskEventRequest struct {
	TaskID  string                 `json:"task_id"`
	JobID   string                 `json:"job_id"`
	Payload map[string]interface{} `json:"payload"`
}

type AddTaskEventResponse struct{}

// Stats service (recording handler only, same framing as TaskInfo).

type AddProfileDataRequest struct {
	ComponentID string                 `json:"component_id"`
	Payload     map[string]interface{} `json:"payload"`
}

type AddProfileDataResponse struct{}

// InternalKV service

type KVPutRequest struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     []byte `json:"value"`
}

type KVPutResponse struct{}

type KVGetRequest struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

type KVGetResponse struct {
	Value []byte `json:"value"`
	Found bool   `json:"found"`
}

type KVDelRequest struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

type KVDelResponse struct{}

type KVListRequest struct {
	Namespace string `json:"namespace"`
}

type KVListResponse struct {
	Entries map[string][]byte `json:"entries"`
}
