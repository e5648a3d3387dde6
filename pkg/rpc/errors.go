package rpc

import (
	"errors"

	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusFromErr maps a domain error's gcserr.Kind (§7) onto a gRPC status
// code. KindResourceInfeasible should never reach here: Register/Create
// handlers return the parked entity with a nil error instead of surfacing
// infeasibility as an RPC failure (§7: "must never surface to an RPC
// caller"). If it does show up here anyway, treat it as ResourceExhausted
// rather than panicking the mapping.
func statusFromErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	switch gcserr.Classify(err) {
	case gcserr.KindNameConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case gcserr.KindInvariantViolation:
		return status.Error(codes.Internal, err.Error())
	case gcserr.KindTransientStore, gcserr.KindNodeUnreachable:
		return status.Error(codes.Unavailable, err.Error())
	case gcserr.KindPermanentStore:
		return status.Error(codes.Internal, err.Error())
	case gcserr.KindResourceInfeasible:
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
