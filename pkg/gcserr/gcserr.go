// Package gcserr classifies the error kinds callers of the core need to
// distinguish programmatically (§7): store errors that retry or fatal the
// process, node-unreachable hints, scheduling infeasibility that must never
// surface to an RPC caller, invariant violations, and name conflicts.
package gcserr

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds enumerated in §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransientStore
	KindPermanentStore
	KindNodeUnreachable
	KindResourceInfeasible
	KindInvariantViolation
	KindNameConflict
)

func (k Kind) String() string {
	switch k {
	case KindTransientStore:
		return "transient_store_error"
	case KindPermanentStore:
		return "permanent_store_error"
	case KindNodeUnreachable:
		return "node_unreachable"
	case KindResourceInfeasible:
		return "resource_infeasible"
	case KindInvariantViolation:
		return "invariant_violation"
	case KindNameConflict:
		return "name_conflict"
	default:
		return "unknown"
	}
}

// Sentinels wrapped via %w so errors.Is keeps working through layers.
var (
	ErrTransientStore     = errors.New("transient store error")
	ErrPermanentStore     = errors.New("permanent store error")
	ErrNodeUnreachable    = errors.New("node unreachable")
	ErrResourceInfeasible = errors.New("resource infeasible")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrNameConflict       = errors.New("name conflict")
)

var sentinelKind = map[error]Kind{
	ErrTransientStore:     KindTransientStore,
	ErrPermanentStore:     KindPermanentStore,
	ErrNodeUnreachable:    KindNodeUnreachable,
	ErrResourceInfeasible: KindResourceInfeasible,
	ErrInvariantViolation: KindInvariantViolation,
	ErrNameConflict:       KindNameConflict,
}

// Classify walks err's wrap chain and returns the first recognized Kind, or
// KindUnknown if none of the sentinels match.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for sentinel, kind := range sentinelKind {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// TransientStore wraps err as a retryable store failure.
func TransientStore(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransientStore, err)
}

// PermanentStore wraps err as a fatal store failure that should trigger Stop.
func PermanentStore(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrPermanentStore, err)
}

// NodeUnreachable wraps err as an outbound-RPC hint; the heartbeat manager,
// not this error, is authoritative for death decisions.
func NodeUnreachable(nodeID string, err error) error {
	return fmt.Errorf("node %s: %w: %v", nodeID, ErrNodeUnreachable, err)
}

// ResourceInfeasible reports that no node currently satisfies a demand. It
// must never be surfaced verbatim to an RPC client; the caller parks instead.
func ResourceInfeasible(reason string) error {
	return fmt.Errorf("%w: %s", ErrResourceInfeasible, reason)
}

// InvariantViolation reports a violated structural invariant (e.g. a
// placement group's strict predicate failing after commit).
func InvariantViolation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, reason)
}

// NameConflict reports a duplicate (namespace, name) registration. Unlike
// the other kinds this is surfaced to the client verbatim.
func NameConflict(namespace, name string) error {
	return fmt.Errorf("%w: %q already registered in namespace %q", ErrNameConflict, name, namespace)
}
