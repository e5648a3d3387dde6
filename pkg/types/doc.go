// Package types defines the control-plane entities owned by the GCS
// managers: nodes, resource views, jobs, actors, placement groups, workers,
// and object locations. Field lists mirror the ownership rule in DESIGN.md:
// each entity is mutated by exactly one manager and read elsewhere only
// through that manager's query API or an event-bus snapshot.
package types
