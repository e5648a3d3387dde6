/*
Package log provides structured logging for gcsd using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component- and entity-specific child loggers, a configurable level, and a
handful of package-level helpers for the common case.

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Simple logging:

	log.Info("gcs server started")
	log.Debug("resource report received")
	log.Warn("heartbeat deadline missed")
	log.Error("store write failed")

Component and entity loggers:

	heartbeatLog := log.WithComponent("heartbeat")
	heartbeatLog.Info().Msg("sweep started")

	nodeLog := log.WithNodeID("node-abc123")
	nodeLog.Warn().Msg("deadline exceeded, marking dead")

	actorLog := log.WithActorID("actor-xyz789")
	actorLog.Info().Msg("actor transitioned to ALIVE")

Multiple context fields compose the same way zerolog itself does:

	taskLog := log.WithComponent("placement_group").
		With().Str("placement_group_id", "pg-1").Logger()
	taskLog.Info().Msg("bundle committed")

# Log levels

Debug is for development and hot-path tracing; Info is the default
production level; Warn flags conditions worth a human's attention without
being an operation failure; Error is a failed operation that needs
investigation; Fatal logs and calls os.Exit(1), reserved for boot-time
failures the process cannot recover from (a store that will not open, a
config that fails validation).

# Design

A single package-level Logger is initialized once via Init and read from
every other package without being threaded through constructors — the
teacher's own pattern for this library. Context loggers (WithComponent,
WithNodeID, WithActorID, WithJobID, WithPlacementGroupID) are cheap
zerolog child loggers; create one per long-lived component or entity
rather than re-attaching fields on every call.
*/
package log
