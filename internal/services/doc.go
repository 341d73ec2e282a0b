// Package services defines shared utilities consumed by the discovery, worker,
// and scheduling layers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, chunk numbers, and unit names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (path resolution, I/O, tool invocation, non-zero exit, scheduling) so the
//     CLI and run history can report them consistently.
//
// Use these helpers when wiring new batch logic so operational behaviour
// (error classification, observability) stays uniform across a run.
package services
