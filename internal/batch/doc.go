// Package batch drives a conversion run: discovery, partitioning into chunks
// bounded by the concurrency ceiling, chunk-by-chunk concurrent execution, and
// aggregation of per-item outcomes into a single result.
//
// Discovery is fail-fast. Execution is best-effort: a failed item never
// cancels its siblings and, unless stop-on-failure is set, later chunks still
// run. Outcomes are folded into the Result by the scheduling goroutine after
// each chunk drains, so tasks share no mutable state.
package batch
