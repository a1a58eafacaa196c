// Package scan implements the discovery pipeline: target expansion,
// reachability probing, credential trials, and platform
// classification, coordinated as bounded asynchronous jobs.
//
// # Pipeline
//
// A scan request names up to ten networks and an ordered list of
// credential references. Expansion is fail-fast and deduplicating;
// every candidate address then runs the same per-host pipeline:
//
//	probe -> credential trial -> classification
//
// Hosts that fail a stage are counted and (past reachability)
// recorded with a failure reason; they never abort the job.
//
// # Concurrency
//
// The Coordinator bounds in-flight per-host pipelines with a
// weighted semaphore shared across the job. Counters and results are
// mutated under the job's mutex; external readers receive snapshot
// copies, so a poll during a running job is always consistent with
// itself.
//
// # Retention
//
// Finished jobs and their results are kept in memory for a bounded
// retention window and then expire; polling an expired job is
// indistinguishable from polling an unknown one.
//
// # Secrets
//
// The pipeline resolves credential references at connection time.
// Results and events carry only the reference id of the credential
// that succeeded, never its values.
package scan
