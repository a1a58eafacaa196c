// Package domain defines the core domain types for the Cockpit
// discovery and onboarding system.
//
// This package contains the fundamental entities and value objects for
// network scanning and device onboarding: scan requests, jobs, results
// and their progress counters, onboarding selections and summaries, and
// connection credentials.
//
// # Scan Types
//
// ScanRequest is the immutable, validated input to a scan job: the
// CIDR ranges to probe, the ordered credential references to try, the
// classification mode, and optional output-parsing template names.
//
// ScanCounters and ScanResult capture the live progress and per-host
// outcomes of a job. A host appears in the result list at most once,
// and only if it answered the reachability probe.
//
// # Onboarding Types
//
// OnboardRequest selects a subset of a finished job's results together
// with the metadata the registration system or inventory template
// needs. OnboardResult reports both onboarding branches: devices queued
// for structured registration and hosts merged into the rendered
// inventory.
//
// # Secrets
//
// Secret represents connection credentials (SSH keys, SSH passwords,
// API tokens) used during credential trials. Scan results carry only
// the credential reference id, never the secret data.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
// - Rich type system with meaningful constants and enumerations
package domain
