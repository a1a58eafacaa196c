// Package service implements business logic between the HTTP handlers
// and the scan and onboarding pipelines.
//
// # Services
//
// SecretsService provides unified access to credentials from multiple
// sources (mounted files, environment variables, operator-created) and
// acts as the credential resolver for scan jobs. Callers reference
// credentials by id; values are resolved at connection time and never
// appear in scan results or API responses.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE). Scan jobs publish
// lifecycle events (scan-started, scan-progress, scan-complete)
// through the same bus.
//
// # Design Principles
//
// - Services own business logic and validation
// - Repository pattern for data access
// - Event-driven for real-time updates
// - Context-aware for cancellation and timeouts
package service
