// Package handler implements the HTTP layer of the discovery server.
//
// # Handlers
//
// ScanHandler drives the scan lifecycle: submitting scan jobs, polling
// their progress, and onboarding selected results.
//
// SecretsHandler manages credential references. Responses only ever
// carry summaries; credential values are write-only through this API.
//
// Middleware provides request logging, panic recovery, and CORS
// support.
//
// # API Design
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - PUT for updates
// - DELETE for removal
//
// Scans are asynchronous: POST /api/scan returns 202 with a job id,
// and GET /api/scan/{id} serves eventually consistent snapshots until
// the job expires.
//
// # Server-Sent Events
//
// The /events endpoint provides real-time scan progress via SSE.
package handler
