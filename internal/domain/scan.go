package domain

import (
	"fmt"
	"net"
	"time"
)

// ClassificationMode selects how far the platform classifier goes
type ClassificationMode string

const (
	// ClassificationFull runs vendor drivers first, shell probe last
	ClassificationFull ClassificationMode = "full"
	// ClassificationShell skips vendor drivers and only probes the shell
	ClassificationShell ClassificationMode = "shell"
)

// DeviceFamily is the coarse classification of an authenticated host
type DeviceFamily string

const (
	FamilyNetworkDevice DeviceFamily = "network-device"
	FamilyGeneralServer DeviceFamily = "general-server"
)

// FailureReason classifies a per-host outcome that stopped the pipeline
type FailureReason string

const (
	FailureAuth              FailureReason = "auth-failed"
	FailureDriverUnsupported FailureReason = "driver-not-supported"
)

// ScanRequest is the immutable input to a scan job.
// It is validated once at submission; no network activity happens
// for an invalid request.
type ScanRequest struct {
	// CIDRs are the networks to expand and probe (max 10)
	CIDRs []string `json:"cidrs"`
	// CredentialIDs are tried in order against each alive host
	CredentialIDs []string `json:"credential_ids"`
	// Mode selects full-driver or shell-only classification
	Mode ClassificationMode `json:"mode,omitempty"`
	// ParseTemplates are optional output-parsing template names
	ParseTemplates []string `json:"parse_templates,omitempty"`
}

// MaxNetworks is the cap on input networks per request, independent
// of per-network size
const MaxNetworks = 10

// Validate checks the request shape before any expansion happens.
// Per-network size limits are enforced by the target expander, which
// needs the configured minimum prefix.
func (r *ScanRequest) Validate() error {
	if len(r.CIDRs) == 0 {
		return fmt.Errorf("no networks given")
	}
	if len(r.CIDRs) > MaxNetworks {
		return fmt.Errorf("too many networks: %d (max %d)", len(r.CIDRs), MaxNetworks)
	}
	for _, c := range r.CIDRs {
		if _, _, err := net.ParseCIDR(c); err != nil {
			if net.ParseIP(c) == nil {
				return fmt.Errorf("invalid CIDR %q: %w", c, err)
			}
		}
	}
	if len(r.CredentialIDs) == 0 {
		return fmt.Errorf("no credentials given")
	}
	if r.Mode == "" {
		r.Mode = ClassificationFull
	}
	if r.Mode != ClassificationFull && r.Mode != ClassificationShell {
		return fmt.Errorf("invalid classification mode %q", r.Mode)
	}
	return nil
}

// JobState is the lifecycle state of a scan job
type JobState string

const (
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
)

// ScanCounters are the monotonically non-decreasing progress counters
// of a running job
type ScanCounters struct {
	Total             int `json:"total"`
	Scanned           int `json:"scanned"`
	Alive             int `json:"alive"`
	Authenticated     int `json:"authenticated"`
	Unreachable       int `json:"unreachable"`
	AuthFailed        int `json:"auth_failed"`
	DriverUnsupported int `json:"driver_unsupported"`
}

// ScanResult is one entry per host that passed reachability.
// Unreachable hosts never materialize as results.
type ScanResult struct {
	Address string `json:"address"`
	// CredentialID is the reference id of the succeeding credential.
	// Never the secret itself.
	CredentialID string        `json:"credential_id,omitempty"`
	Family       DeviceFamily  `json:"device_family,omitempty"`
	Hostname     string        `json:"hostname,omitempty"`
	Platform     string        `json:"platform,omitempty"`
	Failure      FailureReason `json:"failure,omitempty"`
}

// ScanStatus is the externally visible snapshot of a job
type ScanStatus struct {
	JobID     string       `json:"job_id"`
	State     JobState     `json:"state"`
	Counters  ScanCounters `json:"counters"`
	Results   []ScanResult `json:"results"`
	Errors    []string     `json:"errors,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
