package domain

// PlatformAutoDetect is the caller-supplied sentinel meaning "let the
// registration system detect the platform". It is normalized to an
// absent value at the onboarding dispatcher boundary for both
// branches.
const PlatformAutoDetect = "detect"

// DeviceSelection is one caller-selected scan result plus the
// metadata the registration system or inventory template needs.
type DeviceSelection struct {
	Address   string            `json:"address"`
	Name      string            `json:"name,omitempty"`
	Location  string            `json:"location,omitempty"`
	Role      string            `json:"role,omitempty"`
	Status    string            `json:"status,omitempty"`
	Namespace string            `json:"namespace,omitempty"`
	Platform  string            `json:"platform,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// OnboardRequest references a completed scan job and a subset of its
// results. Selections whose address is not present in the job's
// result set are silently dropped.
type OnboardRequest struct {
	JobID   string            `json:"job_id"`
	Devices []DeviceSelection `json:"devices"`
	// Template names a custom inventory template; empty means the
	// built-in default.
	Template string `json:"template,omitempty"`
	// ArtifactName is the file name of the generated inventory
	ArtifactName string `json:"artifact_name,omitempty"`
	// Commit stages and commits the artifact when true
	Commit bool `json:"commit,omitempty"`
	// CommitMessage overrides the generated commit message
	CommitMessage string `json:"commit_message,omitempty"`
}

// OnboardResult summarizes both onboarding branches.
type OnboardResult struct {
	Accepted int `json:"accepted"`
	// NetworkQueued counts network devices submitted for registration
	NetworkQueued int `json:"network_queued"`
	// ServersAdded counts general servers written into the inventory
	ServersAdded int `json:"servers_added"`
	// TrackingIDs maps device address to the registration tracking id
	TrackingIDs map[string]string `json:"tracking_ids,omitempty"`
	// RegistrationErrors maps device address to the failure, one per
	// device; a failing submission never aborts the batch
	RegistrationErrors map[string]string `json:"registration_errors,omitempty"`
	ArtifactPath       string            `json:"artifact_path,omitempty"`
	Committed          bool              `json:"committed"`
	CommitError        string            `json:"commit_error,omitempty"`
}
