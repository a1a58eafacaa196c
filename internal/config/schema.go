package config

// Config is the root configuration structure
type Config struct {
	Version      int                     `yaml:"version"`
	Server       ServerConfig            `yaml:"server"`
	Database     DatabaseConfig          `yaml:"database"`
	Scan         ScanConfig              `yaml:"scan"`
	Registration RegistrationConfig      `yaml:"registration"`
	Inventory    InventoryConfig         `yaml:"inventory"`
	Secrets      SecretsConfig           `yaml:"secrets"`
	Templates    []ParseTemplateConfig   `yaml:"parse_templates,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds credential storage settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScanConfig bounds scan jobs
type ScanConfig struct {
	// MinPrefixLen is the smallest (largest-network) prefix accepted
	MinPrefixLen int `yaml:"min_prefix_len"`
	// MaxConcurrent bounds in-flight per-host pipelines per job
	MaxConcurrent int `yaml:"max_concurrent"`
	// RetentionHours is how long finished jobs are kept
	RetentionHours int `yaml:"retention_hours"`
	// Prober selects the reachability probe: "ping" or "nmap"
	Prober string `yaml:"prober"`
	// ProbeTimeoutMS bounds one reachability probe
	ProbeTimeoutMS int `yaml:"probe_timeout_ms"`
	// ProbeRatePerSecond caps outgoing probes
	ProbeRatePerSecond int `yaml:"probe_rate_per_second"`
	// FallbackPorts are TCP ports tried when ICMP is unavailable
	FallbackPorts []int `yaml:"fallback_ports,omitempty"`
	// ConnectTimeoutSec bounds one SSH connection attempt
	ConnectTimeoutSec int `yaml:"connect_timeout_sec"`
	// CredentialAttempts is the retry count per credential
	CredentialAttempts int `yaml:"credential_attempts"`
	// SSHPort is the port credential trials connect to
	SSHPort int `yaml:"ssh_port"`
}

// RegistrationConfig points at the device registration API
type RegistrationConfig struct {
	URL string `yaml:"url"`
	// TokenSecret is the credential id holding the API token
	TokenSecret string `yaml:"token_secret,omitempty"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// InventoryConfig holds inventory artifact settings
type InventoryConfig struct {
	// Dir is the git working tree artifacts are written into
	Dir string `yaml:"dir"`
	// Subdir inside the working tree
	Subdir string `yaml:"subdir"`
	// Push pushes after each commit
	Push bool `yaml:"push"`
	// Templates maps custom template names to Go template files
	Templates map[string]string `yaml:"templates,omitempty"`
}

// SecretsConfig holds credential source settings
type SecretsConfig struct {
	// MountedPaths are scanned for file-mounted credentials
	MountedPaths []string `yaml:"mounted_paths,omitempty"`
}

// ParseTemplateConfig is a named pair of extraction patterns scan
// requests can reference
type ParseTemplateConfig struct {
	Name     string `yaml:"name"`
	Hostname string `yaml:"hostname,omitempty"`
	Platform string `yaml:"platform,omitempty"`
}
