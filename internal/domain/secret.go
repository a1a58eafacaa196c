package domain

import "time"

// SecretSource indicates where a credential originated
type SecretSource string

const (
	// SecretSourceMounted indicates a credential mounted from K8s/Docker/file
	SecretSourceMounted SecretSource = "mounted"
	// SecretSourceOperator indicates a credential created via the API
	SecretSourceOperator SecretSource = "operator"
)

// SecretType categorizes credentials by their intended use
type SecretType string

const (
	SecretTypeSSHKey      SecretType = "ssh_key"
	SecretTypeSSHPassword SecretType = "ssh_password"
	SecretTypeAPIToken    SecretType = "api_token"
	SecretTypeGeneric     SecretType = "generic"
)

// SecretStatus indicates the operational state of a credential
type SecretStatus string

const (
	SecretStatusUnknown SecretStatus = "unknown" // Not yet tested
	SecretStatusValid   SecretStatus = "valid"   // Successfully used
	SecretStatusInvalid SecretStatus = "invalid" // Failed validation/use
)

// Secret represents a connection credential. Scan requests reference
// secrets by ID only; the data is resolved at trial time and never
// stored in results.
type Secret struct {
	// ID is the unique identifier (e.g., "ssh.lab", "token.nautobot")
	ID string `json:"id"`

	// Name is a human-readable display name
	Name string `json:"name"`

	// Type categorizes the secret for validation
	Type SecretType `json:"type"`

	// Source indicates where the secret came from
	Source SecretSource `json:"source"`

	// Description explains what this secret is for
	Description string `json:"description,omitempty"`

	// Data holds the secret values (key-value pairs).
	// For mounted secrets this is populated from files; for operator
	// secrets it is stored in SQLite.
	Data map[string]string `json:"data,omitempty"`

	// Immutable indicates the secret cannot be modified (mounted secrets)
	Immutable bool `json:"immutable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastUsedAt is when the secret was last used for a scan
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	// UsageCount tracks how many times the secret has been used
	UsageCount int `json:"usage_count"`

	// Status indicates if the secret is valid/working
	Status SecretStatus `json:"status"`

	// StatusMessage provides details about the status
	StatusMessage string `json:"status_message,omitempty"`
}

// SecretSummary is a safe view of a secret (no sensitive data)
type SecretSummary struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          SecretType   `json:"type"`
	Source        SecretSource `json:"source"`
	Description   string       `json:"description,omitempty"`
	Immutable     bool         `json:"immutable"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LastUsedAt    *time.Time   `json:"last_used_at,omitempty"`
	UsageCount    int          `json:"usage_count"`
	Status        SecretStatus `json:"status"`
	StatusMessage string       `json:"status_message,omitempty"`
	// DataKeys lists the keys in Data without exposing values
	DataKeys []string `json:"data_keys"`
}

// ToSummary creates a safe summary view of the secret
func (s *Secret) ToSummary() SecretSummary {
	keys := make([]string, 0, len(s.Data))
	for k := range s.Data {
		keys = append(keys, k)
	}

	return SecretSummary{
		ID:            s.ID,
		Name:          s.Name,
		Type:          s.Type,
		Source:        s.Source,
		Description:   s.Description,
		Immutable:     s.Immutable,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		LastUsedAt:    s.LastUsedAt,
		UsageCount:    s.UsageCount,
		Status:        s.Status,
		StatusMessage: s.StatusMessage,
		DataKeys:      keys,
	}
}
