package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Submission is one network device handed to the registration system.
// Platform is omitted entirely when the caller asked for auto-detect;
// the registration system runs its own detection for absent platforms.
type Submission struct {
	IP        string   `json:"ip_address"`
	Name      string   `json:"name,omitempty"`
	Location  string   `json:"location,omitempty"`
	Role      string   `json:"role,omitempty"`
	Status    string   `json:"status,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
	Platform  string   `json:"platform,omitempty"`
	SecretID  string   `json:"secret_group,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Submitter submits one device and returns its tracking id
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (string, error)
}

// Config holds registration API settings
type Config struct {
	// URL is the registration endpoint
	URL string
	// Token authenticates against the registration API
	Token string
	// Timeout for one submission
	Timeout time.Duration
}

// Client talks to the device registration API over HTTP
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a registration API client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// submitResponse is the API's acknowledgement of one submission
type submitResponse struct {
	JobID string `json:"job_id"`
	ID    string `json:"id"`
}

// Submit posts one device for registration. The returned tracking id
// identifies the registration system's own asynchronous job; the
// device is not registered yet when Submit returns.
func (c *Client) Submit(ctx context.Context, sub Submission) (string, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Token "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("registration request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("registration API returned %d: %s", resp.StatusCode, string(msg))
	}

	var ack submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("failed to decode registration response: %w", err)
	}

	trackingID := ack.JobID
	if trackingID == "" {
		trackingID = ack.ID
	}
	if trackingID == "" {
		return "", fmt.Errorf("registration response carried no tracking id")
	}
	return trackingID, nil
}
