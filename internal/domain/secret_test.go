package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSecretToSummary(t *testing.T) {
	secret := &Secret{
		ID:     "ssh.lab",
		Name:   "Lab SSH",
		Type:   SecretTypeSSHPassword,
		Source: SecretSourceOperator,
		Data: map[string]string{
			"username": "admin",
			"password": "hunter2",
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Status:    SecretStatusValid,
	}

	summary := secret.ToSummary()

	if summary.ID != "ssh.lab" || summary.Type != SecretTypeSSHPassword {
		t.Errorf("summary identity mismatch: %+v", summary)
	}
	if len(summary.DataKeys) != 2 {
		t.Errorf("DataKeys = %v, want 2 keys", summary.DataKeys)
	}

	// The serialized summary must never contain secret values
	raw, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}
	if strings.Contains(string(raw), "hunter2") {
		t.Errorf("summary leaked secret value: %s", raw)
	}
}
