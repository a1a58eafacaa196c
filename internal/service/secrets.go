package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// SecretsRepository defines the interface for secret storage
type SecretsRepository interface {
	CreateSecret(ctx context.Context, secret *domain.Secret) error
	GetSecret(ctx context.Context, id string) (*domain.Secret, error)
	UpdateSecret(ctx context.Context, secret *domain.Secret) error
	DeleteSecret(ctx context.Context, id string) error
	ListSecrets(ctx context.Context, secretType string, source string) ([]domain.Secret, error)
	UpdateSecretUsage(ctx context.Context, id string) error
	UpdateSecretStatus(ctx context.Context, id string, status domain.SecretStatus, message string) error
}

// SecretsService provides unified access to credentials from all
// sources. It is the credential resolver the scan pipeline uses:
// scan requests carry credential ids, never values.
type SecretsService struct {
	repo           SecretsRepository
	eventBus       *EventBus
	mountedPaths   []string
	mountedSecrets map[string]*domain.Secret
	mu             sync.RWMutex
}

// NewSecretsService creates a new secrets service
func NewSecretsService(repo SecretsRepository, eventBus *EventBus) *SecretsService {
	return &SecretsService{
		repo:           repo,
		eventBus:       eventBus,
		mountedPaths:   []string{"/secrets", "/run/secrets"},
		mountedSecrets: make(map[string]*domain.Secret),
	}
}

// SetMountedPaths configures the paths to scan for mounted secrets
func (s *SecretsService) SetMountedPaths(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mountedPaths = paths
}

// LoadMountedSecrets scans configured paths for mounted secrets.
// Called at startup and can be called to refresh.
func (s *SecretsService) LoadMountedSecrets() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mountedSecrets = make(map[string]*domain.Secret)

	for _, basePath := range s.mountedPaths {
		if _, err := os.Stat(basePath); os.IsNotExist(err) {
			continue
		}

		err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // Skip errors
			}
			if info.IsDir() {
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Failed to read mounted secret %s: %v", path, err)
				return nil
			}

			relPath, _ := filepath.Rel(basePath, path)
			secretID := "mounted." + strings.ReplaceAll(relPath, "/", ".")
			secretID = strings.TrimSuffix(secretID, filepath.Ext(secretID))

			secretType := inferSecretType(path, info.Name())

			secret := &domain.Secret{
				ID:          secretID,
				Name:        info.Name(),
				Type:        secretType,
				Source:      domain.SecretSourceMounted,
				Description: fmt.Sprintf("Mounted from %s", path),
				Data:        parseSecretData(secretType, data),
				Immutable:   true,
				CreatedAt:   info.ModTime(),
				UpdatedAt:   info.ModTime(),
				Status:      domain.SecretStatusUnknown,
			}

			s.mountedSecrets[secretID] = secret
			log.Printf("Loaded mounted secret: %s (type: %s)", secretID, secretType)
			return nil
		})

		if err != nil {
			log.Printf("Error walking secrets path %s: %v", basePath, err)
		}
	}

	s.loadEnvSecrets(time.Now())

	log.Printf("Loaded %d mounted secrets", len(s.mountedSecrets))
	return nil
}

// loadEnvSecrets assembles an "env.ssh" credential from environment
// variables, so a container can carry scan credentials without a
// mounted file
func (s *SecretsService) loadEnvSecrets(now time.Time) {
	username := os.Getenv("SSH_USERNAME")
	if username == "" {
		return
	}

	secret := &domain.Secret{
		ID:          "env.ssh",
		Name:        "SSH_USERNAME",
		Source:      domain.SecretSourceMounted,
		Description: "From environment variables",
		Data:        map[string]string{"username": username},
		Immutable:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      domain.SecretStatusUnknown,
	}

	if keyPath := os.Getenv("SSH_KEY_PATH"); keyPath != "" {
		key, err := os.ReadFile(keyPath)
		if err != nil {
			log.Printf("Failed to read SSH key %s: %v", keyPath, err)
			return
		}
		secret.Type = domain.SecretTypeSSHKey
		secret.Data["private_key"] = string(key)
		if passphrase := os.Getenv("SSH_KEY_PASSPHRASE"); passphrase != "" {
			secret.Data["passphrase"] = passphrase
		}
	} else if password := os.Getenv("SSH_PASSWORD"); password != "" {
		secret.Type = domain.SecretTypeSSHPassword
		secret.Data["password"] = password
	} else {
		return
	}

	s.mountedSecrets[secret.ID] = secret
	log.Printf("Loaded env secret: %s (type: %s)", secret.ID, secret.Type)
}

// inferSecretType guesses the secret type from filename/path
func inferSecretType(path, filename string) domain.SecretType {
	lower := strings.ToLower(filename)

	if strings.Contains(lower, "id_rsa") || strings.Contains(lower, "id_ed25519") ||
		strings.Contains(lower, "id_ecdsa") || strings.Contains(lower, "ssh_key") {
		return domain.SecretTypeSSHKey
	}
	if strings.Contains(lower, "ssh") && strings.Contains(lower, "pass") {
		return domain.SecretTypeSSHPassword
	}
	if strings.Contains(lower, "token") || strings.Contains(lower, "api") {
		return domain.SecretTypeAPIToken
	}
	return domain.SecretTypeGeneric
}

// parseSecretData maps a mounted file's content into the keys the
// scan pipeline expects. A file named "user@host-style" convention is
// out of scope; mounted SSH secrets pair with SSH_USERNAME.
func parseSecretData(secretType domain.SecretType, data []byte) map[string]string {
	switch secretType {
	case domain.SecretTypeSSHKey:
		m := map[string]string{"private_key": string(data)}
		if username := os.Getenv("SSH_USERNAME"); username != "" {
			m["username"] = username
		}
		return m
	default:
		return map[string]string{"value": strings.TrimSpace(string(data))}
	}
}

// GetSecret retrieves a secret by ID from any source
func (s *SecretsService) GetSecret(ctx context.Context, id string) (*domain.Secret, error) {
	s.mu.RLock()
	if secret, ok := s.mountedSecrets[id]; ok {
		s.mu.RUnlock()
		return secret, nil
	}
	s.mu.RUnlock()

	secret, err := s.repo.GetSecret(ctx, id)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		// Usage tracking for operator secrets; the scan pipeline
		// resolves at trial time, so this counts actual use
		if err := s.repo.UpdateSecretUsage(ctx, id); err != nil {
			log.Printf("Failed to update usage for secret %s: %v", id, err)
		}
	}
	return secret, nil
}

// ListSecrets returns all secrets from all sources (summaries only,
// no sensitive data)
func (s *SecretsService) ListSecrets(ctx context.Context, secretType string, source string) ([]domain.SecretSummary, error) {
	var summaries []domain.SecretSummary

	if source == "" || source == string(domain.SecretSourceMounted) {
		s.mu.RLock()
		for _, secret := range s.mountedSecrets {
			if secretType == "" || string(secret.Type) == secretType {
				summaries = append(summaries, secret.ToSummary())
			}
		}
		s.mu.RUnlock()
	}

	if source == "" || source == string(domain.SecretSourceOperator) {
		dbSecrets, err := s.repo.ListSecrets(ctx, secretType, string(domain.SecretSourceOperator))
		if err != nil {
			return nil, err
		}
		for _, secret := range dbSecrets {
			summaries = append(summaries, secret.ToSummary())
		}
	}

	return summaries, nil
}

// CreateSecret creates a new operator secret
func (s *SecretsService) CreateSecret(ctx context.Context, secret *domain.Secret) error {
	if secret.ID == "" {
		return fmt.Errorf("secret ID is required")
	}
	if secret.Name == "" {
		return fmt.Errorf("secret name is required")
	}
	if secret.Type == "" {
		return fmt.Errorf("secret type is required")
	}

	s.mu.RLock()
	if _, exists := s.mountedSecrets[secret.ID]; exists {
		s.mu.RUnlock()
		return fmt.Errorf("secret ID %s conflicts with a mounted secret", secret.ID)
	}
	s.mu.RUnlock()

	// Force operator source and mutable
	secret.Source = domain.SecretSourceOperator
	secret.Immutable = false
	secret.Status = domain.SecretStatusUnknown

	if err := s.repo.CreateSecret(ctx, secret); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventSecretCreated,
		Payload: secret.ToSummary(),
	})
	return nil
}

// UpdateSecret updates an existing operator secret
func (s *SecretsService) UpdateSecret(ctx context.Context, secret *domain.Secret) error {
	s.mu.RLock()
	if _, exists := s.mountedSecrets[secret.ID]; exists {
		s.mu.RUnlock()
		return fmt.Errorf("cannot modify mounted secret %s", secret.ID)
	}
	s.mu.RUnlock()

	if err := s.repo.UpdateSecret(ctx, secret); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventSecretUpdated,
		Payload: secret.ToSummary(),
	})
	return nil
}

// DeleteSecret deletes an operator secret
func (s *SecretsService) DeleteSecret(ctx context.Context, id string) error {
	s.mu.RLock()
	if _, exists := s.mountedSecrets[id]; exists {
		s.mu.RUnlock()
		return fmt.Errorf("cannot delete mounted secret %s", id)
	}
	s.mu.RUnlock()

	if err := s.repo.DeleteSecret(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventSecretDeleted,
		Payload: map[string]string{"id": id},
	})
	return nil
}

// UpdateSecretStatus updates the operational status of a secret
func (s *SecretsService) UpdateSecretStatus(ctx context.Context, id string, status domain.SecretStatus, message string) error {
	s.mu.Lock()
	if secret, exists := s.mountedSecrets[id]; exists {
		secret.Status = status
		secret.StatusMessage = message
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.repo.UpdateSecretStatus(ctx, id, status, message)
}
