package repository

import (
	"context"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// Repository defines the interface for credential storage
type Repository interface {
	CreateSecret(ctx context.Context, secret *domain.Secret) error
	GetSecret(ctx context.Context, id string) (*domain.Secret, error)
	UpdateSecret(ctx context.Context, secret *domain.Secret) error
	DeleteSecret(ctx context.Context, id string) error
	ListSecrets(ctx context.Context, secretType string, source string) ([]domain.Secret, error)
	UpdateSecretUsage(ctx context.Context, id string) error
	UpdateSecretStatus(ctx context.Context, id string, status domain.SecretStatus, message string) error

	// Close releases resources
	Close() error
}
