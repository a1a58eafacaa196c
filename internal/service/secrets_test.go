package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// memRepo is an in-memory SecretsRepository
type memRepo struct {
	secrets map[string]*domain.Secret
}

func newMemRepo() *memRepo {
	return &memRepo{secrets: make(map[string]*domain.Secret)}
}

func (r *memRepo) CreateSecret(ctx context.Context, secret *domain.Secret) error {
	r.secrets[secret.ID] = secret
	return nil
}

func (r *memRepo) GetSecret(ctx context.Context, id string) (*domain.Secret, error) {
	return r.secrets[id], nil
}

func (r *memRepo) UpdateSecret(ctx context.Context, secret *domain.Secret) error {
	r.secrets[secret.ID] = secret
	return nil
}

func (r *memRepo) DeleteSecret(ctx context.Context, id string) error {
	delete(r.secrets, id)
	return nil
}

func (r *memRepo) ListSecrets(ctx context.Context, secretType, source string) ([]domain.Secret, error) {
	var out []domain.Secret
	for _, s := range r.secrets {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memRepo) UpdateSecretUsage(ctx context.Context, id string) error { return nil }

func (r *memRepo) UpdateSecretStatus(ctx context.Context, id string, status domain.SecretStatus, message string) error {
	return nil
}

func TestLoadMountedSecrets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "nautobot_token"), []byte("tok-123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewSecretsService(newMemRepo(), NewEventBus())
	svc.SetMountedPaths([]string{dir})
	if err := svc.LoadMountedSecrets(); err != nil {
		t.Fatalf("LoadMountedSecrets failed: %v", err)
	}

	secret, err := svc.GetSecret(context.Background(), "mounted.nautobot_token")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if secret == nil {
		t.Fatal("mounted secret not loaded")
	}
	if secret.Type != domain.SecretTypeAPIToken {
		t.Errorf("expected api_token type, got %s", secret.Type)
	}
	if secret.Data["value"] != "tok-123" {
		t.Errorf("expected trimmed value, got %q", secret.Data["value"])
	}
	if !secret.Immutable {
		t.Error("mounted secret must be immutable")
	}
}

func TestCreateSecretConflictsWithMounted(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lab"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewSecretsService(newMemRepo(), NewEventBus())
	svc.SetMountedPaths([]string{dir})
	if err := svc.LoadMountedSecrets(); err != nil {
		t.Fatal(err)
	}

	err := svc.CreateSecret(context.Background(), &domain.Secret{
		ID:   "mounted.lab",
		Name: "lab",
		Type: domain.SecretTypeSSHPassword,
	})
	if err == nil {
		t.Fatal("expected conflict with mounted secret")
	}
}

func TestMountedSecretsImmutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lab"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewSecretsService(newMemRepo(), NewEventBus())
	svc.SetMountedPaths([]string{dir})
	if err := svc.LoadMountedSecrets(); err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateSecret(context.Background(), &domain.Secret{ID: "mounted.lab"}); err == nil {
		t.Error("expected update of mounted secret to fail")
	}
	if err := svc.DeleteSecret(context.Background(), "mounted.lab"); err == nil {
		t.Error("expected delete of mounted secret to fail")
	}
}

func TestListSecretsNeverLeaksValues(t *testing.T) {
	repo := newMemRepo()
	svc := NewSecretsService(repo, NewEventBus())
	svc.SetMountedPaths(nil)

	err := svc.CreateSecret(context.Background(), &domain.Secret{
		ID:   "ssh.lab",
		Name: "lab ssh",
		Type: domain.SecretTypeSSHPassword,
		Data: map[string]string{"username": "admin", "password": "hunter2"},
	})
	if err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}

	summaries, err := svc.ListSecrets(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ListSecrets failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	encoded, err := json.Marshal(summaries)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(encoded), "hunter2") {
		t.Error("secret value leaked into summary")
	}
	if len(summaries[0].DataKeys) != 2 {
		t.Errorf("expected 2 data keys, got %v", summaries[0].DataKeys)
	}
}

func TestCreateSecretForcesOperatorSource(t *testing.T) {
	repo := newMemRepo()
	svc := NewSecretsService(repo, NewEventBus())
	svc.SetMountedPaths(nil)

	err := svc.CreateSecret(context.Background(), &domain.Secret{
		ID:     "ssh.lab",
		Name:   "lab",
		Type:   domain.SecretTypeSSHPassword,
		Source: domain.SecretSourceMounted,
	})
	if err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}
	if repo.secrets["ssh.lab"].Source != domain.SecretSourceOperator {
		t.Error("created secret must be operator-sourced")
	}
}
