package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func labSecret() *domain.Secret {
	return &domain.Secret{
		ID:     "ssh.lab",
		Name:   "Lab SSH",
		Type:   domain.SecretTypeSSHPassword,
		Source: domain.SecretSourceOperator,
		Data:   map[string]string{"username": "admin", "password": "hunter2"},
		Status: domain.SecretStatusUnknown,
	}
}

func TestCreateAndGetSecret(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateSecret(ctx, labSecret()); err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}

	got, err := repo.GetSecret(ctx, "ssh.lab")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got == nil {
		t.Fatal("secret not found")
	}
	if got.Name != "Lab SSH" {
		t.Errorf("expected name Lab SSH, got %q", got.Name)
	}
	if got.Type != domain.SecretTypeSSHPassword {
		t.Errorf("expected ssh_password, got %s", got.Type)
	}
	if got.Data["password"] != "hunter2" {
		t.Errorf("data round-trip failed: %v", got.Data)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGetSecretAbsent(t *testing.T) {
	repo := testRepo(t)

	got, err := repo.GetSecret(context.Background(), "no-such")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for absent secret")
	}
}

func TestCreateSecretDuplicateID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateSecret(ctx, labSecret()); err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}
	if err := repo.CreateSecret(ctx, labSecret()); err == nil {
		t.Fatal("expected error for duplicate ID")
	}
}

func TestUpdateSecret(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	secret := labSecret()
	if err := repo.CreateSecret(ctx, secret); err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}

	secret.Name = "Lab SSH v2"
	secret.Data["password"] = "rotated"
	if err := repo.UpdateSecret(ctx, secret); err != nil {
		t.Fatalf("UpdateSecret failed: %v", err)
	}

	got, err := repo.GetSecret(ctx, "ssh.lab")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got.Name != "Lab SSH v2" || got.Data["password"] != "rotated" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateSecretAbsent(t *testing.T) {
	repo := testRepo(t)
	if err := repo.UpdateSecret(context.Background(), labSecret()); err == nil {
		t.Fatal("expected error updating absent secret")
	}
}

func TestDeleteSecret(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateSecret(ctx, labSecret()); err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}
	if err := repo.DeleteSecret(ctx, "ssh.lab"); err != nil {
		t.Fatalf("DeleteSecret failed: %v", err)
	}

	got, err := repo.GetSecret(ctx, "ssh.lab")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got != nil {
		t.Error("secret should be gone")
	}

	if err := repo.DeleteSecret(ctx, "ssh.lab"); err == nil {
		t.Error("expected error deleting absent secret")
	}
}

func TestListSecretsFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateSecret(ctx, labSecret()); err != nil {
		t.Fatal(err)
	}
	token := &domain.Secret{
		ID:     "token.nautobot",
		Name:   "Nautobot token",
		Type:   domain.SecretTypeAPIToken,
		Source: domain.SecretSourceOperator,
		Data:   map[string]string{"value": "tok"},
		Status: domain.SecretStatusUnknown,
	}
	if err := repo.CreateSecret(ctx, token); err != nil {
		t.Fatal(err)
	}

	all, err := repo.ListSecrets(ctx, "", "")
	if err != nil {
		t.Fatalf("ListSecrets failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 secrets, got %d", len(all))
	}

	tokens, err := repo.ListSecrets(ctx, string(domain.SecretTypeAPIToken), "")
	if err != nil {
		t.Fatalf("ListSecrets failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0].ID != "token.nautobot" {
		t.Errorf("type filter failed: %v", tokens)
	}
}

func TestUpdateSecretUsage(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateSecret(ctx, labSecret()); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateSecretUsage(ctx, "ssh.lab"); err != nil {
		t.Fatalf("UpdateSecretUsage failed: %v", err)
	}
	if err := repo.UpdateSecretUsage(ctx, "ssh.lab"); err != nil {
		t.Fatalf("UpdateSecretUsage failed: %v", err)
	}

	got, err := repo.GetSecret(ctx, "ssh.lab")
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageCount != 2 {
		t.Errorf("expected usage count 2, got %d", got.UsageCount)
	}
	if got.LastUsedAt == nil {
		t.Error("expected last_used_at to be set")
	}
}

func TestUpdateSecretStatus(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateSecret(ctx, labSecret()); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateSecretStatus(ctx, "ssh.lab", domain.SecretStatusInvalid, "auth rejected"); err != nil {
		t.Fatalf("UpdateSecretStatus failed: %v", err)
	}

	got, err := repo.GetSecret(ctx, "ssh.lab")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.SecretStatusInvalid {
		t.Errorf("expected invalid status, got %s", got.Status)
	}
	if got.StatusMessage != "auth rejected" {
		t.Errorf("expected status message, got %q", got.StatusMessage)
	}
}
