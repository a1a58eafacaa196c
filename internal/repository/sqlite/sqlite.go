package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
	"github.com/nerdfunk-net/cockpit-sub000/internal/repository"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS secrets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		source TEXT NOT NULL,
		description TEXT,
		data JSON,
		immutable INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME,
		usage_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'unknown',
		status_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_secrets_type ON secrets(type);
	CREATE INDEX IF NOT EXISTS idx_secrets_source ON secrets(source);
	`

	_, err := r.db.Exec(schema)
	return err
}

// CreateSecret inserts a new secret
func (r *Repository) CreateSecret(ctx context.Context, secret *domain.Secret) error {
	data, err := marshalToNull(secret.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal secret data: %w", err)
	}

	now := time.Now()
	secret.CreatedAt = now
	secret.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO secrets (id, name, type, source, description, data, immutable,
			created_at, updated_at, usage_count, status, status_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, secret.ID, secret.Name, string(secret.Type), string(secret.Source),
		stringToNull(secret.Description), data, boolToInt(secret.Immutable),
		now, now, string(secret.Status), stringToNull(secret.StatusMessage))
	if err != nil {
		return fmt.Errorf("failed to insert secret: %w", err)
	}
	return nil
}

// GetSecret retrieves a secret by ID, or nil if absent
func (r *Repository) GetSecret(ctx context.Context, id string) (*domain.Secret, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, source, description, data, immutable,
			created_at, updated_at, last_used_at, usage_count, status, status_message
		FROM secrets WHERE id = ?
	`, id)

	secret, err := scanSecret(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}
	return secret, nil
}

// UpdateSecret updates an existing secret
func (r *Repository) UpdateSecret(ctx context.Context, secret *domain.Secret) error {
	data, err := marshalToNull(secret.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal secret data: %w", err)
	}

	secret.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE secrets
		SET name = ?, type = ?, description = ?, data = ?, updated_at = ?
		WHERE id = ?
	`, secret.Name, string(secret.Type), stringToNull(secret.Description),
		data, secret.UpdatedAt, secret.ID)
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("secret %s not found", secret.ID)
	}
	return nil
}

// DeleteSecret removes a secret
func (r *Repository) DeleteSecret(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("secret %s not found", id)
	}
	return nil
}

// ListSecrets returns secrets, optionally filtered by type and source
func (r *Repository) ListSecrets(ctx context.Context, secretType string, source string) ([]domain.Secret, error) {
	query := `
		SELECT id, name, type, source, description, data, immutable,
			created_at, updated_at, last_used_at, usage_count, status, status_message
		FROM secrets WHERE 1=1
	`
	var args []interface{}
	if secretType != "" {
		query += " AND type = ?"
		args = append(args, secretType)
	}
	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query secrets: %w", err)
	}
	defer rows.Close()

	var secrets []domain.Secret
	for rows.Next() {
		secret, err := scanSecret(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan secret: %w", err)
		}
		secrets = append(secrets, *secret)
	}
	return secrets, rows.Err()
}

// UpdateSecretUsage bumps the usage counter and last-used timestamp
func (r *Repository) UpdateSecretUsage(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE secrets SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update secret usage: %w", err)
	}
	return nil
}

// UpdateSecretStatus records the outcome of using the secret
func (r *Repository) UpdateSecretStatus(ctx context.Context, id string, status domain.SecretStatus, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE secrets SET status = ?, status_message = ?, updated_at = ? WHERE id = ?
	`, string(status), stringToNull(message), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update secret status: %w", err)
	}
	return nil
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}
