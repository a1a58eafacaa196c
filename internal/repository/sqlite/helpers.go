package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSecret reads one secrets row into a domain.Secret
func scanSecret(row scanner) (*domain.Secret, error) {
	var (
		secret        domain.Secret
		secretType    string
		source        string
		description   sql.NullString
		data          sql.NullString
		immutable     sql.NullInt64
		lastUsedAt    sql.NullTime
		status        string
		statusMessage sql.NullString
	)

	err := row.Scan(&secret.ID, &secret.Name, &secretType, &source,
		&description, &data, &immutable,
		&secret.CreatedAt, &secret.UpdatedAt, &lastUsedAt,
		&secret.UsageCount, &status, &statusMessage)
	if err != nil {
		return nil, err
	}

	secret.Type = domain.SecretType(secretType)
	secret.Source = domain.SecretSource(source)
	secret.Description = nullToString(description)
	secret.Immutable = nullToBool(immutable)
	secret.LastUsedAt = nullToTimePtr(lastUsedAt)
	secret.Status = domain.SecretStatus(status)
	secret.StatusMessage = nullToString(statusMessage)

	if err := unmarshalJSONField(data, &secret.Data); err != nil {
		return nil, err
	}
	return &secret, nil
}

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToTimePtr safely converts sql.NullTime to *time.Time
func nullToTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// unmarshalJSONField safely unmarshals JSON from a nullable string
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a value to a nullable JSON string.
// Empty maps are stored as NULL, not "{}".
func marshalToNull(v map[string]string) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
