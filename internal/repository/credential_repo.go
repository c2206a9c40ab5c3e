package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wifi_provisioner/internal/models"
)

type CredentialSQLite struct {
	db *sql.DB
}

func NewCredentialSQLite(db *sql.DB) *CredentialSQLite {
	return &CredentialSQLite{db: db}
}

var _ CredentialRepo = (*CredentialSQLite)(nil)

const (
	credentialNamespace = "wifi"
	keySSID             = "ssid"
	keyPass             = "pass"

	// Both keys go in one statement so a fault can never leave a
	// half-updated pair behind.
	upsertCredentialsSQL = `
		INSERT INTO preferences (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?), (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectCredentialsSQL = `
		SELECT key, value FROM preferences WHERE namespace = ?
	`
)

// Save replaces both credential fields.
func (r *CredentialSQLite) Save(ctx context.Context, c models.Credentials) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, upsertCredentialsSQL,
		credentialNamespace, keySSID, c.NetworkName, now,
		credentialNamespace, keyPass, c.Secret, now,
	)
	if err != nil {
		return fmt.Errorf("save credentials for %q: %w", c.NetworkName, err)
	}
	return nil
}

// Load reads the pair. Missing keys come back as empty strings.
func (r *CredentialSQLite) Load(ctx context.Context) (models.Credentials, error) {
	rows, err := r.db.QueryContext(ctx, selectCredentialsSQL, credentialNamespace)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("select credentials: %w", err)
	}
	defer rows.Close()

	var c models.Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Credentials{}, fmt.Errorf("scan credentials: %w", err)
		}
		switch key {
		case keySSID:
			c.NetworkName = value
		case keyPass:
			c.Secret = value
		}
	}
	if err := rows.Err(); err != nil {
		return models.Credentials{}, fmt.Errorf("iterate credentials: %w", err)
	}
	return c, nil
}
