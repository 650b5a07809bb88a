package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const settingJWTSecret = "jwt_secret"

// GetJWTSecret returns the token signing secret, generating and storing a
// random one on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return settingOrInit(ctx, db, settingJWTSecret, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}

// settingOrInit reads a setting, storing the generated value first if the
// key is missing. INSERT OR IGNORE followed by a read keeps concurrent
// first starts consistent.
func settingOrInit(ctx context.Context, db *sql.DB, key string, generate func() (string, error)) (string, error) {
	candidate, err := generate()
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
