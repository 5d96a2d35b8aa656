package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sqlx.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	if err := SetSettingIfMissing(ctx, db, "jwt_secret", candidate); err != nil {
		return "", err
	}

	secret, err := GetSetting(ctx, db, "jwt_secret")
	if err != nil {
		return "", err
	}
	return secret, nil
}

// GetSetting returns the value stored under key, or "" when unset.
func GetSetting(ctx context.Context, db *sqlx.DB, key string) (string, error) {
	var values []string
	if err := db.SelectContext(ctx, &values, `SELECT value FROM settings WHERE key = ?`, key); err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, translate(err))
	}
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

// SetSettingIfMissing stores value under key unless the key already exists.
func SetSettingIfMissing(ctx context.Context, db *sqlx.DB, key, value string) error {
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, translate(err))
	}
	return nil
}
