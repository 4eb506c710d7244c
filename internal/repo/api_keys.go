package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"surveyline/internal/domain"
)

// HashAPIKey returns a stable SHA-256 hex digest for the provided key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

const apiKeyColumns = `id, owner_id, COALESCE(name,''), prefix, key_hash, usage_count, COALESCE(last_used_at,''), created_at`

func scanAPIKey(row rowScanner) (domain.APIKey, error) {
	var key domain.APIKey
	err := row.Scan(&key.ID, &key.OwnerID, &key.Name, &key.Prefix, &key.KeyHash, &key.UsageCount, &key.LastUsedAt, &key.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.APIKey{}, ErrNotFound
	}
	return key, err
}

// InsertAPIKey stores a hashed API key. KeyHash must already contain the hashed value.
func (r Repo) InsertAPIKey(ctx context.Context, tx *sql.Tx, key domain.APIKey) error {
	if key.ID == "" {
		return errors.New("id required")
	}
	if key.OwnerID == "" {
		return errors.New("owner_id required")
	}
	if key.KeyHash == "" {
		return errors.New("key_hash required")
	}
	if key.CreatedAt == "" {
		key.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.on(tx).ExecContext(ctx, r.bind(`INSERT INTO api_keys(id, owner_id, name, prefix, key_hash, usage_count, created_at) VALUES (?,?,?,?,?,0,?)`),
		key.ID, key.OwnerID, nullable(key.Name), key.Prefix, key.KeyHash, key.CreatedAt)
	return err
}

// GetAPIKeyByHash returns an API key by its hashed value.
func (r Repo) GetAPIKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	return scanAPIKey(r.DB.QueryRowContext(ctx, r.bind(`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash=? LIMIT 1`), hash))
}

// TouchAPIKey bumps the usage counter and last-used stamp.
func (r Repo) TouchAPIKey(ctx context.Context, id, usedAt string) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx, r.bind(`UPDATE api_keys SET usage_count=usage_count+1, last_used_at=? WHERE id=?`), usedAt, id))
}

// ListAPIKeys returns API keys, optionally filtered by owner.
func (r Repo) ListAPIKeys(ctx context.Context, ownerID string) ([]domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id=?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []domain.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// DeleteAPIKey deletes an owner's API key by ID.
func (r Repo) DeleteAPIKey(ctx context.Context, tx *sql.Tx, id, ownerID string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id required")
	}
	return affectedOrNotFound(r.on(tx).ExecContext(ctx, r.bind(`DELETE FROM api_keys WHERE id=? AND owner_id=?`), id, ownerID))
}
