package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"surveyline/internal/domain"
	"surveyline/internal/events"
	"surveyline/internal/repo"
)

// APIKeyPrefix marks raw keys issued by the service.
const APIKeyPrefix = "svk_"

func newRawAPIKey() string {
	return APIKeyPrefix + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// CreateAPIKey issues a key for ownerID. The raw key is returned once; only
// its hash is stored.
func (e Engine) CreateAPIKey(ctx context.Context, ownerID, name string) (domain.APIKey, string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return domain.APIKey{}, "", domain.ValidationError{Message: "owner is required", Fields: map[string]string{"owner_id": "Owner is required"}}
	}
	raw := newRawAPIKey()
	key := domain.APIKey{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		Prefix:    raw[:len(APIKeyPrefix)+8],
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.timestamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	evt, err := e.appendEvent(ctx, tx, events.APIKeyCreated, "", ownerID, "api_key", key.ID, actorFrom(ctx, ownerID), events.EventPayload{"name": key.Name, "prefix": key.Prefix})
	if err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	e.publish(ctx, evt)
	return key, raw, nil
}

func (e Engine) ListAPIKeys(ctx context.Context, ownerID string) ([]domain.APIKey, error) {
	return e.Repo.ListAPIKeys(ctx, ownerID)
}

func (e Engine) DeleteAPIKey(ctx context.Context, id, ownerID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAPIKey(ctx, tx, id, ownerID); err != nil {
		return notFound("api key", id, err)
	}
	evt, err := e.appendEvent(ctx, tx, events.APIKeyDeleted, "", ownerID, "api_key", id, actorFrom(ctx, ownerID), nil)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.publish(ctx, evt)
	return nil
}

// AuthenticateAPIKey resolves a raw key to its record and records the use.
func (e Engine) AuthenticateAPIKey(ctx context.Context, raw string) (domain.APIKey, error) {
	key, err := e.Repo.GetAPIKeyByHash(ctx, repo.HashAPIKey(raw))
	if err != nil {
		return domain.APIKey{}, notFound("api key", "", err)
	}
	if err := e.Repo.TouchAPIKey(ctx, key.ID, e.timestamp()); err != nil {
		e.log().Warn("api key touch failed", "api_key_id", key.ID, "error", err)
	}
	return key, nil
}
