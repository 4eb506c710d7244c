package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"surveyline/internal/db"
	"surveyline/internal/domain"
)

// Event types appended by the engine.
const (
	SurveyCreated     = "survey.created"
	SurveyUpdated     = "survey.updated"
	SurveyPublished   = "survey.published"
	SurveyUnpublished = "survey.unpublished"
	SurveyDeleted     = "survey.deleted"
	LibrarySaved      = "library.saved"
	LibraryDeleted    = "library.deleted"
	LibraryUsed       = "library.used"
	APIKeyCreated     = "api_key.created"
	APIKeyDeleted     = "api_key.deleted"
)

type Writer struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

type EventPayload map[string]any

// Append writes one event inside tx and returns it with its assigned id.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, surveyID, ownerID, entityKind, entityID, actorID string, payload EventPayload) (domain.Event, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("marshal event payload: %w", err)
	}
	evt := domain.Event{
		TS:         ts,
		Type:       evtType,
		SurveyID:   surveyID,
		OwnerID:    ownerID,
		EntityKind: entityKind,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    string(data),
	}
	err = tx.QueryRowContext(ctx, w.Dialect.Rebind(`INSERT INTO events(ts,type,survey_id,owner_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?,?) RETURNING id`),
		ts, evtType, nullable(surveyID), nullable(ownerID), entityKind, nullable(entityID), actorID, evt.Payload).Scan(&evt.ID)
	if err != nil {
		return domain.Event{}, err
	}
	return evt, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
