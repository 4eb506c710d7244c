package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"surveyline/internal/db"
	"surveyline/internal/domain"
)

type Repo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// ErrNotFound is shared with the domain so callers can match either.
var ErrNotFound = domain.ErrNotFound

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// on returns tx when set, else the pool.
func (r Repo) on(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r Repo) bind(query string) string {
	return r.Dialect.Rebind(query)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern is a LIKE pattern matching s literally anywhere, for use
// with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EventFilter narrows event listings. Zero fields match everything.
type EventFilter struct {
	OwnerID    string
	SurveyID   string
	Type       string
	EntityKind string
}

func (f EventFilter) where(cursor int64, before bool) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	add := func(col, v string) {
		if v != "" {
			clauses = append(clauses, col+"=?")
			args = append(args, v)
		}
	}
	add("owner_id", f.OwnerID)
	add("survey_id", f.SurveyID)
	add("type", f.Type)
	add("entity_kind", f.EntityKind)
	if cursor > 0 {
		if before {
			clauses = append(clauses, "id<?")
		} else {
			clauses = append(clauses, "id>?")
		}
		args = append(args, cursor)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// LatestEvents returns up to limit events, newest first, older than cursor when set.
func (r Repo) LatestEvents(ctx context.Context, limit int, cursor int64, f EventFilter) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := f.where(cursor, true)
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(survey_id,''),COALESCE(owner_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	return r.queryEvents(ctx, query, append(args, limit)...)
}

// EventsAfter returns up to limit events with id greater than cursor, oldest first.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, f EventFilter) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	where, args := f.where(cursor, false)
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(survey_id,''),COALESCE(owner_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events %s ORDER BY id ASC LIMIT ?`, where)
	return r.queryEvents(ctx, query, append(args, limit)...)
}

func (r Repo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.SurveyID, &e.OwnerID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the highest event id, or 0 for an empty log.
func (r Repo) LatestEventID(ctx context.Context, f EventFilter) (int64, error) {
	where, args := f.where(0, false)
	row := r.DB.QueryRowContext(ctx, r.bind(`SELECT COALESCE(MAX(id),0) FROM events `+where), args...)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
