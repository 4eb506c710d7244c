package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"surveyline/internal/domain"
)

const libraryColumns = `id,owner_id,name,COALESCE(description,''),category,tags_json,is_public,question_data,usage_count,created_at,updated_at`

func scanLibraryQuestion(row rowScanner) (domain.LibraryQuestion, error) {
	var (
		q          domain.LibraryQuestion
		tags, data string
	)
	err := row.Scan(&q.ID, &q.OwnerID, &q.Name, &q.Description, &q.Category, &tags, &q.IsPublic, &data, &q.UsageCount, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return q, fmt.Errorf("decode tags of %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(data), &q.Question); err != nil {
		return q, fmt.Errorf("decode question_data of %s: %w", q.ID, err)
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return q, nil
}

func (r Repo) InsertLibraryQuestion(ctx context.Context, tx *sql.Tx, q domain.LibraryQuestion) error {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	data, err := json.Marshal(q.Question)
	if err != nil {
		return fmt.Errorf("encode question_data: %w", err)
	}
	_, err = r.on(tx).ExecContext(ctx, r.bind(`INSERT INTO question_library(id,owner_id,name,description,category,tags_json,is_public,question_data,usage_count,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		q.ID, q.OwnerID, q.Name, nullable(q.Description), q.Category, string(tagsJSON), q.IsPublic, string(data), q.UsageCount, q.CreatedAt, q.UpdatedAt)
	return err
}

func (r Repo) GetLibraryQuestion(ctx context.Context, id string) (domain.LibraryQuestion, error) {
	return scanLibraryQuestion(r.DB.QueryRowContext(ctx, r.bind(`SELECT `+libraryColumns+` FROM question_library WHERE id=?`), id))
}

// ListLibraryQuestions returns the owner's questions plus every public one.
func (r Repo) ListLibraryQuestions(ctx context.Context, ownerID string, f domain.LibraryFilter) ([]domain.LibraryQuestion, error) {
	clauses := []string{"(owner_id=? OR is_public=?)"}
	args := []any{ownerID, true}
	if c := strings.TrimSpace(f.Category); c != "" && c != "all" {
		clauses = append(clauses, "category=?")
		args = append(args, c)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		clauses = append(clauses, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description,'')) LIKE ? ESCAPE '\')`)
		like := containsPattern(s)
		args = append(args, like, like)
	}
	query := `SELECT ` + libraryColumns + ` FROM question_library WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.LibraryQuestion
	for rows.Next() {
		q, err := scanLibraryQuestion(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, q)
	}
	return res, rows.Err()
}

// DeleteLibraryQuestion removes a question the owner saved. Other owners'
// public questions are reported as not found.
func (r Repo) DeleteLibraryQuestion(ctx context.Context, tx *sql.Tx, id, ownerID string) error {
	return affectedOrNotFound(r.on(tx).ExecContext(ctx, r.bind(`DELETE FROM question_library WHERE id=? AND owner_id=?`), id, ownerID))
}

func (r Repo) IncrementLibraryUsage(ctx context.Context, tx *sql.Tx, id, updatedAt string) error {
	return affectedOrNotFound(r.on(tx).ExecContext(ctx, r.bind(`UPDATE question_library SET usage_count=usage_count+1, updated_at=? WHERE id=?`), updatedAt, id))
}
