package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"surveyline/internal/domain"
)

const surveyColumns = `id,owner_id,title,COALESCE(description,''),status,settings_json,questions_json,created_at,updated_at,COALESCE(published_at,'')`

func encodeSurvey(s domain.Survey) (settings, questions string, err error) {
	sb, err := json.Marshal(s.Settings)
	if err != nil {
		return "", "", fmt.Errorf("encode settings: %w", err)
	}
	qs := s.Questions
	if qs == nil {
		qs = []domain.Question{}
	}
	qb, err := json.Marshal(qs)
	if err != nil {
		return "", "", fmt.Errorf("encode questions: %w", err)
	}
	return string(sb), string(qb), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (domain.Survey, error) {
	var (
		s                  domain.Survey
		status             string
		settings, question string
	)
	err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &status, &settings, &question, &s.CreatedAt, &s.UpdatedAt, &s.PublishedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Status = domain.SurveyStatus(status)
	s.Settings = domain.DefaultSurveySettings()
	if err := json.Unmarshal([]byte(settings), &s.Settings); err != nil {
		return s, fmt.Errorf("decode survey %s settings: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(question), &s.Questions); err != nil {
		return s, fmt.Errorf("decode survey %s questions: %w", s.ID, err)
	}
	if s.Questions == nil {
		s.Questions = []domain.Question{}
	}
	return s, nil
}

func (r Repo) InsertSurvey(ctx context.Context, tx *sql.Tx, s domain.Survey) error {
	settings, questions, err := encodeSurvey(s)
	if err != nil {
		return err
	}
	_, err = r.on(tx).ExecContext(ctx, r.bind(`INSERT INTO surveys(id,owner_id,title,description,status,settings_json,questions_json,question_count,created_at,updated_at,published_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		s.ID, s.OwnerID, s.Title, nullable(s.Description), string(s.Status), settings, questions, len(s.Questions), s.CreatedAt, s.UpdatedAt, nullable(s.PublishedAt))
	return err
}

// UpdateSurvey overwrites the whole document of an existing survey.
func (r Repo) UpdateSurvey(ctx context.Context, tx *sql.Tx, s domain.Survey) error {
	settings, questions, err := encodeSurvey(s)
	if err != nil {
		return err
	}
	return affectedOrNotFound(r.on(tx).ExecContext(ctx, r.bind(`UPDATE surveys SET title=?,description=?,status=?,settings_json=?,questions_json=?,question_count=?,updated_at=?,published_at=? WHERE id=? AND owner_id=?`),
		s.Title, nullable(s.Description), string(s.Status), settings, questions, len(s.Questions), s.UpdatedAt, nullable(s.PublishedAt), s.ID, s.OwnerID))
}

func (r Repo) GetSurvey(ctx context.Context, id string) (domain.Survey, error) {
	return r.GetSurveyTx(ctx, nil, id)
}

func (r Repo) GetSurveyTx(ctx context.Context, tx *sql.Tx, id string) (domain.Survey, error) {
	return scanSurvey(r.on(tx).QueryRowContext(ctx, r.bind(`SELECT `+surveyColumns+` FROM surveys WHERE id=?`), id))
}

// ListSurveys returns the owner's surveys, most recently updated first.
func (r Repo) ListSurveys(ctx context.Context, ownerID string, f domain.SurveyFilter) ([]domain.SurveySummary, error) {
	clauses := []string{"owner_id=?"}
	args := []any{ownerID}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, string(f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		clauses = append(clauses, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description,'')) LIKE ? ESCAPE '\')`)
		like := containsPattern(s)
		args = append(args, like, like)
	}
	query := `SELECT id,owner_id,title,status,question_count,updated_at FROM surveys WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY updated_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SurveySummary
	for rows.Next() {
		var s domain.SurveySummary
		var status string
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Title, &status, &s.QuestionCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Status = domain.SurveyStatus(status)
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) DeleteSurvey(ctx context.Context, tx *sql.Tx, id, ownerID string) error {
	return affectedOrNotFound(r.on(tx).ExecContext(ctx, r.bind(`DELETE FROM surveys WHERE id=? AND owner_id=?`), id, ownerID))
}
