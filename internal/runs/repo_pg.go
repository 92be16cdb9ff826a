package runs

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, document_id, file_name, location, status, feedback, improved_resume, job_roles, error_message, created_at, completed_at`

// Create inserts a new run.
func (r *PGRepo) Create(ctx context.Context, run Run) error {
	const query = `
INSERT INTO runs (
    id,
    document_id,
    file_name,
    location,
    status,
    error_message,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		run.ID,
		nullString(run.DocumentID),
		run.FileName,
		run.Location,
		run.Status,
		nullString(run.ErrorMessage),
		run.CreatedAt,
	)
	return err
}

// Complete stores the outputs of a processing run.
func (r *PGRepo) Complete(ctx context.Context, run Run) error {
	const query = `
UPDATE runs
SET status = $1, feedback = $2, improved_resume = $3, job_roles = $4, error_message = $5, completed_at = $6
WHERE id = $7 AND status = 'processing'`

	var completedAt sql.NullTime
	if run.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *run.CompletedAt, Valid: true}
	}
	res, err := r.DB.ExecContext(
		ctx,
		query,
		run.Status,
		run.Feedback,
		run.ImprovedResume,
		run.JobRoles,
		nullString(run.ErrorMessage),
		completedAt,
		run.ID,
	)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrInvalidStatus
	}
	return nil
}

// GetByID fetches a run by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Run, error) {
	query := `
SELECT ` + runColumns + `
FROM runs
WHERE id = $1
LIMIT 1`
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

// List lists runs ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + runColumns + `
FROM runs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		documentID  sql.NullString
		errorMsg    sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&run.ID,
		&documentID,
		&run.FileName,
		&run.Location,
		&run.Status,
		&run.Feedback,
		&run.ImprovedResume,
		&run.JobRoles,
		&errorMsg,
		&run.CreatedAt,
		&completedAt,
	); err != nil {
		return Run{}, err
	}
	if documentID.Valid {
		run.DocumentID = documentID.String
	}
	if errorMsg.Valid {
		run.ErrorMessage = errorMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
