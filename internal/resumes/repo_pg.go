package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, user_id, job_description, job_file_name, job_file_size,
    ai_model, template, language, word_limit, emphasis,
    generated_resume, final_resume, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts the resume and its documents in one transaction.
func (r *PGRepo) Create(ctx context.Context, resume Resume) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	emphasis, err := encodeEmphasis(resume.Config.Emphasis)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO resumes (` + resumeColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := tx.ExecContext(ctx, query,
		resume.ID,
		resume.UserID,
		resume.JobDescription,
		resume.JobFileName,
		resume.JobFileSize,
		resume.Config.AIModel,
		resume.Config.Template,
		resume.Config.Language,
		wordLimitValue(resume.Config.WordLimit),
		emphasis,
		resume.GeneratedResume,
		resume.FinalResume,
		string(resume.Status),
		resume.CreatedAt,
		resume.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	if err := insertDocuments(ctx, tx, resume.ID, resume.Documents); err != nil {
		return err
	}
	for _, v := range resume.Versions {
		if err := insertVersion(ctx, tx, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns a resume with its documents and newest versions.
func (r *PGRepo) Get(ctx context.Context, id string, versionLimit int) (Resume, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Resume{}, ErrNotFound
	}
	const query = `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`
	resume, err := scanResume(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return Resume{}, err
	}
	docs, err := r.documents(ctx, id)
	if err != nil {
		return Resume{}, err
	}
	resume.Documents = docs
	versions, err := r.versions(ctx, id, versionLimit)
	if err != nil {
		return Resume{}, err
	}
	resume.Versions = versions
	return resume, nil
}

// List returns one page of resumes, newest first.
func (r *PGRepo) List(ctx context.Context, userID string, limit, offset int) ([]Resume, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	const countQuery = `SELECT COUNT(*) FROM resumes WHERE ($1 = '' OR user_id = $1)`
	if err := r.DB.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
SELECT ` + resumeColumns + `
FROM resumes
WHERE ($1 = '' OR user_id = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Resume{}
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, resume)
	}
	return out, total, rows.Err()
}

// Update locks the row, applies the mutation and writes resume, documents and version atomically.
func (r *PGRepo) Update(ctx context.Context, id string, apply func(*Resume) (Mutation, error)) (Resume, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Resume{}, ErrNotFound
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Resume{}, err
	}
	defer func() { _ = tx.Rollback() }()

	const lockQuery = `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1 FOR UPDATE`
	resume, err := scanResume(tx.QueryRowContext(ctx, lockQuery, id))
	if err != nil {
		return Resume{}, err
	}

	mut, err := apply(&resume)
	if err != nil {
		return Resume{}, err
	}

	emphasis, err := encodeEmphasis(resume.Config.Emphasis)
	if err != nil {
		return Resume{}, err
	}
	const updateQuery = `
UPDATE resumes SET
    job_description = $2,
    job_file_name = $3,
    job_file_size = $4,
    ai_model = $5,
    template = $6,
    language = $7,
    word_limit = $8,
    emphasis = $9,
    generated_resume = $10,
    final_resume = $11,
    status = $12,
    updated_at = $13
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery,
		resume.ID,
		resume.JobDescription,
		resume.JobFileName,
		resume.JobFileSize,
		resume.Config.AIModel,
		resume.Config.Template,
		resume.Config.Language,
		wordLimitValue(resume.Config.WordLimit),
		emphasis,
		resume.GeneratedResume,
		resume.FinalResume,
		string(resume.Status),
		resume.UpdatedAt,
	); err != nil {
		return Resume{}, fmt.Errorf("update resume: %w", err)
	}

	if mut.ReplaceDocuments {
		if _, err := tx.ExecContext(ctx, `DELETE FROM source_documents WHERE resume_id = $1`, id); err != nil {
			return Resume{}, fmt.Errorf("clear documents: %w", err)
		}
		if err := insertDocuments(ctx, tx, id, resume.Documents); err != nil {
			return Resume{}, err
		}
	}

	if mut.NewVersion != nil {
		var current int
		const maxQuery = `SELECT COALESCE(MAX(version_number), 0) FROM resume_versions WHERE resume_id = $1`
		if err := tx.QueryRowContext(ctx, maxQuery, id).Scan(&current); err != nil {
			return Resume{}, fmt.Errorf("next version number: %w", err)
		}
		v := *mut.NewVersion
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ResumeID = id
		v.VersionNumber = current + 1
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now().UTC()
		}
		if err := insertVersion(ctx, tx, v); err != nil {
			return Resume{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Resume{}, err
	}
	return r.Get(ctx, id, LatestVersionsLimit)
}

// Delete removes the resume. Documents and versions cascade.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVersions returns every version, newest first.
func (r *PGRepo) ListVersions(ctx context.Context, id string) ([]Version, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM resumes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return r.versions(ctx, id, 0)
}

func (r *PGRepo) documents(ctx context.Context, resumeID string) ([]Document, error) {
	const query = `
SELECT id, resume_id, position, name, size, mime_type, content, created_at
FROM source_documents
WHERE resume_id = $1
ORDER BY position ASC`
	rows, err := r.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ResumeID, &d.Position, &d.Name, &d.Size, &d.MimeType, &d.Content, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PGRepo) versions(ctx context.Context, resumeID string, limit int) ([]Version, error) {
	query := `
SELECT id, resume_id, version_number, content, changelog, created_at
FROM resume_versions
WHERE resume_id = $1
ORDER BY version_number DESC`
	args := []any{resumeID}
	if limit > 0 {
		query += "\nLIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.ResumeID, &v.VersionNumber, &v.Content, &v.Changelog, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func insertDocuments(ctx context.Context, tx *sql.Tx, resumeID string, docs []Document) error {
	const query = `
INSERT INTO source_documents (id, resume_id, position, name, size, mime_type, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, query, d.ID, resumeID, i, d.Name, d.Size, d.MimeType, d.Content, d.CreatedAt); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, v Version) error {
	const query = `
INSERT INTO resume_versions (id, resume_id, version_number, content, changelog, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, v.ID, v.ResumeID, v.VersionNumber, v.Content, v.Changelog, v.CreatedAt); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func scanResume(row rowScanner) (Resume, error) {
	var (
		resume    Resume
		status    string
		wordLimit sql.NullInt64
		emphasis  []byte
	)
	err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.JobDescription,
		&resume.JobFileName,
		&resume.JobFileSize,
		&resume.Config.AIModel,
		&resume.Config.Template,
		&resume.Config.Language,
		&wordLimit,
		&emphasis,
		&resume.GeneratedResume,
		&resume.FinalResume,
		&status,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	resume.Status = Status(status)
	if wordLimit.Valid {
		wl := int(wordLimit.Int64)
		resume.Config.WordLimit = &wl
	}
	if len(emphasis) > 0 {
		if err := json.Unmarshal(emphasis, &resume.Config.Emphasis); err != nil {
			return Resume{}, fmt.Errorf("decode emphasis: %w", err)
		}
	}
	return resume, nil
}

func encodeEmphasis(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func wordLimitValue(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

var _ Repo = (*PGRepo)(nil)
