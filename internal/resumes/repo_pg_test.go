package resumes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const testResumeID = "4b0f6a8e-6a64-4d8e-9b8f-1f2b3c4d5e6f"

var resumeColumnNames = []string{
	"id", "user_id", "job_description", "job_file_name", "job_file_size",
	"ai_model", "template", "language", "word_limit", "emphasis",
	"generated_resume", "final_resume", "status", "created_at", "updated_at",
}

func resumeRows(status, generated, final string) *sqlmock.Rows {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(resumeColumnNames).AddRow(
		testResumeID, "user-1", "Data analyst role", "", int64(0),
		"gpt-4", "modern", "en-us", int64(500), []byte(`["skills"]`),
		generated, final, status, now, now,
	)
}

func TestPGRepoCreateInsertsResumeAndDocuments(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	resume := Resume{
		ID:             testResumeID,
		UserID:         "user-1",
		JobDescription: "jd",
		Status:         "DRAFT",
		Documents: []Document{
			{ID: "d1", Name: "cv.pdf", Size: 100, MimeType: "application/pdf", CreatedAt: now},
			{ID: "d2", Name: "cv.pdf", Size: 100, MimeType: "application/pdf", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO resumes").
		WithArgs(
			testResumeID, "user-1", "jd", "", int64(0),
			"", "", "", nil, []byte("[]"),
			"", "", "DRAFT", now, now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO source_documents").
		WithArgs("d1", testResumeID, 0, "cv.pdf", int64(100), "application/pdf", "", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO source_documents").
		WithArgs("d2", testResumeID, 1, "cv.pdf", int64(100), "application/pdf", "", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), resume); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateRollsBackOnDocumentFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	resume := Resume{
		ID:        testResumeID,
		Status:    "DRAFT",
		Documents: []Document{{ID: "d1", Name: "cv.pdf"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO resumes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO source_documents").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.Create(context.Background(), resume); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateAppendsNextVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM resumes WHERE id = \$1 FOR UPDATE`).
		WithArgs(testResumeID).
		WillReturnRows(resumeRows("FINALIZED", "# Resume", "# Resume v2"))
	mock.ExpectExec("UPDATE resumes SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\) FROM resume_versions`).
		WithArgs(testResumeID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
	mock.ExpectExec("INSERT INTO resume_versions").
		WithArgs(sqlmock.AnyArg(), testResumeID, 3, "# Resume v3", "Resume finalized", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM resumes WHERE id = \$1`).
		WithArgs(testResumeID).
		WillReturnRows(resumeRows("FINALIZED", "# Resume", "# Resume v3"))
	mock.ExpectQuery("FROM source_documents").
		WithArgs(testResumeID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resume_id", "position", "name", "size", "mime_type", "content", "created_at"}))
	mock.ExpectQuery("FROM resume_versions").
		WithArgs(testResumeID, LatestVersionsLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resume_id", "version_number", "content", "changelog", "created_at"}).
			AddRow("v3", testResumeID, 3, "# Resume v3", "Resume finalized", time.Now()))

	final := "# Resume v3"
	updated, err := repo.Update(context.Background(), testResumeID, func(r *Resume) (Mutation, error) {
		r.FinalResume = final
		return Mutation{NewVersion: &Version{Content: final, Changelog: defaultChangelog}}, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Versions) != 1 || updated.Versions[0].VersionNumber != 3 {
		t.Fatalf("unexpected versions: %+v", updated.Versions)
	}
	if updated.Config.WordLimit == nil || *updated.Config.WordLimit != 500 {
		t.Fatalf("expected word limit 500")
	}
	if len(updated.Config.Emphasis) != 1 || updated.Config.Emphasis[0] != "skills" {
		t.Fatalf("unexpected emphasis: %v", updated.Config.Emphasis)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateUnknownIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(testResumeID).
		WillReturnRows(sqlmock.NewRows(resumeColumnNames))
	mock.ExpectRollback()

	_, err = repo.Update(context.Background(), testResumeID, func(r *Resume) (Mutation, error) {
		t.Fatalf("apply must not run for missing rows")
		return Mutation{}, nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteReportsMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM resumes").
		WithArgs(testResumeID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), testResumeID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListCountsAndPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resumes`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("user-1", 10, 10).
		WillReturnRows(resumeRows("DRAFT", "", ""))

	items, total, err := repo.List(context.Background(), "user-1", 10, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 11 || len(items) != 1 {
		t.Fatalf("unexpected page: total=%d items=%d", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
