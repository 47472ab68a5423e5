package resumes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-wizard/internal/resumeapi"
)

const defaultChangelog = "Resume finalized"

// Service contains business logic for resumes.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// NewService constructs a Service over repo.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Create persists a new resume. At least one source document is required.
func (s *Service) Create(ctx context.Context, userID string, payload resumeapi.Payload) (Resume, error) {
	if s.Repo == nil {
		return Resume{}, errors.New("missing dependencies")
	}
	if payload.SourceDocuments == nil || len(*payload.SourceDocuments) == 0 {
		return Resume{}, fmt.Errorf("%w: at least one source document is required", ErrInvalidInput)
	}
	if strings.TrimSpace(payload.UserID) != "" {
		userID = strings.TrimSpace(payload.UserID)
	}

	now := s.now()
	resume := Resume{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    resumeapi.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	mut, err := applyPayload(&resume, payload, now)
	if err != nil {
		return Resume{}, err
	}
	if mut.NewVersion != nil {
		v := *mut.NewVersion
		v.ID = uuid.NewString()
		v.ResumeID = resume.ID
		v.VersionNumber = 1
		v.CreatedAt = now
		resume.Versions = []Version{v}
	}
	if err := s.Repo.Create(ctx, resume); err != nil {
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}
	return resume, nil
}

// Get returns a resume with its documents and latest versions.
func (s *Service) Get(ctx context.Context, id string) (Resume, error) {
	if strings.TrimSpace(id) == "" {
		return Resume{}, ErrInvalidInput
	}
	return s.Repo.Get(ctx, id, LatestVersionsLimit)
}

// Page is one page of a resume listing.
type Page struct {
	Resumes    []Resume
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// List returns a page of resumes, optionally for one user.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	items, total, err := s.Repo.List(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Resumes:    items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// Update applies a partial update. Setting generatedResume raises the status to at least
// GENERATED; setting finalResume raises it to at least FINALIZED and appends a version.
func (s *Service) Update(ctx context.Context, id string, payload resumeapi.Payload) (Resume, error) {
	if strings.TrimSpace(id) == "" {
		return Resume{}, fmt.Errorf("%w: resume id is required", ErrInvalidInput)
	}
	now := s.now()
	return s.Repo.Update(ctx, id, func(resume *Resume) (Mutation, error) {
		return applyPayload(resume, payload, now)
	})
}

// Delete removes a resume and everything it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, id)
}

// Versions returns the full version history, newest first.
func (s *Service) Versions(ctx context.Context, id string) ([]Version, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListVersions(ctx, id)
}

func applyPayload(resume *Resume, payload resumeapi.Payload, now time.Time) (Mutation, error) {
	var mut Mutation
	target := resume.Status

	if payload.Status != nil {
		requested := *payload.Status
		if !requested.Valid() {
			return mut, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, requested)
		}
		if requested.Before(resume.Status) {
			return mut, fmt.Errorf("%w: status cannot move from %s to %s", ErrInvalidInput, resume.Status, requested)
		}
		target = requested
	}

	if payload.JobDescription != nil {
		resume.JobDescription = *payload.JobDescription
	}
	if payload.JobFileName != nil {
		resume.JobFileName = *payload.JobFileName
	}
	if payload.JobFileSize != nil {
		resume.JobFileSize = *payload.JobFileSize
	}
	if cfg := payload.GenerationConfig; cfg != nil {
		if cfg.AIModel != nil {
			resume.Config.AIModel = *cfg.AIModel
		}
		if cfg.Template != nil {
			resume.Config.Template = *cfg.Template
		}
		if cfg.Language != nil {
			resume.Config.Language = *cfg.Language
		}
		if cfg.WordLimit != nil {
			if *cfg.WordLimit <= 0 {
				return mut, fmt.Errorf("%w: wordLimit must be positive", ErrInvalidInput)
			}
			wl := *cfg.WordLimit
			resume.Config.WordLimit = &wl
		}
		if cfg.Emphasis != nil {
			resume.Config.Emphasis = append([]string{}, (*cfg.Emphasis)...)
		}
	}
	if payload.SourceDocuments != nil {
		docs := make([]Document, 0, len(*payload.SourceDocuments))
		for i, d := range *payload.SourceDocuments {
			if strings.TrimSpace(d.Name) == "" {
				return mut, fmt.Errorf("%w: source document %d has no name", ErrInvalidInput, i+1)
			}
			docs = append(docs, Document{
				ID:        uuid.NewString(),
				ResumeID:  resume.ID,
				Position:  i,
				Name:      d.Name,
				Size:      d.Size,
				MimeType:  d.Type,
				Content:   d.Content,
				CreatedAt: now,
			})
		}
		resume.Documents = docs
		mut.ReplaceDocuments = true
	}
	if payload.GeneratedResume != nil {
		resume.GeneratedResume = *payload.GeneratedResume
		if strings.TrimSpace(resume.GeneratedResume) != "" && target.Before(resumeapi.StatusGenerated) {
			target = resumeapi.StatusGenerated
		}
	}
	if payload.FinalResume != nil {
		if strings.TrimSpace(resume.GeneratedResume) == "" {
			return mut, fmt.Errorf("%w: finalResume requires a generated resume", ErrInvalidInput)
		}
		resume.FinalResume = *payload.FinalResume
		if target.Before(resumeapi.StatusFinalized) {
			target = resumeapi.StatusFinalized
		}
		changelog := strings.TrimSpace(payload.Changelog)
		if changelog == "" {
			changelog = defaultChangelog
		}
		mut.NewVersion = &Version{
			Content:   resume.FinalResume,
			Changelog: changelog,
			CreatedAt: now,
		}
	}

	resume.Status = target
	resume.UpdatedAt = now
	return mut, nil
}
