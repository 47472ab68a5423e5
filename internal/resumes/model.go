package resumes

import (
	"time"

	"resume-wizard/internal/resumeapi"
)

// Status aliases the wire status so both layers share one lifecycle.
type Status = resumeapi.Status

// Config is the stored generation configuration.
type Config struct {
	AIModel   string
	Template  string
	Language  string
	WordLimit *int
	Emphasis  []string
}

// Document is a source document row owned by a resume.
type Document struct {
	ID        string
	ResumeID  string
	Position  int
	Name      string
	Size      int64
	MimeType  string
	Content   string
	CreatedAt time.Time
}

// Version is an immutable finalized snapshot. Numbers start at 1 per resume.
type Version struct {
	ID            string
	ResumeID      string
	VersionNumber int
	Content       string
	Changelog     string
	CreatedAt     time.Time
}

// Resume is the persisted aggregate.
type Resume struct {
	ID              string
	UserID          string
	JobDescription  string
	JobFileName     string
	JobFileSize     int64
	Config          Config
	GeneratedResume string
	FinalResume     string
	Status          Status
	Documents       []Document
	Versions        []Version
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Mutation tells the repository which child rows an update touches.
type Mutation struct {
	ReplaceDocuments bool
	// NewVersion is appended with the next version number when set.
	NewVersion *Version
}

func (r Resume) clone() Resume {
	out := r
	out.Config.Emphasis = append([]string(nil), r.Config.Emphasis...)
	if r.Config.WordLimit != nil {
		wl := *r.Config.WordLimit
		out.Config.WordLimit = &wl
	}
	out.Documents = append([]Document(nil), r.Documents...)
	out.Versions = append([]Version(nil), r.Versions...)
	return out
}
