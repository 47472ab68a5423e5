package wizard

import (
	"strings"
	"time"

	"resume-wizard/internal/resumeapi"
)

// FileMeta describes an uploaded file without its bytes.
type FileMeta struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	LastModified time.Time `json:"lastModified"`
}

// Document is a source document. Content holds extracted text when available.
type Document struct {
	FileMeta
	Content string `json:"content,omitempty"`
}

// GenerationConfig holds the options chosen in the Configuration step.
type GenerationConfig struct {
	AIModel   string   `json:"aiModel"`
	Template  string   `json:"template"`
	Language  string   `json:"language"`
	WordLimit *int     `json:"wordLimit,omitempty"`
	Emphasis  []string `json:"emphasis"`
}

// Session is the wizard's working state. JobText and JobFile are mutually exclusive.
type Session struct {
	SessionID        string
	CurrentStep      Step
	JobText          string
	JobFile          *FileMeta
	SourceDocuments  []Document
	GenerationConfig GenerationConfig
	GeneratedResume  string
	FinalResume      string
	// Changelog accompanies the next finalResume sync.
	Changelog       string
	Status          resumeapi.Status
	LastPersistedAt time.Time
}

func newSession() Session {
	return Session{CurrentStep: FirstStep}
}

// HasJobDescription reports whether a job file or non-blank text is present.
func (s Session) HasJobDescription() bool {
	return s.JobFile != nil || strings.TrimSpace(s.JobText) != ""
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	if s.JobFile != nil {
		f := *s.JobFile
		out.JobFile = &f
	}
	out.SourceDocuments = append([]Document(nil), s.SourceDocuments...)
	out.GenerationConfig = s.GenerationConfig.clone()
	return out
}

func (g GenerationConfig) clone() GenerationConfig {
	out := g
	if g.WordLimit != nil {
		wl := *g.WordLimit
		out.WordLimit = &wl
	}
	out.Emphasis = append([]string(nil), g.Emphasis...)
	return out
}
