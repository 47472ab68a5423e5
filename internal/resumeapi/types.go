// Package resumeapi defines the wire shape of the resume aggregate and a client
// for the resumes CRUD API.
package resumeapi

import (
	"context"
	"time"
)

// Status is the lifecycle state of a persisted resume.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusGenerated Status = "GENERATED"
	StatusFinalized Status = "FINALIZED"
	StatusExported  Status = "EXPORTED"
)

var statusRank = map[Status]int{
	StatusDraft:     0,
	StatusGenerated: 1,
	StatusFinalized: 2,
	StatusExported:  3,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s precedes other in the lifecycle.
func (s Status) Before(other Status) bool {
	return statusRank[s] < statusRank[other]
}

// Gateway persists wizard sessions. Create is called once per session; Update is partial.
type Gateway interface {
	Create(ctx context.Context, payload Payload) (Resource, error)
	Update(ctx context.Context, id string, payload Payload) (Resource, error)
}

// ConfigPatch carries generation configuration; nil fields are left untouched.
type ConfigPatch struct {
	AIModel   *string   `json:"aiModel,omitempty"`
	Template  *string   `json:"template,omitempty"`
	Language  *string   `json:"language,omitempty"`
	WordLimit *int      `json:"wordLimit,omitempty"`
	Emphasis  *[]string `json:"emphasis,omitempty"`
}

// SourceDocument is a document attached to a resume.
type SourceDocument struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Payload is the body of create and update calls. Absent fields are not modified.
type Payload struct {
	ID               string            `json:"id,omitempty"`
	UserID           string            `json:"userId,omitempty"`
	JobDescription   *string           `json:"jobDescription,omitempty"`
	JobFileName      *string           `json:"jobFileName,omitempty"`
	JobFileSize      *int64            `json:"jobFileSize,omitempty"`
	GenerationConfig *ConfigPatch      `json:"generationConfig,omitempty"`
	SourceDocuments  *[]SourceDocument `json:"sourceDocuments,omitempty"`
	GeneratedResume  *string           `json:"generatedResume,omitempty"`
	FinalResume      *string           `json:"finalResume,omitempty"`
	Changelog        string            `json:"changelog,omitempty"`
	Status           *Status           `json:"status,omitempty"`
}

// Empty reports whether the payload would change nothing.
func (p Payload) Empty() bool {
	return p.JobDescription == nil && p.JobFileName == nil && p.JobFileSize == nil &&
		p.GenerationConfig == nil && p.SourceDocuments == nil &&
		p.GeneratedResume == nil && p.FinalResume == nil && p.Status == nil
}

// GenerationConfig is the stored generation configuration.
type GenerationConfig struct {
	AIModel   string   `json:"aiModel"`
	Template  string   `json:"template"`
	Language  string   `json:"language"`
	WordLimit *int     `json:"wordLimit,omitempty"`
	Emphasis  []string `json:"emphasis"`
}

// Version is an immutable snapshot of a finalized resume.
type Version struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	Content       string    `json:"content"`
	Changelog     string    `json:"changelog"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Resource is the persisted resume aggregate as returned by the API.
type Resource struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId,omitempty"`
	JobDescription   string           `json:"jobDescription"`
	JobFileName      string           `json:"jobFileName,omitempty"`
	JobFileSize      int64            `json:"jobFileSize,omitempty"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
	SourceDocuments  []SourceDocument `json:"sourceDocuments"`
	GeneratedResume  string           `json:"generatedResume,omitempty"`
	FinalResume      string           `json:"finalResume,omitempty"`
	Status           Status           `json:"status"`
	Versions         []Version        `json:"versions,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// ResumeEnvelope wraps single-resume responses.
type ResumeEnvelope struct {
	Message string   `json:"message,omitempty"`
	Resume  Resource `json:"resume"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// ListEnvelope wraps list responses.
type ListEnvelope struct {
	Resumes    []Resource `json:"resumes"`
	Pagination Pagination `json:"pagination"`
}

// VersionsEnvelope wraps version history responses.
type VersionsEnvelope struct {
	Versions []Version `json:"versions"`
}

// String returns a pointer to v, for building payloads.
func String(v string) *string { return &v }
