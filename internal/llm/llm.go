// Package llm abstracts the language-model providers used for resume generation.
package llm

import (
	"context"
	_ "embed"
	"errors"
	"strconv"
	"strings"
)

//go:embed prompts/resume_generate_v1.txt
var resumePromptV1 string

// PromptVersion identifies the embedded generation prompt.
const PromptVersion = "resume_generate_v1"

// Client abstracts LLM providers for resume generation.
type Client interface {
	GenerateResume(ctx context.Context, input ResumeInput) (string, error)
}

// SourceDocument is a document the model may draw facts from.
type SourceDocument struct {
	Name    string
	Type    string
	Content string
}

// ResumeInput captures everything needed to generate one resume.
type ResumeInput struct {
	JobDescription  string
	SourceDocuments []SourceDocument
	Model           string
	Template        string
	Language        string
	WordLimit       int
	Emphasis        []string
}

var (
	// ErrNotConfigured is returned when no provider credentials are available.
	ErrNotConfigured = errors.New("LLM provider not configured")

	// ErrTransient marks failures worth one more attempt (timeouts, throttling, 5xx).
	ErrTransient = errors.New("transient LLM failure")
)

// ResumePrompt renders the instruction prompt for input.
func ResumePrompt(input ResumeInput) string {
	template := strings.TrimSpace(input.Template)
	if template == "" {
		template = "modern"
	}
	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = "en-us"
	}
	wordLimit := "none"
	if input.WordLimit > 0 {
		wordLimit = strconv.Itoa(input.WordLimit) + " words"
	}
	emphasis := "balanced coverage"
	if len(input.Emphasis) > 0 {
		emphasis = strings.Join(input.Emphasis, ", ")
	}
	replacer := strings.NewReplacer(
		"{{TEMPLATE}}", template,
		"{{LANGUAGE}}", language,
		"{{WORD_LIMIT}}", wordLimit,
		"{{EMPHASIS}}", emphasis,
	)
	return replacer.Replace(resumePromptV1)
}
