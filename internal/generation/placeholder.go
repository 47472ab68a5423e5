package generation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholder simulates generation: it waits PhaseDelay per phase and fills a
// fixed Markdown template from the input.
type Placeholder struct {
	PhaseDelay time.Duration
	// Sleep defaults to a context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPlaceholder constructs a Placeholder with the given per-phase delay.
func NewPlaceholder(phaseDelay time.Duration) *Placeholder {
	return &Placeholder{PhaseDelay: phaseDelay}
}

// Generate walks every phase and returns the rendered template.
func (p *Placeholder) Generate(ctx context.Context, in Input, onProgress func(Progress)) (string, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	for i := range Phases {
		if onProgress != nil {
			onProgress(progressAt(i))
		}
		if err := sleep(ctx, p.PhaseDelay); err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}
	return RenderPlaceholder(in), nil
}

// RenderPlaceholder builds the placeholder resume for in.
func RenderPlaceholder(in Input) string {
	cfg := in.Config
	wordLimit := "No limit"
	if cfg.WordLimit != nil && *cfg.WordLimit > 0 {
		wordLimit = strconv.Itoa(*cfg.WordLimit)
	}
	emphasis := "None specified"
	if len(cfg.Emphasis) > 0 {
		emphasis = strings.Join(cfg.Emphasis, ", ")
	}

	var b strings.Builder
	b.WriteString("# Resume\n")
	b.WriteString("**Generated based on your uploaded documents and job requirements**\n\n---\n\n")
	b.WriteString("## Job Target\n")
	b.WriteString(jobTarget(in))
	b.WriteString("\n\n## Configuration\n")
	fmt.Fprintf(&b, "- **AI Model:** %s\n", orDefault(cfg.AIModel, "Default"))
	fmt.Fprintf(&b, "- **Template:** %s\n", orDefault(cfg.Template, "Professional"))
	fmt.Fprintf(&b, "- **Language Style:** %s\n", orDefault(cfg.Language, "Professional"))
	fmt.Fprintf(&b, "- **Word Limit:** %s\n", wordLimit)
	fmt.Fprintf(&b, "- **Emphasis Areas:** %s\n", emphasis)
	b.WriteString("\n## Source Documents Analysis\n")
	b.WriteString(documentSummary(in.SourceDocuments))
	b.WriteString("\n## Generated Resume Content\n\n")
	b.WriteString("### Professional Summary\n")
	b.WriteString("[Summary tailored to the job target, drawn from the experience and skills in your documents.]\n\n")
	b.WriteString("### Core Competencies\n")
	b.WriteString("[Skills from your documents that match the job requirements.]\n\n")
	b.WriteString("### Professional Experience\n")
	b.WriteString("[Your work history, reordered to emphasize experience relevant to the target job.]\n\n")
	b.WriteString("### Education\n")
	b.WriteString("[Educational background extracted from your documents.]\n\n")
	b.WriteString("### Additional Sections\n")
	b.WriteString("[Other relevant sections based on your uploaded content and the job requirements.]\n")
	return b.String()
}

func jobTarget(in Input) string {
	if name := strings.TrimSpace(in.JobFileName); name != "" {
		return "Job Description from: " + name
	}
	if text := strings.TrimSpace(in.JobDescription); text != "" {
		return text
	}
	return "No job description provided."
}

func documentSummary(docs []Document) string {
	if len(docs) == 0 {
		return "No source documents provided.\n"
	}
	var b strings.Builder
	b.WriteString("Extracted content from uploaded documents:\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "Document %d: %s\n", i+1, d.Name)
		fmt.Fprintf(&b, "- File type: %s\n", orDefault(d.Type, "Unknown"))
		fmt.Fprintf(&b, "- Size: %.2f KB\n\n", float64(d.Size)/1024)
	}
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

var _ Generator = (*Placeholder)(nil)
