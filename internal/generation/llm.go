package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"resume-wizard/internal/llm"
)

const llmRetryBaseDelay = 300 * time.Millisecond

// LLM generates resumes with a language model. Progress phases before the
// model call are reported up front; the rest are reported once it returns.
type LLM struct {
	Client     llm.Client
	RetryDelay time.Duration
}

// NewLLM constructs an LLM generator over client.
func NewLLM(client llm.Client) *LLM {
	return &LLM{Client: client, RetryDelay: llmRetryBaseDelay}
}

// splitPhase is the index of "Generating resume content...".
const splitPhase = 4

// Generate calls the model once, retrying a single time on transient errors.
func (g *LLM) Generate(ctx context.Context, in Input, onProgress func(Progress)) (string, error) {
	if g.Client == nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, llm.ErrNotConfigured)
	}
	report := func(from, to int) {
		if onProgress == nil {
			return
		}
		for i := from; i < to; i++ {
			onProgress(progressAt(i))
		}
	}

	report(0, splitPhase+1)
	content, err := g.generateWithRetry(ctx, toLLMInput(in))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty model output", ErrGenerationFailed)
	}
	report(splitPhase+1, len(Phases))
	return content, nil
}

func (g *LLM) generateWithRetry(ctx context.Context, input llm.ResumeInput) (string, error) {
	content, err := g.Client.GenerateResume(ctx, input)
	if err == nil || !shouldRetryLLM(err) {
		return content, err
	}

	log.Printf("llm retry attempt=1 model=%s error=%s", input.Model, err.Error())
	if err := sleepCtx(ctx, g.RetryDelay); err != nil {
		return "", err
	}
	return g.Client.GenerateResume(ctx, input)
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "server_error")
}

func toLLMInput(in Input) llm.ResumeInput {
	out := llm.ResumeInput{
		JobDescription: jobTarget(in),
		Model:          in.Config.AIModel,
		Template:       in.Config.Template,
		Language:       in.Config.Language,
		Emphasis:       append([]string(nil), in.Config.Emphasis...),
	}
	if in.Config.WordLimit != nil {
		out.WordLimit = *in.Config.WordLimit
	}
	for _, d := range in.SourceDocuments {
		out.SourceDocuments = append(out.SourceDocuments, llm.SourceDocument{
			Name:    d.Name,
			Type:    d.Type,
			Content: d.Content,
		})
	}
	return out
}

var _ Generator = (*LLM)(nil)
