// Package generation produces resume content from a job target, source
// documents and generation options, reporting progress through fixed phases.
package generation

import (
	"context"
	"errors"
	"time"
)

// ErrGenerationFailed wraps every failure surfaced by a Generator.
var ErrGenerationFailed = errors.New("resume generation failed")

// Phases are the progress steps every generator reports, in order.
var Phases = []string{
	"Analyzing job requirements...",
	"Processing source documents...",
	"Extracting relevant experience...",
	"Matching skills to requirements...",
	"Generating resume content...",
	"Applying template formatting...",
	"Finalizing resume...",
}

// Progress is reported once per phase. Percent increases monotonically to 100.
type Progress struct {
	Phase   int
	Total   int
	Task    string
	Percent float64
}

// Document is a source document handed to a generator.
type Document struct {
	Name    string
	Type    string
	Size    int64
	Content string
}

// Config mirrors the wizard's generation options.
type Config struct {
	AIModel   string
	Template  string
	Language  string
	WordLimit *int
	Emphasis  []string
}

// Input is everything a generator may use.
type Input struct {
	JobDescription  string
	JobFileName     string
	SourceDocuments []Document
	Config          Config
}

// Generator produces resume Markdown. onProgress may be nil.
type Generator interface {
	Generate(ctx context.Context, in Input, onProgress func(Progress)) (string, error)
}

func progressAt(i int) Progress {
	total := len(Phases)
	return Progress{
		Phase:   i + 1,
		Total:   total,
		Task:    Phases[i],
		Percent: float64(i+1) / float64(total) * 100,
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
