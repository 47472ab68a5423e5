package main

// Generate a resume from local files without the HTTP API:
//   go run ./cmd/prompttest -jd jd.txt -doc cv.md -doc projects.md -generator llm -format html

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/llm"
	openai "resume-wizard/internal/llm/openai"
	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/templates"
	"resume-wizard/internal/wizard"
)

type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	cfg := config.Load()

	var docs pathList
	jdPath := flag.String("jd", "", "Path to job description text (optional)")
	flag.Var(&docs, "doc", "Path to a source document (text or markdown); repeatable")
	generator := flag.String("generator", "placeholder", "placeholder or llm")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	aiModel := flag.String("ai-model", "gpt-4", "Catalog AI model")
	template := flag.String("template", "modern", "Catalog template id")
	language := flag.String("language", "en-us", "Resume language")
	format := flag.String("format", "markdown", "Output format: markdown, text or html")
	outPath := flag.String("out", "", "Path to write the rendered resume (optional)")
	flag.Parse()

	if len(docs) == 0 {
		exitErr("at least one -doc is required")
	}

	catalog, err := templates.Default()
	if err != nil {
		exitErr(fmt.Sprintf("load catalog: %v", err))
	}
	if !catalog.HasModel(*aiModel) {
		exitErr(fmt.Sprintf("unknown ai model: %s", *aiModel))
	}
	if _, err := catalog.Template(*template); err != nil {
		exitErr(fmt.Sprintf("unknown template: %s", *template))
	}
	lang, ok := catalog.MatchLanguage(*language)
	if !ok {
		exitErr(fmt.Sprintf("unsupported language: %s", *language))
	}
	outFormat, err := wizard.ParseFormat(*format)
	if err != nil {
		exitErr(err.Error())
	}

	in := generation.Input{Config: generation.Config{AIModel: *aiModel, Template: *template, Language: lang}}
	if strings.TrimSpace(*jdPath) != "" {
		jd, err := os.ReadFile(*jdPath)
		if err != nil {
			exitErr(fmt.Sprintf("read job description: %v", err))
		}
		in.JobDescription = string(jd)
	}
	for _, p := range docs {
		content, err := os.ReadFile(p)
		if err != nil {
			exitErr(fmt.Sprintf("read document: %v", err))
		}
		in.SourceDocuments = append(in.SourceDocuments, generation.Document{
			Name:    filepath.Base(p),
			Type:    "text/plain",
			Size:    int64(len(content)),
			Content: string(content),
		})
	}

	gen, err := buildGenerator(*generator, *provider, *model)
	if err != nil {
		exitErr(err.Error())
	}

	md, err := gen.Generate(context.Background(), in, func(p generation.Progress) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Phase, p.Total, p.Task)
	})
	if err != nil {
		exitErr(fmt.Sprintf("generate: %v", err))
	}

	doc, err := wizard.Render(md, outFormat)
	if err != nil {
		exitErr(fmt.Sprintf("render: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, doc.Body, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(doc.Body); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(doc.Body) == 0 || doc.Body[len(doc.Body)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func buildGenerator(kind, provider, model string) (generation.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "placeholder":
		return generation.NewPlaceholder(50 * time.Millisecond), nil
	case "llm":
		client, err := buildClient(provider, model)
		if err != nil {
			return nil, err
		}
		return generation.NewLLM(client), nil
	default:
		return nil, fmt.Errorf("unsupported generator: %s", kind)
	}
}

func buildClient(provider, model string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		return openai.NewClient(os.Getenv("OPENAI_API_KEY"), model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
