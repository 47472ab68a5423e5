package openai

import (
	"fmt"
	"strings"

	"resume-wizard/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPrompt = "You are a professional resume writer. Respond with Markdown only."

// maxDocumentChars bounds how much of each source document goes into the prompt.
const maxDocumentChars = 12000

// BuildPrompt creates the chat messages for a resume generation request.
func BuildPrompt(input llm.ResumeInput) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "developer", Content: llm.ResumePrompt(input)},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildUserPrompt(input llm.ResumeInput) string {
	jd := strings.TrimSpace(input.JobDescription)
	if jd == "" {
		jd = "N/A"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Job Description:\n%s\n\nSource Documents:\n", jd)
	if len(input.SourceDocuments) == 0 {
		b.WriteString("None provided.\n")
	}
	for i, doc := range input.SourceDocuments {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			content = "[content not extracted]"
		}
		if len(content) > maxDocumentChars {
			content = content[:maxDocumentChars]
		}
		fmt.Fprintf(&b, "\n--- Document %d: %s (%s) ---\n%s\n", i+1, doc.Name, orUnknown(doc.Type), content)
	}
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
