package wizard

import (
	"regexp"
	"strings"
)

// Section is one "##" block of a resume.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

var (
	headingPrefix = regexp.MustCompile(`^#+\s*`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Sections splits Markdown on lines starting with "##". Text before the first
// such heading is not part of any section. Without headings the whole text is
// one "Resume Content" section.
func Sections(markdown string) []Section {
	var (
		out     []Section
		title   string
		inBlock bool
		body    []string
	)
	flush := func() {
		if !inBlock {
			return
		}
		out = append(out, Section{
			ID:      strings.ToLower(whitespaceRun.ReplaceAllString(title, "-")),
			Title:   title,
			Content: strings.TrimSpace(strings.Join(body, "\n")),
		})
	}
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "##") {
			flush()
			title = headingPrefix.ReplaceAllString(line, "")
			inBlock = true
			body = body[:0]
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	flush()
	if len(out) == 0 {
		return []Section{{ID: "content", Title: "Resume Content", Content: markdown}}
	}
	return out
}

// ReviewContent is the text the Review step works on: the final resume when
// set, otherwise the generated one.
func ReviewContent(s Session) string {
	if strings.TrimSpace(s.FinalResume) != "" {
		return s.FinalResume
	}
	return s.GeneratedResume
}
