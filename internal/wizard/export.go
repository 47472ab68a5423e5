package wizard

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/shared/telemetry"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name or common extension. Empty means Markdown.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "plain":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, raw)
	}
}

// ExportedDocument is a rendered resume ready to download.
type ExportedDocument struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Export renders the resume and marks it EXPORTED. It is only available at
// the Export step and flushes pending changes first.
func (c *Controller) Export(ctx context.Context, format Format) (ExportedDocument, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ExportedDocument{}, ErrClosed
	}
	if c.session.CurrentStep != StepExport {
		step := c.session.CurrentStep
		c.mu.Unlock()
		return ExportedDocument{}, fmt.Errorf("%w: export runs at step %d, session is at step %d", ErrWrongStep, StepExport, step)
	}
	c.mu.Unlock()

	if err := c.Flush(ctx); err != nil {
		return ExportedDocument{}, fmt.Errorf("flush before export: %w", err)
	}

	session := c.Snapshot()
	content := ReviewContent(session)
	if strings.TrimSpace(content) == "" {
		return ExportedDocument{}, fmt.Errorf("%w: nothing to export", ErrInvalidInput)
	}
	if session.SessionID == "" {
		return ExportedDocument{}, ErrNotPersisted
	}
	doc, err := Render(content, format)
	if err != nil {
		return ExportedDocument{}, err
	}

	status := resumeapi.StatusExported
	res, err := c.gateway.Update(ctx, session.SessionID, resumeapi.Payload{Status: &status})
	if err != nil {
		return ExportedDocument{}, fmt.Errorf("mark exported: %w", err)
	}

	c.mu.Lock()
	defer c.unlockAndDispatch()
	if res.Status.Valid() {
		c.session.Status = res.Status
	} else {
		c.session.Status = status
	}
	c.session.LastPersistedAt = c.clock.Now()
	c.lastActive = c.session.LastPersistedAt
	c.writeSnapshotLocked()
	c.emitLocked(Event{Kind: EventSyncSucceeded})
	telemetry.Info("wizard.export.completed", map[string]any{
		"wizard_key": c.key,
		"resume_id":  session.SessionID,
		"format":     string(format),
		"bytes":      len(doc.Body),
	})
	doc.FileName = "resume-" + shortID(session.SessionID) + doc.FileName
	return doc, nil
}

// Render converts resume Markdown to format. FileName holds only the extension.
func Render(markdown string, format Format) (ExportedDocument, error) {
	switch format {
	case FormatMarkdown:
		return ExportedDocument{FileName: ".md", ContentType: "text/markdown; charset=utf-8", Body: []byte(markdown)}, nil
	case FormatText:
		return ExportedDocument{FileName: ".txt", ContentType: "text/plain; charset=utf-8", Body: []byte(markdownToText(markdown))}, nil
	case FormatHTML:
		body, err := markdownToHTML(markdown)
		if err != nil {
			return ExportedDocument{}, err
		}
		return ExportedDocument{FileName: ".html", ContentType: "text/html; charset=utf-8", Body: []byte(body)}, nil
	default:
		return ExportedDocument{}, fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, format)
	}
}

var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// resumeMarkdown renders with goldmark's safe default: raw HTML in the resume
// is omitted rather than passed through.
var resumeMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func markdownToHTML(md string) (string, error) {
	var body bytes.Buffer
	if err := resumeMarkdown.Convert([]byte(htmlComment.ReplaceAllString(md, "")), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Resume</title></head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// markdownToText walks the parsed document: headings are upper-cased, list
// items get bullets or numbers, links keep their target and markup is dropped.
func markdownToText(md string) string {
	source := []byte(htmlComment.ReplaceAllString(md, ""))
	doc := resumeMarkdown.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				b.WriteString(strings.ToUpper(plainText(node, source)))
				b.WriteString("\n\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.ThematicBreak:
			if entering {
				b.WriteString(strings.Repeat("-", 40) + "\n\n")
			}
		case *ast.ListItem:
			if entering {
				b.WriteString(listMarker(node))
			}
		case *ast.List:
			if !entering && node.Parent().Kind() == ast.KindDocument {
				b.WriteString("\n")
			}
		case *ast.Paragraph:
			if !entering {
				b.WriteString("\n")
				if node.Parent().Kind() != ast.KindListItem {
					b.WriteString("\n")
				}
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteString("\n")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
				b.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if !entering {
				if dest := string(node.Destination); dest != "" && dest != plainText(node, source) {
					b.WriteString(" (" + dest + ")")
				}
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.URL(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				switch {
				case node.HardLineBreak():
					b.WriteString("\n")
				case node.SoftLineBreak():
					b.WriteString(" ")
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *east.TableCell:
			if !entering && node.NextSibling() != nil {
				b.WriteString("\t")
			}
		case *east.TableHeader, *east.TableRow:
			if !entering {
				b.WriteString("\n")
			}
		case *east.Table:
			if !entering {
				b.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	out := blankRuns.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out) + "\n"
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	n := list.Start
	for sib := item.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		n++
	}
	return strconv.Itoa(n) + ". "
}

// plainText concatenates the text under n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
