package wizard

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"resume-wizard/internal/resumeapi"
)

func TestExportRequiresExportStep(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctrl.Export(context.Background(), FormatMarkdown)
	require.ErrorIs(t, err, ErrWrongStep)
}

func TestExportMarksResumeExported(t *testing.T) {
	h := newHarness(t)
	h.advanceTo(t, StepExport)

	doc, err := h.ctrl.Export(context.Background(), FormatMarkdown)
	require.NoError(t, err)
	require.Equal(t, "# Final", string(doc.Body))
	require.True(t, strings.HasPrefix(doc.FileName, "resume-"))
	require.True(t, strings.HasSuffix(doc.FileName, ".md"))

	calls := h.gateway.Calls()
	last := calls[len(calls)-1]
	require.NotNil(t, last.payload.Status)
	require.Equal(t, resumeapi.StatusExported, *last.payload.Status)
	require.Equal(t, resumeapi.StatusExported, h.ctrl.Snapshot().Status)
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatMarkdown, "md": FormatMarkdown, "TXT": FormatText, "html": FormatHTML} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRenderText(t *testing.T) {
	doc, err := Render("# Jane Doe\n\n## Skills\n- **Go**\n- SQL\n<!-- note -->", FormatText)
	require.NoError(t, err)
	body := string(doc.Body)
	require.Contains(t, body, "JANE DOE")
	require.Contains(t, body, "• Go\n• SQL")
	require.NotContains(t, body, "**")
	require.NotContains(t, body, "note")
	require.Equal(t, ".txt", doc.FileName)
}

func TestRenderTextKeepsLinksAndNumbering(t *testing.T) {
	doc, err := Render("## Projects\n\n1. Built *fast* [search](https://example.com/s)\n2. Wrote `gofmt` docs\n", FormatText)
	require.NoError(t, err)
	body := string(doc.Body)
	require.Contains(t, body, "PROJECTS")
	require.Contains(t, body, "1. Built fast search (https://example.com/s)")
	require.Contains(t, body, "2. Wrote gofmt docs")
	require.NotContains(t, body, "`")
	require.NotContains(t, body, "](")
}

func TestRenderHTMLEscapes(t *testing.T) {
	doc, err := Render("## R&D 5 < 6\n- **Led** work\n\nPlain", FormatHTML)
	require.NoError(t, err)
	body := string(doc.Body)
	require.Contains(t, body, "<h2>R&amp;D 5 &lt; 6</h2>")
	require.Contains(t, body, "<ul>\n<li><strong>Led</strong> work</li>\n</ul>")
	require.Contains(t, body, "<p>Plain</p>")
	require.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	require.Equal(t, "text/html; charset=utf-8", doc.ContentType)
}

func TestRenderHTMLInlineMarkup(t *testing.T) {
	doc, err := Render("1. Shipped *v2* of [search](https://example.com)\n2. Tuned `pgx` pools\n", FormatHTML)
	require.NoError(t, err)
	body := string(doc.Body)
	require.Contains(t, body, "<ol>")
	require.Contains(t, body, "<em>v2</em>")
	require.Contains(t, body, `<a href="https://example.com">search</a>`)
	require.Contains(t, body, "<code>pgx</code>")
}

func TestRenderHTMLOmitsRawHTML(t *testing.T) {
	doc, err := Render("Hello <script>alert(1)</script>\n\n<div onclick=\"x()\">block</div>\n", FormatHTML)
	require.NoError(t, err)
	body := string(doc.Body)
	require.NotContains(t, body, "<script>")
	require.NotContains(t, body, "onclick")
	require.Contains(t, body, "Hello")
}
