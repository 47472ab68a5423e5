package wizardapi

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/server/respond"
	"resume-wizard/internal/shared/util"
	"resume-wizard/internal/wizard"
)

const maxUploadSize = 10 << 20 // 10MB

var textExtensions = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
}

func (h *Handler) uploadDocument(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	doc, ok := readUpload(c)
	if !ok {
		return
	}
	input, err := json.Marshal(map[string]any{"add": []wizard.Document{doc}})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	if err := h.Steps.Submit(c.Request.Context(), ctrl, wizard.StepSourceDocuments, input, false); err != nil {
		h.fail(c, err, "failed to add document")
		return
	}
	respond.Created(c, stateEnvelope{Message: "Document uploaded", State: toState(ctrl.State())})
}

func (h *Handler) uploadJobFile(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	doc, ok := readUpload(c)
	if !ok {
		return
	}
	input, err := json.Marshal(map[string]any{"jobFile": doc.FileMeta})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	if err := h.Steps.Submit(c.Request.Context(), ctrl, wizard.StepJobDescription, input, false); err != nil {
		h.fail(c, err, "failed to attach job description file")
		return
	}
	respond.Created(c, stateEnvelope{Message: "Job description uploaded", State: toState(ctrl.State())})
}

// readUpload reads the "file" form field. Text content is kept for plain text
// and Markdown files only; other formats carry metadata.
func readUpload(c *gin.Context) (wizard.Document, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return wizard.Document{}, false
	}
	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return wizard.Document{}, false
	}

	doc := wizard.Document{FileMeta: wizard.FileMeta{
		Name: name,
		Size: fileHeader.Size,
		Type: contentType(fileHeader, name),
	}}
	if !isText(doc.Type) {
		return doc, true
	}

	content, err := readAll(fileHeader)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return wizard.Document{}, false
	}
	if utf8.Valid(content) {
		doc.Content = string(content)
	}
	return doc, true
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func contentType(fh *multipart.FileHeader, name string) string {
	if t, ok := textExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	if raw := fh.Header.Get("Content-Type"); raw != "" {
		if t, _, err := mime.ParseMediaType(raw); err == nil && t != "application/octet-stream" {
			return t
		}
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
	}
	return "application/octet-stream"
}

func isText(contentType string) bool {
	return strings.HasPrefix(contentType, "text/")
}
