package resumes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.create)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/versions", h.versions)
	rg.PUT("/resumes", h.update)
	rg.PUT("/resumes/:id", h.update)
	rg.DELETE("/resumes/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var payload resumeapi.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resume, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), payload)
	if err != nil {
		h.fail(c, err, "failed to create resume")
		return
	}
	c.Set(middleware.ResumeIDKey, resume.ID)
	c.Set(middleware.StatusTransitionKey, "->"+string(resume.Status))
	respond.Created(c, resumeapi.ResumeEnvelope{
		Message: "Resume created successfully",
		Resume:  ToResource(resume),
	})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)

	resume, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to fetch resume")
		return
	}
	respond.OK(c, resumeapi.ResumeEnvelope{Resume: ToResource(resume)})
}

func (h *Handler) list(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)
	userID := strings.TrimSpace(c.Query("userId"))

	result, err := h.Svc.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.fail(c, err, "failed to list resumes")
		return
	}

	resp := resumeapi.ListEnvelope{
		Resumes: make([]resumeapi.Resource, 0, len(result.Resumes)),
		Pagination: resumeapi.Pagination{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	}
	for _, r := range result.Resumes {
		resp.Resumes = append(resp.Resumes, ToResource(r))
	}
	respond.OK(c, resp)
}

func (h *Handler) update(c *gin.Context) {
	var payload resumeapi.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	id := c.Param("id")
	if id == "" {
		id = strings.TrimSpace(payload.ID)
	}
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Resume ID is required", nil)
		return
	}
	c.Set(middleware.ResumeIDKey, id)

	before := ""
	if payload.Status != nil || payload.GeneratedResume != nil || payload.FinalResume != nil {
		if current, err := h.Svc.Get(c.Request.Context(), id); err == nil {
			before = string(current.Status)
		}
	}

	resume, err := h.Svc.Update(c.Request.Context(), id, payload)
	if err != nil {
		h.fail(c, err, "failed to update resume")
		return
	}
	if before != "" && before != string(resume.Status) {
		c.Set(middleware.StatusTransitionKey, before+"->"+string(resume.Status))
	}
	respond.OK(c, resumeapi.ResumeEnvelope{
		Message: "Resume updated successfully",
		Resume:  ToResource(resume),
	})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "failed to delete resume")
		return
	}
	respond.OK(c, gin.H{"message": "Resume deleted successfully"})
}

func (h *Handler) versions(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)

	versions, err := h.Svc.Versions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to list versions")
		return
	}
	out := toVersions(versions)
	if out == nil {
		out = []resumeapi.Version{}
	}
	respond.OK(c, resumeapi.VersionsEnvelope{Versions: out})
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Resume not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
