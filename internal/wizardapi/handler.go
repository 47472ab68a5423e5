// Package wizardapi exposes wizard sessions over HTTP.
package wizardapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/shared/server/respond"
	"resume-wizard/internal/wizard"
	"resume-wizard/internal/wizard/steps"
)

// Handler wires wizard sessions to HTTP.
type Handler struct {
	Sessions *wizard.Registry
	Steps    *steps.Registry
}

// NewHandler constructs a Handler.
func NewHandler(sessions *wizard.Registry, stepRegistry *steps.Registry) *Handler {
	return &Handler{Sessions: sessions, Steps: stepRegistry}
}

// RegisterRoutes attaches wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/wizard/sessions")
	g.POST("", h.open)
	g.GET("/:key", h.get)
	g.DELETE("/:key", h.discard)
	g.PATCH("/:key/steps/:step", h.submit)
	g.POST("/:key/advance", h.advance)
	g.POST("/:key/retreat", h.retreat)
	g.POST("/:key/generate", h.generate)
	g.GET("/:key/generation", h.generation)
	g.POST("/:key/documents", h.uploadDocument)
	g.POST("/:key/job-file", h.uploadJobFile)
	g.POST("/:key/save", h.save)
	g.GET("/:key/export", h.export)
}

// IsGenerationRoute reports whether the request starts a generation run.
func IsGenerationRoute(c *gin.Context) bool {
	return c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/:key/generate")
}

func (h *Handler) open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	key := strings.TrimSpace(req.Key)

	if key == "" {
		ctrl, err := h.Sessions.Create(c.Request.Context(), userID)
		if err != nil {
			h.fail(c, err, "failed to start wizard session")
			return
		}
		c.Set(middleware.WizardKeyKey, ctrl.Key())
		respond.Created(c, stateEnvelope{Message: "Wizard session started", State: toState(ctrl.State())})
		return
	}

	c.Set(middleware.WizardKeyKey, key)
	ctrl, created, err := h.Sessions.Ensure(c.Request.Context(), key, userID)
	if err != nil {
		h.fail(c, err, "failed to open wizard session")
		return
	}
	if !h.owns(c, ctrl) {
		return
	}
	if created {
		respond.Created(c, stateEnvelope{Message: "Wizard session started", State: toState(ctrl.State())})
		return
	}
	respond.OK(c, stateEnvelope{Message: "Wizard session restored", State: toState(ctrl.State())})
}

func (h *Handler) get(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, stateEnvelope{State: toState(ctrl.State())})
}

func (h *Handler) submit(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("step"))
	step := wizard.Step(n)
	if err != nil || !step.Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "step must be between 1 and 6", nil)
		return
	}
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	before := ctrl.Snapshot().CurrentStep
	if err := h.Steps.Submit(c.Request.Context(), ctrl, step, req.Data, req.Next); err != nil {
		h.fail(c, err, "failed to apply step input")
		return
	}
	state := ctrl.State()
	setTransition(c, before, state.Session.CurrentStep)
	respond.OK(c, stateEnvelope{State: toState(state)})
}

func (h *Handler) advance(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	before := ctrl.Snapshot().CurrentStep
	if err := ctrl.RequestAdvance(c.Request.Context()); err != nil {
		h.fail(c, err, "failed to advance")
		return
	}
	state := ctrl.State()
	setTransition(c, before, state.Session.CurrentStep)
	respond.OK(c, stateEnvelope{State: toState(state)})
}

func (h *Handler) retreat(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	before := ctrl.Snapshot().CurrentStep
	if !ctrl.RequestRetreat() {
		respond.Error(c, http.StatusConflict, "conflict", "already at the first step", nil)
		return
	}
	state := ctrl.State()
	setTransition(c, before, state.Session.CurrentStep)
	respond.OK(c, stateEnvelope{State: toState(state)})
}

func (h *Handler) generate(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Steps.Submit(c.Request.Context(), ctrl, wizard.StepGeneration, []byte(`{"start":true}`), false); err != nil {
		h.fail(c, err, "failed to start generation")
		return
	}
	respond.Accepted(c, stateEnvelope{Message: "Generation started", State: toState(ctrl.State())})
}

func (h *Handler) generation(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	state := toState(ctrl.State())
	respond.OK(c, gin.H{"generation": state.Generation, "generatedResume": state.Data.GeneratedResume})
}

func (h *Handler) save(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	if err := ctrl.Flush(c.Request.Context()); err != nil {
		h.fail(c, err, "failed to save resume")
		return
	}
	state := ctrl.State()
	if state.Session.SessionID != "" {
		c.Set(middleware.ResumeIDKey, state.Session.SessionID)
	}
	respond.OK(c, stateEnvelope{State: toState(state)})
}

func (h *Handler) export(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	format, err := wizard.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	before := ctrl.Snapshot().Status
	doc, err := ctrl.Export(c.Request.Context(), format)
	if err != nil {
		h.fail(c, err, "failed to export resume")
		return
	}
	after := ctrl.Snapshot()
	c.Set(middleware.ResumeIDKey, after.SessionID)
	if before != after.Status {
		c.Set(middleware.StatusTransitionKey, string(before)+"->"+string(after.Status))
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (h *Handler) discard(c *gin.Context) {
	ctrl, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.Sessions.Discard(c.Request.Context(), ctrl.Key()); err != nil {
		h.fail(c, err, "failed to discard wizard session")
		return
	}
	respond.OK(c, gin.H{"message": "Wizard session discarded"})
}

// load resolves the session named by the :key path parameter.
func (h *Handler) load(c *gin.Context) (*wizard.Controller, bool) {
	key := strings.TrimSpace(c.Param("key"))
	c.Set(middleware.WizardKeyKey, key)
	if key == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "wizard key is required", nil)
		return nil, false
	}
	return h.controller(c, key)
}

// controller opens an existing session for the caller.
func (h *Handler) controller(c *gin.Context, key string) (*wizard.Controller, bool) {
	ctrl, _, err := h.Sessions.Open(c.Request.Context(), key, middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err, "failed to open wizard session")
		return nil, false
	}
	if !h.owns(c, ctrl) {
		return nil, false
	}
	return ctrl, true
}

// owns reports whether the caller may use ctrl. Sessions owned by someone
// else look absent.
func (h *Handler) owns(c *gin.Context, ctrl *wizard.Controller) bool {
	if owner := ctrl.UserID(); owner != "" && owner != middleware.UserIDFromContext(c) {
		respond.Error(c, http.StatusNotFound, "not_found", "Wizard session not found", nil)
		return false
	}
	if id := ctrl.Snapshot().SessionID; id != "" {
		c.Set(middleware.ResumeIDKey, id)
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", verr.Message, gin.H{
			"step":  int(verr.Step),
			"title": verr.Step.Title(),
		})
	case errors.Is(err, wizard.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, steps.ErrStepMismatch),
		errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrTerminalStep),
		errors.Is(err, wizard.ErrGenerationInProgress),
		errors.Is(err, wizard.ErrNotPersisted):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, wizard.ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Wizard session not found", nil)
	case errors.Is(err, wizard.ErrSnapshotUnavailable):
		c.Header("Retry-After", "1")
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "Wizard session store is unavailable, please retry", nil)
	case errors.Is(err, wizard.ErrClosed):
		respond.Error(c, http.StatusGone, "session_closed", "Wizard session is closed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func setTransition(c *gin.Context, before, after wizard.Step) {
	if before != after {
		c.Set(middleware.StatusTransitionKey, "step "+strconv.Itoa(int(before))+"->"+strconv.Itoa(int(after)))
	}
}
