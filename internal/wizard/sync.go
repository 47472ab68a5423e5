package wizard

import (
	"context"
	"errors"
	"strings"

	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

type syncRequest struct {
	create  bool
	id      string
	fields  field
	payload resumeapi.Payload
}

// onTimer runs when the debounce timer fires. A sync already in flight defers
// this one to the next window.
func (c *Controller) onTimer(gen uint64) {
	c.mu.Lock()
	if c.closed || !c.debounce.claim(gen) {
		c.unlockAndDispatch()
		return
	}
	if c.syncing {
		c.armLocked()
		c.unlockAndDispatch()
		return
	}
	req, ok := c.beginSyncLocked()
	c.unlockAndDispatch()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.syncTimeout)
	defer cancel()
	_ = c.performSync(ctx, req)
}

// Flush waits for an in-flight sync, then synchronously sends whatever is still dirty.
func (c *Controller) Flush(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if c.syncing {
			done := c.syncDone
			c.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		req, ok := c.beginSyncLocked()
		c.unlockAndDispatch()
		if !ok {
			return nil
		}
		return c.performSync(ctx, req)
	}
}

// beginSyncLocked takes the dirty fields and marks a sync in flight. It reports
// false when there is nothing to send or the resume cannot be created yet.
func (c *Controller) beginSyncLocked() (syncRequest, bool) {
	if c.syncing || c.dirty == 0 {
		return syncRequest{}, false
	}
	req := syncRequest{id: c.session.SessionID, fields: c.dirty}
	if req.id == "" {
		// The resumes API rejects a resume without source documents.
		if len(c.session.SourceDocuments) == 0 {
			return syncRequest{}, false
		}
		req.create = true
		req.payload = buildPayload(c.session, allFields, true)
		req.payload.UserID = c.userID
	} else {
		req.payload = buildPayload(c.session, c.dirty, false)
		if req.payload.Empty() {
			c.dirty = 0
			return syncRequest{}, false
		}
	}
	c.dirty = 0
	c.debounce.stop()
	c.syncing = true
	c.syncDone = make(chan struct{})
	c.emitLocked(Event{Kind: EventSyncStarted})
	return req, true
}

func (c *Controller) performSync(ctx context.Context, req syncRequest) error {
	metrics.IncSync()
	var (
		res resumeapi.Resource
		err error
	)
	if req.create {
		res, err = c.gateway.Create(ctx, req.payload)
	} else {
		res, err = c.gateway.Update(ctx, req.id, req.payload)
	}

	c.mu.Lock()
	defer c.unlockAndDispatch()
	c.syncing = false
	close(c.syncDone)

	if err != nil {
		c.syncFailedLocked(req, err)
		return err
	}
	if req.create {
		c.session.SessionID = res.ID
	}
	if res.Status.Valid() {
		c.session.Status = res.Status
	}
	if req.fields&fieldFinal != 0 && c.dirty&fieldFinal == 0 {
		c.session.Changelog = ""
	}
	c.session.LastPersistedAt = c.clock.Now()
	c.lastSyncError = ""
	c.writeSnapshotLocked()
	if c.dirty != 0 && !c.debounce.pending() {
		c.armLocked()
	}
	telemetry.Info("wizard.sync.succeeded", map[string]any{
		"wizard_key": c.key,
		"resume_id":  c.session.SessionID,
		"create":     req.create,
		"status":     string(c.session.Status),
	})
	c.emitLocked(Event{Kind: EventSyncSucceeded})
	return nil
}

// syncFailedLocked puts the fields back. Retryable failures re-arm the timer;
// a rejected payload waits for the next update. A resume that vanished is
// recreated from the full session.
func (c *Controller) syncFailedLocked(req syncRequest, err error) {
	metrics.IncSyncFailed()
	c.dirty |= req.fields
	c.lastSyncError = err.Error()
	telemetry.Warn("wizard.sync.failed", map[string]any{
		"wizard_key": c.key,
		"resume_id":  req.id,
		"create":     req.create,
		"error":      err.Error(),
	})
	c.emitLocked(Event{Kind: EventSyncFailed, Message: err.Error(), Err: err})

	switch {
	case !req.create && errors.Is(err, resumeapi.ErrNotFound):
		c.session.SessionID = ""
		c.session.Status = ""
		c.dirty = allFields
		c.writeSnapshotLocked()
		c.armLocked()
	case resumeapi.Retryable(err):
		c.writeSnapshotLocked()
		c.armLocked()
	default:
		c.writeSnapshotLocked()
	}
}

// buildPayload maps the selected session fields onto the wire shape. A create
// carries every field and omits empty resume content.
func buildPayload(s Session, fields field, create bool) resumeapi.Payload {
	var p resumeapi.Payload
	if fields&fieldJob != 0 {
		if s.JobFile != nil {
			p.JobDescription = resumeapi.String("")
			p.JobFileName = resumeapi.String(s.JobFile.Name)
			size := s.JobFile.Size
			p.JobFileSize = &size
		} else {
			p.JobDescription = resumeapi.String(s.JobText)
			if !create {
				p.JobFileName = resumeapi.String("")
				var zero int64
				p.JobFileSize = &zero
			}
		}
	}
	if fields&fieldDocuments != 0 {
		docs := make([]resumeapi.SourceDocument, 0, len(s.SourceDocuments))
		for _, d := range s.SourceDocuments {
			docs = append(docs, resumeapi.SourceDocument{
				Name:    d.Name,
				Size:    d.Size,
				Type:    d.Type,
				Content: d.Content,
			})
		}
		p.SourceDocuments = &docs
	}
	if fields&fieldConfig != 0 {
		cfg := s.GenerationConfig.clone()
		emphasis := cfg.Emphasis
		if emphasis == nil {
			emphasis = []string{}
		}
		p.GenerationConfig = &resumeapi.ConfigPatch{
			AIModel:   resumeapi.String(cfg.AIModel),
			Template:  resumeapi.String(cfg.Template),
			Language:  resumeapi.String(cfg.Language),
			WordLimit: cfg.WordLimit,
			Emphasis:  &emphasis,
		}
	}
	if fields&fieldGenerated != 0 && (!create || strings.TrimSpace(s.GeneratedResume) != "") {
		p.GeneratedResume = resumeapi.String(s.GeneratedResume)
	}
	if fields&fieldFinal != 0 && strings.TrimSpace(s.FinalResume) != "" {
		p.FinalResume = resumeapi.String(s.FinalResume)
		p.Changelog = s.Changelog
	}
	return p
}
