package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resume-wizard/internal/resumeapi"
)

// SnapshotStore holds the local copy of a session between requests and restarts.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	stepKeySuffix = ":resumeCurrentStep"
	dataKeySuffix = ":resumeData"
)

// StepKey and DataKey name the two snapshot entries of a wizard.
func StepKey(key string) string { return key + stepKeySuffix }
func DataKey(key string) string { return key + dataKeySuffix }

var errCorruptSnapshot = errors.New("corrupt session snapshot")

// snapshotData is the serialized session. Documents keep metadata only.
type snapshotData struct {
	UserID           string           `json:"userId,omitempty"`
	SessionID        string           `json:"sessionId,omitempty"`
	JobText          string           `json:"jobText,omitempty"`
	JobFile          *FileMeta        `json:"jobFile,omitempty"`
	SourceDocuments  []FileMeta       `json:"sourceDocuments"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
	GeneratedResume  string           `json:"generatedResume,omitempty"`
	FinalResume      string           `json:"finalResume,omitempty"`
	Changelog        string           `json:"changelog,omitempty"`
	Status           resumeapi.Status `json:"status,omitempty"`
	LastPersistedAt  *time.Time       `json:"lastPersistedAt,omitempty"`
	Pending          field            `json:"pending,omitempty"`
}

func encodeSnapshot(userID string, s Session, pending field) (step, data string, err error) {
	docs := make([]FileMeta, 0, len(s.SourceDocuments))
	for _, d := range s.SourceDocuments {
		docs = append(docs, d.FileMeta)
	}
	payload := snapshotData{
		UserID:           userID,
		SessionID:        s.SessionID,
		JobText:          s.JobText,
		JobFile:          s.JobFile,
		SourceDocuments:  docs,
		GenerationConfig: s.GenerationConfig,
		GeneratedResume:  s.GeneratedResume,
		FinalResume:      s.FinalResume,
		Changelog:        s.Changelog,
		Status:           s.Status,
		Pending:          pending,
	}
	if !s.LastPersistedAt.IsZero() {
		at := s.LastPersistedAt
		payload.LastPersistedAt = &at
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}
	return strconv.Itoa(int(s.CurrentStep)), string(raw), nil
}

// decodedSnapshot is a session rebuilt from the store. Documents come back
// empty because their content is not kept; droppedDocs counts them.
type decodedSnapshot struct {
	userID      string
	session     Session
	pending     field
	droppedDocs int
}

func decodeSnapshot(step, data string) (decodedSnapshot, error) {
	n, err := strconv.Atoi(strings.TrimSpace(step))
	if err != nil || !Step(n).Valid() {
		return decodedSnapshot{}, fmt.Errorf("%w: step %q", errCorruptSnapshot, step)
	}
	var payload snapshotData
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return decodedSnapshot{}, fmt.Errorf("%w: %v", errCorruptSnapshot, err)
	}
	if payload.Status != "" && !payload.Status.Valid() {
		return decodedSnapshot{}, fmt.Errorf("%w: status %q", errCorruptSnapshot, payload.Status)
	}
	if payload.GenerationConfig.WordLimit != nil && *payload.GenerationConfig.WordLimit <= 0 {
		return decodedSnapshot{}, fmt.Errorf("%w: wordLimit %d", errCorruptSnapshot, *payload.GenerationConfig.WordLimit)
	}
	s := Session{
		SessionID:        payload.SessionID,
		CurrentStep:      Step(n),
		JobText:          payload.JobText,
		JobFile:          payload.JobFile,
		GenerationConfig: payload.GenerationConfig,
		GeneratedResume:  payload.GeneratedResume,
		FinalResume:      payload.FinalResume,
		Changelog:        payload.Changelog,
		Status:           payload.Status,
	}
	if s.JobFile != nil {
		s.JobText = ""
	}
	if payload.LastPersistedAt != nil {
		s.LastPersistedAt = *payload.LastPersistedAt
	}
	pending := payload.Pending & allFields
	if len(payload.SourceDocuments) > 0 {
		pending &^= fieldDocuments
	}
	return decodedSnapshot{
		userID:      payload.UserID,
		session:     s,
		pending:     pending,
		droppedDocs: len(payload.SourceDocuments),
	}, nil
}
