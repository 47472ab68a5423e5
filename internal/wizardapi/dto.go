package wizardapi

import (
	"encoding/json"
	"time"

	"resume-wizard/internal/wizard"
)

type openRequest struct {
	Key string `json:"key"`
}

type stepRequest struct {
	Data json.RawMessage `json:"data"`
	Next bool            `json:"next"`
}

type stepInfo struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type documentView struct {
	wizard.FileMeta
	HasContent bool `json:"hasContent"`
}

type sessionView struct {
	JobText          string                  `json:"jobText"`
	JobFile          *wizard.FileMeta        `json:"jobFile,omitempty"`
	SourceDocuments  []documentView          `json:"sourceDocuments"`
	GenerationConfig wizard.GenerationConfig `json:"generationConfig"`
	GeneratedResume  string                  `json:"generatedResume"`
	FinalResume      string                  `json:"finalResume"`
	Changelog        string                  `json:"changelog,omitempty"`
}

type syncView struct {
	Pending   bool   `json:"pending"`
	InFlight  bool   `json:"inFlight"`
	LastError string `json:"lastError,omitempty"`
}

type generationView struct {
	Status     string     `json:"status"`
	Phase      int        `json:"phase"`
	Total      int        `json:"total"`
	Task       string     `json:"task,omitempty"`
	Percent    float64    `json:"percent"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type stateResponse struct {
	Key             string           `json:"key"`
	SessionID       string           `json:"sessionId,omitempty"`
	Status          string           `json:"status,omitempty"`
	LastPersistedAt *time.Time       `json:"lastPersistedAt,omitempty"`
	CurrentStep     int              `json:"currentStep"`
	StepTitle       string           `json:"stepTitle"`
	TotalSteps      int              `json:"totalSteps"`
	ProgressPercent float64          `json:"progressPercent"`
	Steps           []stepInfo       `json:"steps"`
	Data            sessionView      `json:"data"`
	Sections        []wizard.Section `json:"sections,omitempty"`
	Generation      generationView   `json:"generation"`
	Sync            syncView         `json:"sync"`
	Warnings        []string         `json:"warnings,omitempty"`
}

type stateEnvelope struct {
	Message string        `json:"message,omitempty"`
	State   stateResponse `json:"state"`
}

func toState(st wizard.State) stateResponse {
	s := st.Session
	out := stateResponse{
		Key:             st.Key,
		SessionID:       s.SessionID,
		Status:          string(s.Status),
		LastPersistedAt: timePtr(s.LastPersistedAt),
		CurrentStep:     int(s.CurrentStep),
		StepTitle:       s.CurrentStep.Title(),
		TotalSteps:      int(wizard.LastStep),
		ProgressPercent: s.CurrentStep.ProgressPercent(),
		Data: sessionView{
			JobText:          s.JobText,
			JobFile:          s.JobFile,
			SourceDocuments:  make([]documentView, 0, len(s.SourceDocuments)),
			GenerationConfig: s.GenerationConfig,
			GeneratedResume:  s.GeneratedResume,
			FinalResume:      s.FinalResume,
			Changelog:        s.Changelog,
		},
		Generation: generationView{
			Status:     string(st.Generation.Status),
			Phase:      st.Generation.Phase,
			Total:      st.Generation.Total,
			Task:       st.Generation.Task,
			Percent:    st.Generation.Percent,
			Error:      st.Generation.Error,
			StartedAt:  timePtr(st.Generation.StartedAt),
			FinishedAt: timePtr(st.Generation.FinishedAt),
		},
		Sync: syncView{
			Pending:   st.SyncPending,
			InFlight:  st.Syncing,
			LastError: st.LastSyncError,
		},
		Warnings: st.Warnings,
	}
	if out.Data.GenerationConfig.Emphasis == nil {
		out.Data.GenerationConfig.Emphasis = []string{}
	}
	for _, d := range s.SourceDocuments {
		out.Data.SourceDocuments = append(out.Data.SourceDocuments, documentView{
			FileMeta:   d.FileMeta,
			HasContent: d.Content != "",
		})
	}
	for _, step := range wizard.Steps() {
		out.Steps = append(out.Steps, stepInfo{
			Number:    int(step),
			Title:     step.Title(),
			Completed: step < s.CurrentStep,
		})
	}
	if s.CurrentStep >= wizard.StepReview {
		if content := wizard.ReviewContent(s); content != "" {
			out.Sections = wizard.Sections(content)
		}
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
