package steps

import (
	"context"
	"encoding/json"
	"strings"

	"resume-wizard/internal/wizard"
)

// JobDescription takes pasted text or uploaded file metadata, never both.
type JobDescription struct{}

type jobInput struct {
	JobText *string          `json:"jobText"`
	JobFile *wizard.FileMeta `json:"jobFile"`
}

func (JobDescription) Step() wizard.Step { return wizard.StepJobDescription }
func (JobDescription) Title() string     { return wizard.StepJobDescription.Title() }

func (JobDescription) Apply(_ context.Context, sc wizard.StepContext, input json.RawMessage) error {
	var in jobInput
	if err := decode(input, &in); err != nil {
		return err
	}
	switch {
	case in.JobText != nil && in.JobFile != nil:
		return invalid("provide either jobText or jobFile, not both")
	case in.JobFile != nil:
		if strings.TrimSpace(in.JobFile.Name) == "" {
			return invalid("jobFile.name is required")
		}
		if in.JobFile.Size < 0 {
			return invalid("jobFile.size must not be negative")
		}
		sc.Update(wizard.Patch{JobFile: in.JobFile})
	case in.JobText != nil:
		sc.Update(wizard.Patch{JobText: in.JobText})
	}
	return nil
}
