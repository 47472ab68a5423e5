package steps

import (
	"context"
	"encoding/json"

	"resume-wizard/internal/wizard"
)

// Export takes no input; the download itself goes through Controller.Export.
type Export struct{}

func (Export) Step() wizard.Step { return wizard.StepExport }
func (Export) Title() string     { return wizard.StepExport.Title() }

func (Export) Apply(_ context.Context, _ wizard.StepContext, input json.RawMessage) error {
	var in struct{}
	return decode(input, &in)
}
