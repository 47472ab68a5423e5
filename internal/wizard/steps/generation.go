package steps

import (
	"context"
	"encoding/json"

	"resume-wizard/internal/wizard"
)

// Generation starts a generation run on request.
type Generation struct{}

type generationInput struct {
	Start bool `json:"start"`
}

func (Generation) Step() wizard.Step { return wizard.StepGeneration }
func (Generation) Title() string     { return wizard.StepGeneration.Title() }

func (Generation) Apply(_ context.Context, sc wizard.StepContext, input json.RawMessage) error {
	var in generationInput
	if err := decode(input, &in); err != nil {
		return err
	}
	if !in.Start {
		return nil
	}
	starter, ok := sc.(wizard.GenerationStarter)
	if !ok {
		return invalid("generation is not available for this session")
	}
	return starter.StartGeneration()
}
