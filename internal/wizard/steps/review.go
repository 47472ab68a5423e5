package steps

import (
	"context"
	"encoding/json"
	"strings"

	"resume-wizard/internal/wizard"
)

const feedbackMarker = "\n\n<!-- Updated based on feedback -->"

// Review finalizes the resume: edited text, the generated text as is, or a
// feedback pass over the current text.
type Review struct{}

type reviewInput struct {
	FinalResume *string `json:"finalResume"`
	Accept      bool    `json:"accept"`
	Feedback    string  `json:"feedback"`
	Changelog   string  `json:"changelog"`
}

func (Review) Step() wizard.Step { return wizard.StepReview }
func (Review) Title() string     { return wizard.StepReview.Title() }

func (Review) Apply(_ context.Context, sc wizard.StepContext, input json.RawMessage) error {
	var in reviewInput
	if err := decode(input, &in); err != nil {
		return err
	}
	chosen := 0
	for _, set := range []bool{in.FinalResume != nil, in.Accept, strings.TrimSpace(in.Feedback) != ""} {
		if set {
			chosen++
		}
	}
	if chosen == 0 {
		return nil
	}
	if chosen > 1 {
		return invalid("provide only one of finalResume, accept or feedback")
	}

	data := sc.Data()
	if strings.TrimSpace(data.GeneratedResume) == "" {
		return invalid("a generated resume is required before review")
	}

	var final, changelog string
	switch {
	case in.FinalResume != nil:
		final = *in.FinalResume
		if strings.TrimSpace(final) == "" {
			return invalid("finalResume must not be empty")
		}
		changelog = in.Changelog
	case in.Accept:
		final = wizard.ReviewContent(data)
		changelog = in.Changelog
	default:
		final = wizard.ReviewContent(data) + feedbackMarker
		changelog = strings.TrimSpace(in.Changelog)
		if changelog == "" {
			changelog = "Feedback: " + strings.TrimSpace(in.Feedback)
		}
	}
	patch := wizard.Patch{FinalResume: &final}
	if strings.TrimSpace(changelog) != "" {
		patch.Changelog = &changelog
	}
	sc.Update(patch)
	return nil
}
