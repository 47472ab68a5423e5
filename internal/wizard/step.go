package wizard

import "strconv"

// Step is a position in the six-step flow.
type Step int

const (
	StepJobDescription Step = iota + 1
	StepSourceDocuments
	StepConfiguration
	StepGeneration
	StepReview
	StepExport
)

// FirstStep and LastStep bound the flow.
const (
	FirstStep = StepJobDescription
	LastStep  = StepExport
)

var stepTitles = map[Step]string{
	StepJobDescription:  "Job Description",
	StepSourceDocuments: "Source Documents",
	StepConfiguration:   "Configuration",
	StepGeneration:      "Generation",
	StepReview:          "Review",
	StepExport:          "Export",
}

// Valid reports whether s lies within the flow.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Title is the display name of the step.
func (s Step) Title() string {
	if t, ok := stepTitles[s]; ok {
		return t
	}
	return "Step " + strconv.Itoa(int(s))
}

// ProgressPercent is how far through the flow s is.
func (s Step) ProgressPercent() float64 {
	return float64(s) / float64(LastStep) * 100
}

// Steps lists every step in order.
func Steps() []Step {
	out := make([]Step, 0, int(LastStep))
	for s := FirstStep; s <= LastStep; s++ {
		out = append(out, s)
	}
	return out
}
