package wizard

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// rule is a step completion predicate. The expression runs against ruleEnv.
type rule struct {
	step       Step
	expression string
	message    string
	program    *vm.Program
}

var ruleTable = []rule{
	{step: StepJobDescription, expression: `hasJobFile || trim(jobText) != ""`, message: "Please upload or paste a job description"},
	{step: StepSourceDocuments, expression: `documentCount >= 1`, message: "Please upload at least one source document"},
	{step: StepConfiguration, expression: `aiModel != "" && template != "" && language != ""`, message: "Please select configuration options"},
	{step: StepGeneration, expression: `generatedResume != ""`, message: "Please generate your resume first"},
	{step: StepReview, expression: `finalResume != ""`, message: "Please review and finalize your resume"},
}

var rules = mustCompileRules(ruleTable)

func mustCompileRules(table []rule) map[Step]rule {
	out := make(map[Step]rule, len(table))
	for _, r := range table {
		program, err := expr.Compile(r.expression, expr.Env(ruleEnv(Session{})), expr.AsBool())
		if err != nil {
			panic(fmt.Sprintf("compile rule for step %d: %v", r.step, err))
		}
		r.program = program
		out[r.step] = r
	}
	return out
}

func ruleEnv(s Session) map[string]any {
	return map[string]any{
		"hasJobFile":      s.JobFile != nil,
		"jobText":         s.JobText,
		"documentCount":   len(s.SourceDocuments),
		"aiModel":         s.GenerationConfig.AIModel,
		"template":        s.GenerationConfig.Template,
		"language":        s.GenerationConfig.Language,
		"generatedResume": s.GeneratedResume,
		"finalResume":     s.FinalResume,
	}
}

// Validate checks the completion predicate of step against s. The last step
// has no predicate and reports ErrTerminalStep.
func Validate(step Step, s Session) error {
	if step >= LastStep {
		return ErrTerminalStep
	}
	r, ok := rules[step]
	if !ok {
		return fmt.Errorf("%w: unknown step %d", ErrInvalidInput, step)
	}
	out, err := expr.Run(r.program, ruleEnv(s))
	if err != nil {
		return fmt.Errorf("evaluate rule for step %d: %w", step, err)
	}
	if ok, _ := out.(bool); !ok {
		return &ValidationError{Step: step, Message: r.message}
	}
	return nil
}

// ReachableStep is the furthest step whose predecessors all pass, capped at want.
func ReachableStep(want Step, s Session) Step {
	if want < FirstStep {
		return FirstStep
	}
	if want > LastStep {
		want = LastStep
	}
	step := FirstStep
	for step < want {
		if Validate(step, s) != nil {
			break
		}
		step++
	}
	return step
}
