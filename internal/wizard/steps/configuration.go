package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"resume-wizard/internal/templates"
	"resume-wizard/internal/wizard"
)

// Configuration merges option choices onto the current configuration and
// checks them against the catalog.
type Configuration struct {
	Catalog *templates.Catalog
}

type configurationInput struct {
	AIModel  *string `json:"aiModel"`
	Template *string `json:"template"`
	Language *string `json:"language"`
	// WordLimit is a positive number, or null to remove the limit.
	WordLimit json.RawMessage `json:"wordLimit"`
	Emphasis  *[]string       `json:"emphasis"`
}

func (Configuration) Step() wizard.Step { return wizard.StepConfiguration }
func (Configuration) Title() string     { return wizard.StepConfiguration.Title() }

func (h Configuration) Apply(_ context.Context, sc wizard.StepContext, input json.RawMessage) error {
	var in configurationInput
	if err := decode(input, &in); err != nil {
		return err
	}
	cfg := sc.Data().GenerationConfig

	if in.AIModel != nil {
		model := strings.TrimSpace(*in.AIModel)
		if model != "" && h.Catalog != nil && !h.Catalog.HasModel(model) {
			return invalid("unknown aiModel %q", model)
		}
		cfg.AIModel = model
	}
	if in.Template != nil {
		id := strings.TrimSpace(*in.Template)
		if id != "" && h.Catalog != nil {
			if _, err := h.Catalog.Template(id); err != nil {
				return invalid("unknown template %q", id)
			}
		}
		cfg.Template = id
	}
	if in.Language != nil {
		lang := strings.TrimSpace(*in.Language)
		if lang != "" && h.Catalog != nil {
			matched, ok := h.Catalog.MatchLanguage(lang)
			if !ok {
				return invalid("unsupported language %q", lang)
			}
			lang = matched
		}
		cfg.Language = lang
	}
	if raw := bytes.TrimSpace(in.WordLimit); len(raw) > 0 {
		if bytes.Equal(raw, []byte("null")) {
			cfg.WordLimit = nil
		} else {
			var n int
			if err := json.Unmarshal(raw, &n); err != nil || n <= 0 {
				return invalid("wordLimit must be a positive integer")
			}
			cfg.WordLimit = &n
		}
	}
	if in.Emphasis != nil {
		seen := make(map[string]bool, len(*in.Emphasis))
		emphasis := make([]string, 0, len(*in.Emphasis))
		for _, e := range *in.Emphasis {
			e = strings.TrimSpace(e)
			if e == "" || seen[e] {
				continue
			}
			if h.Catalog != nil && !h.Catalog.HasEmphasis(e) {
				return invalid("unknown emphasis %q", e)
			}
			seen[e] = true
			emphasis = append(emphasis, e)
		}
		cfg.Emphasis = emphasis
	}
	sc.Update(wizard.Patch{GenerationConfig: &cfg})
	return nil
}
