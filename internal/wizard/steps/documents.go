package steps

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"resume-wizard/internal/wizard"
)

// SourceDocuments edits the ordered document list. Documents may repeat.
type SourceDocuments struct{}

type documentsInput struct {
	// Documents replaces the whole list when present.
	Documents *[]wizard.Document `json:"documents"`
	Add       []wizard.Document  `json:"add"`
	Remove    []int              `json:"remove"`
}

func (SourceDocuments) Step() wizard.Step { return wizard.StepSourceDocuments }
func (SourceDocuments) Title() string     { return wizard.StepSourceDocuments.Title() }

func (SourceDocuments) Apply(_ context.Context, sc wizard.StepContext, input json.RawMessage) error {
	var in documentsInput
	if err := decode(input, &in); err != nil {
		return err
	}
	if in.Documents == nil && len(in.Add) == 0 && len(in.Remove) == 0 {
		return nil
	}

	var docs []wizard.Document
	if in.Documents != nil {
		docs = append(docs, (*in.Documents)...)
	} else {
		docs = sc.Data().SourceDocuments
	}

	if len(in.Remove) > 0 {
		remove := append([]int(nil), in.Remove...)
		sort.Sort(sort.Reverse(sort.IntSlice(remove)))
		last := -1
		for _, idx := range remove {
			if idx < 0 || idx >= len(docs) {
				return invalid("document index %d out of range", idx)
			}
			if idx == last {
				continue
			}
			docs = append(docs[:idx], docs[idx+1:]...)
			last = idx
		}
	}
	docs = append(docs, in.Add...)

	for i, d := range docs {
		if strings.TrimSpace(d.Name) == "" {
			return invalid("document %d has no name", i+1)
		}
		if d.Size < 0 {
			return invalid("document %d has a negative size", i+1)
		}
	}
	if docs == nil {
		docs = []wizard.Document{}
	}
	sc.Update(wizard.Patch{SourceDocuments: &docs})
	return nil
}
