package wizard

// field is a bit set of session fields awaiting sync.
type field uint8

const (
	fieldJob field = 1 << iota
	fieldDocuments
	fieldConfig
	fieldGenerated
	fieldFinal

	allFields = fieldJob | fieldDocuments | fieldConfig | fieldGenerated | fieldFinal
)

// Patch is a shallow update: nil fields are left untouched. Setting JobText
// clears JobFile and setting JobFile clears JobText; when both are set the file wins.
type Patch struct {
	JobText          *string
	JobFile          *FileMeta
	SourceDocuments  *[]Document
	GenerationConfig *GenerationConfig
	GeneratedResume  *string
	FinalResume      *string
	Changelog        *string
}

// Empty reports whether the patch touches nothing.
func (p Patch) Empty() bool {
	return p.JobText == nil && p.JobFile == nil && p.SourceDocuments == nil &&
		p.GenerationConfig == nil && p.GeneratedResume == nil && p.FinalResume == nil &&
		p.Changelog == nil
}

// apply merges p into s and returns the fields it touched.
func (p Patch) apply(s *Session) field {
	var touched field
	if p.JobText != nil {
		s.JobText = *p.JobText
		s.JobFile = nil
		touched |= fieldJob
	}
	if p.JobFile != nil {
		f := *p.JobFile
		s.JobFile = &f
		s.JobText = ""
		touched |= fieldJob
	}
	if p.SourceDocuments != nil {
		s.SourceDocuments = append([]Document(nil), (*p.SourceDocuments)...)
		touched |= fieldDocuments
	}
	if p.GenerationConfig != nil {
		s.GenerationConfig = p.GenerationConfig.clone()
		touched |= fieldConfig
	}
	if p.GeneratedResume != nil {
		s.GeneratedResume = *p.GeneratedResume
		touched |= fieldGenerated
	}
	if p.Changelog != nil {
		s.Changelog = *p.Changelog
	}
	if p.FinalResume != nil {
		s.FinalResume = *p.FinalResume
		touched |= fieldFinal
	}
	return touched
}

// StringPtr returns a pointer to v, for building patches.
func StringPtr(v string) *string { return &v }
