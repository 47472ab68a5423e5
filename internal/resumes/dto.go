package resumes

import "resume-wizard/internal/resumeapi"

// ToResource renders a resume in its wire shape.
func ToResource(r Resume) resumeapi.Resource {
	out := resumeapi.Resource{
		ID:             r.ID,
		UserID:         r.UserID,
		JobDescription: r.JobDescription,
		JobFileName:    r.JobFileName,
		JobFileSize:    r.JobFileSize,
		GenerationConfig: resumeapi.GenerationConfig{
			AIModel:   r.Config.AIModel,
			Template:  r.Config.Template,
			Language:  r.Config.Language,
			WordLimit: r.Config.WordLimit,
			Emphasis:  append([]string{}, r.Config.Emphasis...),
		},
		SourceDocuments: make([]resumeapi.SourceDocument, 0, len(r.Documents)),
		GeneratedResume: r.GeneratedResume,
		FinalResume:     r.FinalResume,
		Status:          r.Status,
		Versions:        toVersions(r.Versions),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	for _, d := range r.Documents {
		out.SourceDocuments = append(out.SourceDocuments, resumeapi.SourceDocument{
			ID:   d.ID,
			Name: d.Name,
			Size: d.Size,
			Type: d.MimeType,
		})
	}
	return out
}

func toVersions(versions []Version) []resumeapi.Version {
	if len(versions) == 0 {
		return nil
	}
	out := make([]resumeapi.Version, 0, len(versions))
	for _, v := range versions {
		out = append(out, resumeapi.Version{
			ID:            v.ID,
			VersionNumber: v.VersionNumber,
			Content:       v.Content,
			Changelog:     v.Changelog,
			CreatedAt:     v.CreatedAt,
		})
	}
	return out
}
