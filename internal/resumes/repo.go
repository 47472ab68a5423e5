package resumes

import "context"

// LatestVersionsLimit is how many versions a single-resume read carries.
const LatestVersionsLimit = 5

// Repo defines persistence operations for resumes.
type Repo interface {
	// Create stores the resume and its documents atomically.
	Create(ctx context.Context, resume Resume) error
	// Get returns a resume with documents and up to versionLimit newest versions.
	Get(ctx context.Context, id string, versionLimit int) (Resume, error)
	// List returns one page of resumes, newest first, and the total count.
	List(ctx context.Context, userID string, limit, offset int) ([]Resume, int, error)
	// Update locks the resume, lets apply mutate it and persists the result atomically.
	Update(ctx context.Context, id string, apply func(*Resume) (Mutation, error)) (Resume, error)
	// Delete removes the resume, its documents and versions.
	Delete(ctx context.Context, id string) error
	// ListVersions returns all versions, newest first.
	ListVersions(ctx context.Context, id string) ([]Version, error)
}
