package resumes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo stores resumes in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Resume
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Resume),
		now:  time.Now,
	}
}

// Create stores the resume.
func (r *MemoryRepo) Create(ctx context.Context, resume Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[resume.ID] = resume.clone()
	return nil
}

// Get returns a resume by ID.
func (r *MemoryRepo) Get(ctx context.Context, id string, versionLimit int) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	out := stored.clone()
	out.Versions = newestVersions(stored.Versions, versionLimit)
	return out, nil
}

// List returns resumes newest first, optionally filtered by user.
func (r *MemoryRepo) List(ctx context.Context, userID string, limit, offset int) ([]Resume, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	all := make([]Resume, 0, len(r.byID))
	for _, res := range r.byID {
		if userID != "" && res.UserID != userID {
			continue
		}
		res = res.clone()
		res.Versions = nil
		all = append(all, res)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Resume{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// Update applies a mutation under the repository lock.
func (r *MemoryRepo) Update(ctx context.Context, id string, apply func(*Resume) (Mutation, error)) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	working := stored.clone()
	mut, err := apply(&working)
	if err != nil {
		return Resume{}, err
	}
	if !mut.ReplaceDocuments {
		working.Documents = stored.clone().Documents
	}
	working.Versions = stored.clone().Versions
	if mut.NewVersion != nil {
		v := *mut.NewVersion
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ResumeID = id
		v.VersionNumber = maxVersion(working.Versions) + 1
		if v.CreatedAt.IsZero() {
			v.CreatedAt = r.now().UTC()
		}
		working.Versions = append(working.Versions, v)
	}
	r.byID[id] = working

	out := working.clone()
	out.Versions = newestVersions(working.Versions, LatestVersionsLimit)
	return out, nil
}

// Delete removes a resume.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// ListVersions returns every version of a resume, newest first.
func (r *MemoryRepo) ListVersions(ctx context.Context, id string) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return newestVersions(stored.Versions, 0), nil
}

func maxVersion(versions []Version) int {
	max := 0
	for _, v := range versions {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max
}

func newestVersions(versions []Version, limit int) []Version {
	out := append([]Version(nil), versions...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber > out[j].VersionNumber
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
