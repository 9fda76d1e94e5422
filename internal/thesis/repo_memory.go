package thesis

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured
// and in tests.
type MemoryRepo struct {
	mu     sync.Mutex
	theses map[string]Thesis
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{theses: make(map[string]Thesis)}
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (Thesis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.theses[userID]
	if !ok {
		return Thesis{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, t Thesis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.UpdatedAt = time.Now().UTC()
	r.theses[t.UserID] = t
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
