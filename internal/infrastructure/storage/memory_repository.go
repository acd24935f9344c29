package storage

import (
	"context"
	"sync"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/ports"
)

// MemoryRepository keeps results in process memory. Used when no DSN is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	results map[string]domain.RawAnalysisResult
}

var _ ports.ResultRepository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{results: make(map[string]domain.RawAnalysisResult)}
}

func (r *MemoryRepository) LoadResult(_ context.Context, id string) (domain.RawAnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, ok := r.results[id]
	if !ok {
		return domain.RawAnalysisResult{}, domain.ErrMissingResult
	}
	return raw, nil
}

func (r *MemoryRepository) SaveResult(_ context.Context, id string, raw domain.RawAnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[id] = raw
	return nil
}
