package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/shiptrack/internal/domain/verification"
)

var _ verification.Repository = (*VerificationRepository)(nil)

// VerificationRepository is an append-only in-memory record list.
type VerificationRepository struct {
	mu      sync.RWMutex
	records []verification.Record
}

// NewVerificationRepository returns an empty VerificationRepository.
func NewVerificationRepository() *VerificationRepository {
	return &VerificationRepository{}
}

func (r *VerificationRepository) Append(_ context.Context, rec verification.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	return nil
}

func (r *VerificationRepository) List(_ context.Context) ([]verification.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.records), nil
}
