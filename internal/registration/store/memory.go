package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"jesa/internal/registration/models"
	"jesa/pkg/platform/sentinel"
)

// InMemory keeps applicants in maps guarded by a RWMutex.
type InMemory struct {
	mu       sync.RWMutex
	bases    map[ObjectID]*models.BaseApplicant
	external map[ObjectID]*models.ExternalApplicant
	internal map[ObjectID]*models.InternalApplicant

	// txMu serializes RunInTx so a rollback never interleaves with another
	// transaction's writes.
	txMu sync.Mutex
}

// NewInMemory returns an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		bases:    make(map[ObjectID]*models.BaseApplicant),
		external: make(map[ObjectID]*models.ExternalApplicant),
		internal: make(map[ObjectID]*models.InternalApplicant),
	}
}

func (s *InMemory) CreateBase(_ context.Context, base *models.BaseApplicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bases[base.ID]; exists {
		return fmt.Errorf("base applicant %s: %w", base.ID.Hex(), sentinel.ErrInvalidState)
	}
	cp := *base
	s.bases[base.ID] = &cp
	return nil
}

func (s *InMemory) CreateExternal(_ context.Context, detail *models.ExternalApplicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.external[detail.ID]; exists {
		return fmt.Errorf("external applicant %s: %w", detail.ID.Hex(), sentinel.ErrInvalidState)
	}
	cp := *detail
	s.external[detail.ID] = &cp
	return nil
}

func (s *InMemory) CreateInternal(_ context.Context, detail *models.InternalApplicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.internal[detail.ID]; exists {
		return fmt.Errorf("internal applicant %s: %w", detail.ID.Hex(), sentinel.ErrInvalidState)
	}
	cp := *detail
	s.internal[detail.ID] = &cp
	return nil
}

// LinkDetail sets DetailID once. Linking an already linked base fails with
// sentinel.ErrInvalidState.
func (s *InMemory) LinkDetail(_ context.Context, baseID, detailID ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.bases[baseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if base.IsLinked() {
		return fmt.Errorf("base applicant %s already linked: %w", baseID.Hex(), sentinel.ErrInvalidState)
	}
	id := detailID
	base.DetailID = &id
	return nil
}

func (s *InMemory) DeleteBase(_ context.Context, id ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bases[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bases, id)
	return nil
}

func (s *InMemory) DeleteDetail(_ context.Context, variant models.Variant, id ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch variant {
	case models.VariantExternal:
		if _, ok := s.external[id]; !ok {
			return sentinel.ErrNotFound
		}
		delete(s.external, id)
	case models.VariantInternal:
		if _, ok := s.internal[id]; !ok {
			return sentinel.ErrNotFound
		}
		delete(s.internal, id)
	default:
		return fmt.Errorf("unknown variant %q: %w", variant, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *InMemory) FindBase(_ context.Context, id ObjectID) (*models.BaseApplicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	base, ok := s.bases[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *base
	return &cp, nil
}

func (s *InMemory) FindDetail(_ context.Context, variant models.Variant, id ObjectID) (models.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch variant {
	case models.VariantExternal:
		if d, ok := s.external[id]; ok {
			cp := *d
			return &cp, nil
		}
	case models.VariantInternal:
		if d, ok := s.internal[id]; ok {
			cp := *d
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListBases returns up to limit base records, newest first.
func (s *InMemory) ListBases(_ context.Context, limit int) ([]*models.BaseApplicant, error) {
	s.mu.RLock()
	out := make([]*models.BaseApplicant, 0, len(s.bases))
	for _, b := range s.bases {
		cp := *b
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.BaseApplicant) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return b.ID.Timestamp().Compare(a.ID.Timestamp())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Counts reports how many records each collection holds.
func (s *InMemory) Counts() (bases, external, internal int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bases), len(s.external), len(s.internal)
}
