package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/gator/pkg/domain"
)

// Store implements ports.CalibrationStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.AffineMatrix
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.AffineMatrix),
	}
}

// Save keeps the matrix for profile. AffineMatrix is an array, so the stored
// copy is isolated from the caller.
func (s *Store) Save(ctx context.Context, profile string, m domain.AffineMatrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[profile] = m
	return nil
}

// Load retrieves the matrix for profile.
func (s *Store) Load(ctx context.Context, profile string) (domain.AffineMatrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[profile]
	if !ok {
		return domain.AffineMatrix{}, domain.ErrCalibrationNotFound
	}
	return m, nil
}

// Delete removes the matrix.
func (s *Store) Delete(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, profile)
	return nil
}

// List returns the stored profiles, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]string, 0, len(s.data))
	for p := range s.data {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	return profiles, nil
}
