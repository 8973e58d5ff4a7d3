package tracker

import (
	"fmt"
	"slices"
	"sync"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	jobs  map[int]*JobRecord
	order []int // insertion order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jobs:  make(map[int]*JobRecord),
		order: make([]int, 0),
	}
}

func (s *MemoryRepository) Add(r JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[r.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
	}
	s.jobs[r.ID] = &r
	s.order = append(s.order, r.ID)
	return nil
}

func (s *MemoryRepository) Get(id int) (JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.jobs[id]
	if !ok {
		return JobRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return *r, nil
}

func (s *MemoryRepository) List() ([]JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.jobs[id])
	}
	return out, nil
}

func (s *MemoryRepository) SetStatus(id int, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.jobs[id]; ok {
		r.Status = status
		return nil
	}
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

func (s *MemoryRepository) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	delete(s.jobs, id)
	s.order = slices.DeleteFunc(s.order, func(v int) bool { return v == id })
	return nil
}

func (s *MemoryRepository) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}
