package tracker

import (
	"errors"
	"fmt"
	"sync"
)

// Snapshot is the board state as of one Query call.
type Snapshot struct {
	Filter       Filter
	Total        int
	Interviewing int
	Rejected     int
	Visible      []JobRecord
}

func (s Snapshot) VisibleCount() int {
	return len(s.Visible)
}

// Board holds the job collection and the active filter.
type Board struct {
	mu     sync.RWMutex
	repo   Repository
	filter Filter
}

func NewBoard(repo Repository) *Board {
	return &Board{repo: repo, filter: FilterAll}
}

// Load adds records in the order given. Ids are checked against each other
// and the repository first, so a repeated id leaves the board unchanged.
func (b *Board) Load(records []JobRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[int]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
		_, err := b.repo.Get(r.ID)
		if err == nil {
			return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	for _, r := range records {
		r.Status = StatusNone
		if err := b.repo.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// ToggleStatus applies Status.Toggle to the record. An unknown id is not an
// error.
func (b *Board) ToggleStatus(id int, target Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.repo.Get(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return b.repo.SetStatus(id, r.Status.Toggle(target))
}

// DeleteJob removes the record. An unknown id is not an error.
func (b *Board) DeleteJob(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.repo.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (b *Board) SetFilter(f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
}

func (b *Board) Filter() Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

func (b *Board) Get(id int) (JobRecord, error) {
	return b.repo.Get(id)
}

// List returns the records matching f without touching the active filter.
func (b *Board) List(f Filter) ([]JobRecord, error) {
	all, err := b.repo.List()
	if err != nil {
		return nil, err
	}
	out := make([]JobRecord, 0, len(all))
	for _, r := range all {
		if f.Matches(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *Board) Query() (Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	all, err := b.repo.List()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Filter:  b.filter,
		Total:   len(all),
		Visible: make([]JobRecord, 0, len(all)),
	}
	for _, r := range all {
		switch r.Status {
		case StatusInterviewing:
			snap.Interviewing++
		case StatusRejected:
			snap.Rejected++
		}
		if b.filter.Matches(r.Status) {
			snap.Visible = append(snap.Visible, r)
		}
	}
	return snap, nil
}
