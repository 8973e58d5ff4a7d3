package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jobboard/tracker/internal/db"
)

const SystemNamespace = "jobboard/"

// BadgerRepository keeps records in a badger KV. Record keys carry a
// zero-padded insertion sequence so a prefix scan yields insertion order;
// index keys map a job id to its record key.
type BadgerRepository struct {
	mu      sync.Mutex
	dbStore *db.Store
	seq     uint64
}

func NewBadgerRepository(dbStore *db.Store) *BadgerRepository {
	return &BadgerRepository{dbStore: dbStore}
}

func recordKey(seq uint64) string { return fmt.Sprintf("jobs/%020d", seq) }
func indexKey(id int) string      { return fmt.Sprintf("index/%d", id) }

func (s *BadgerRepository) Add(r JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(r.ID); err == nil {
		return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	s.seq++
	key := recordKey(s.seq)
	err = s.dbStore.SetAll(SystemNamespace, map[string][]byte{
		key:            data,
		indexKey(r.ID): []byte(key),
	})
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

func (s *BadgerRepository) Get(id int) (JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, _, err := s.load(id)
	return r, err
}

func (s *BadgerRepository) List() ([]JobRecord, error) {
	out := make([]JobRecord, 0)
	err := s.dbStore.Scan(SystemNamespace, "jobs/", func(key string, value []byte) error {
		var r JobRecord
		if err := json.Unmarshal(value, &r); err != nil {
			return fmt.Errorf("unmarshal job %s: %w", key, err)
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

func (s *BadgerRepository) SetStatus(id int, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, key, err := s.load(id)
	if err != nil {
		return err
	}
	r.Status = status

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.dbStore.Set(SystemNamespace, key, data); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

func (s *BadgerRepository) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := s.dbStore.Delete(SystemNamespace, key, indexKey(id)); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (s *BadgerRepository) Len() (int, error) {
	keys, err := s.dbStore.List(SystemNamespace, "jobs/", 0)
	if err != nil {
		return 0, fmt.Errorf("list jobs: %w", err)
	}
	return len(keys), nil
}

// lookup resolves a job id to its record key.
func (s *BadgerRepository) lookup(id int) (string, error) {
	data, err := s.dbStore.Get(SystemNamespace, indexKey(id))
	if errors.Is(err, db.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("get index: %w", err)
	}
	return string(data), nil
}

func (s *BadgerRepository) load(id int) (JobRecord, string, error) {
	key, err := s.lookup(id)
	if err != nil {
		return JobRecord{}, "", err
	}
	data, err := s.dbStore.Get(SystemNamespace, key)
	if err != nil {
		return JobRecord{}, "", fmt.Errorf("get job: %w", err)
	}
	var r JobRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return JobRecord{}, "", fmt.Errorf("unmarshal job: %w", err)
	}
	return r, key, nil
}
