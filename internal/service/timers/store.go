package timers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sandevgo/brotherbot/pkg/fsutil"
)

type Timer struct {
	UserID     string    `json:"user_id"`
	ChannelID  string    `json:"channel_id"`
	Name       string    `json:"name"`
	ExpireTime time.Time `json:"expire_time"`
}

// Store keeps timers as a JSON array on disk.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() ([]Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Save(timers []Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(timers)
}

// Add appends one timer under the store lock.
func (s *Store) Add(t Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(timers, t))
}

// TakeExpired removes and returns every timer due at or before now.
func (s *Store) TakeExpired(now time.Time) ([]Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers, err := s.load()
	if err != nil {
		return nil, err
	}

	var due, keep []Timer
	for _, t := range timers {
		if !now.Before(t.ExpireTime) {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	if err := s.save(keep); err != nil {
		return nil, err
	}
	return due, nil
}

func (s *Store) load() ([]Timer, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read timers: %w", err)
	}

	var timers []Timer
	if err := json.Unmarshal(data, &timers); err != nil {
		return nil, fmt.Errorf("failed to decode timers: %w", err)
	}
	return timers, nil
}

func (s *Store) save(timers []Timer) error {
	if timers == nil {
		timers = []Timer{}
	}
	data, err := json.MarshalIndent(timers, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode timers: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, data, 0644)
}
