// Package memory provides a process-local slot storage, used in tests and as the `memory` driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/trezcool/classportal/core/store"
)

type Storage struct {
	mu     sync.RWMutex
	slots  map[string][]byte
	writes map[string]int
}

var _ store.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		slots:  make(map[string][]byte),
		writes: make(map[string]int),
	}
}

func (s *Storage) Get(_ context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.slots[slot]
	if !ok {
		return nil, store.ErrSlotNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *Storage) Set(_ context.Context, slot string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]byte, len(payload))
	copy(data, payload)
	s.slots[slot] = data
	s.writes[slot]++
	return nil
}

func (s *Storage) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}

func (s *Storage) Slots(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.slots))
	for name := range s.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Writes returns how many times slot was written.
func (s *Storage) Writes(slot string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[slot]
}

func (s *Storage) Close() error { return nil }
