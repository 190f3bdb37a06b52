package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quiethours/scheduler/internal/storage"
)

type Storage struct {
	mu   sync.Mutex
	data map[string]storage.Block
}

func New() *Storage {
	return &Storage{data: make(map[string]storage.Block)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) ListBlocks(_ context.Context, ownerID string) ([]storage.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks := make([]storage.Block, 0)
	for _, b := range s.data {
		if b.OwnerID == ownerID {
			blocks = append(blocks, b)
		}
	}
	sortByStart(blocks)
	return blocks, nil
}

func (s *Storage) AddBlock(_ context.Context, b *storage.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.StartTime.Before(time.Now()) {
		return fmt.Errorf("start time cannot be in the past: %w", storage.ErrInvalidBlock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOverlap(*b, ""); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	b.ReminderSent = false
	b.CreatedAt = now
	b.UpdatedAt = now
	s.data[b.ID] = *b
	return nil
}

func (s *Storage) UpdateBlock(_ context.Context, ownerID string, id string, b storage.Block) (storage.Block, error) {
	if err := b.Validate(); err != nil {
		return storage.Block{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.data[id]
	if !ok || prev.OwnerID != ownerID {
		return storage.Block{}, fmt.Errorf("failed to update block with id %q: %w", id, storage.ErrNotFoundBlock)
	}
	b.ID = id
	b.OwnerID = ownerID
	if err := s.checkOverlap(b, id); err != nil {
		return storage.Block{}, err
	}
	b.ReminderSent = prev.ReminderSent
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = time.Now()
	s.data[id] = b
	return b, nil
}

func (s *Storage) RemoveBlock(_ context.Context, ownerID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[id]
	if !ok || b.OwnerID != ownerID {
		return fmt.Errorf("failed to remove block with id %q: %w", id, storage.ErrNotFoundBlock)
	}
	delete(s.data, id)
	return nil
}

// ClaimDueBlocks selects unsent blocks starting in [from:to) and flips their
// reminder flag under the write lock, so concurrent claims partition the due
// set instead of double-claiming.
func (s *Storage) ClaimDueBlocks(_ context.Context, from time.Time, to time.Time) ([]storage.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := make([]storage.Block, 0)
	for id, b := range s.data {
		if b.ReminderSent {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		b.ReminderSent = true
		b.UpdatedAt = time.Now()
		s.data[id] = b
		claimed = append(claimed, b)
	}
	sortByStart(claimed)
	return claimed, nil
}

func (s *Storage) checkOverlap(candidate storage.Block, excludeID string) error {
	for id, b := range s.data {
		if id == excludeID || b.OwnerID != candidate.OwnerID {
			continue
		}
		if storage.Overlaps(candidate, b) {
			return fmt.Errorf("time slot conflicts with %q: %w", b.Title, storage.ErrBlockOverlap)
		}
	}
	return nil
}

func sortByStart(blocks []storage.Block) {
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].StartTime.Before(blocks[j].StartTime)
	})
}
