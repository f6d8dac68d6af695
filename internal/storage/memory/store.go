package memory

import (
	"context"
	"sync"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

// Store keeps records in memory, keyed by id per entity namespace.
type Store struct {
	mu          sync.RWMutex
	pools       map[string]model.Pool
	customPools map[string]model.CustomPool
	swaps       map[string]model.Swap
}

func NewStore() *Store {
	return &Store{
		pools:       make(map[string]model.Pool),
		customPools: make(map[string]model.CustomPool),
		swaps:       make(map[string]model.Swap),
	}
}

func (s *Store) SetPool(ctx context.Context, pool model.Pool) error {
	s.mu.Lock()
	s.pools[pool.ID] = pool
	s.mu.Unlock()
	return nil
}

func (s *Store) SetCustomPool(ctx context.Context, pool model.CustomPool) error {
	s.mu.Lock()
	s.customPools[pool.ID] = pool
	s.mu.Unlock()
	return nil
}

func (s *Store) SetSwap(ctx context.Context, swap model.Swap) error {
	s.mu.Lock()
	s.swaps[swap.ID] = swap
	s.mu.Unlock()
	return nil
}

func (s *Store) GetPool(id string) (model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[id]
	if !ok {
		return model.Pool{}, storage.ErrNotFound
	}
	return pool, nil
}

func (s *Store) GetCustomPool(id string) (model.CustomPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.customPools[id]
	if !ok {
		return model.CustomPool{}, storage.ErrNotFound
	}
	return pool, nil
}

func (s *Store) GetSwap(id string) (model.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.Swap{}, storage.ErrNotFound
	}
	return swap, nil
}

// Count returns the number of records held for an entity namespace.
func (s *Store) Count(entity string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch entity {
	case model.EntityPool:
		return len(s.pools)
	case model.EntityCustomPool:
		return len(s.customPools)
	case model.EntitySwap:
		return len(s.swaps)
	default:
		return 0
	}
}

func (s *Store) Close() error {
	return nil
}
