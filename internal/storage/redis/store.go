package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

// Config configures the redis entity store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// StreamSwaps also appends each swap to the per-chain swap stream.
	// Entries are keyed by StreamEntryID, so swaps already in the stream
	// are not appended again when a block range is replayed.
	StreamSwaps bool
	ChainID     uint64
}

// Store keeps one hash per entity namespace, field = record id.
type Store struct {
	rdb *redis.Client
	cfg Config
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{rdb: rdb, cfg: cfg}, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) SetPool(ctx context.Context, pool model.Pool) error {
	return s.set(ctx, model.EntityPool, pool.ID, pool)
}

func (s *Store) SetCustomPool(ctx context.Context, pool model.CustomPool) error {
	return s.set(ctx, model.EntityCustomPool, pool.ID, pool)
}

func (s *Store) SetSwap(ctx context.Context, swap model.Swap) error {
	if err := s.set(ctx, model.EntitySwap, swap.ID, swap); err != nil {
		return err
	}
	if !s.cfg.StreamSwaps {
		return nil
	}

	entryID, err := StreamEntryID(swap)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(&swap)
	if err != nil {
		return err
	}
	err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: SwapStream(s.cfg.KeyPrefix, s.cfg.ChainID),
		ID:     entryID,
		Values: map[string]any{
			"id":   swap.ID,
			"swap": payload,
		},
	}).Err()
	if err != nil && !isStreamReplay(err) {
		return fmt.Errorf("stream swap %s: %w", swap.ID, err)
	}
	return nil
}

// GetSwap loads a Swap record by id.
func (s *Store) GetSwap(ctx context.Context, id string) (model.Swap, error) {
	var swap model.Swap
	if err := s.get(ctx, model.EntitySwap, id, &swap); err != nil {
		return model.Swap{}, err
	}
	return swap, nil
}

// GetPool loads a Pool record by id.
func (s *Store) GetPool(ctx context.Context, id string) (model.Pool, error) {
	var pool model.Pool
	if err := s.get(ctx, model.EntityPool, id, &pool); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}

func (s *Store) set(ctx context.Context, entity, id string, record interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", entity, err)
	}
	if err := s.rdb.HSet(ctx, EntityKey(s.cfg.KeyPrefix, entity), id, payload).Err(); err != nil {
		return fmt.Errorf("hset %s %s: %w", entity, id, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, entity, id string, out interface{}) error {
	payload, err := s.rdb.HGet(ctx, EntityKey(s.cfg.KeyPrefix, entity), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("hget %s %s: %w", entity, id, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", entity, id, err)
	}
	return nil
}

// EntityKey returns the hash key holding records of an entity namespace.
func EntityKey(prefix, entity string) string {
	if prefix == "" {
		return entity
	}
	return prefix + ":" + entity
}

// SwapStream returns the stream name swaps of a chain are appended to.
func SwapStream(prefix string, chainID uint64) string {
	return EntityKey(prefix, fmt.Sprintf("%d_%s", chainID, model.EntitySwap))
}

// StreamEntryID returns "<block>-<logIndex+1>" for a swap. Entry ids grow
// with block and log order, and are never the reserved 0-0.
func StreamEntryID(swap model.Swap) (string, error) {
	sep := strings.LastIndexByte(swap.ID, '_')
	if sep < 0 {
		return "", fmt.Errorf("swap id %q has no log index", swap.ID)
	}
	logIndex, err := strconv.ParseUint(swap.ID[sep+1:], 10, 64)
	if err != nil {
		return "", fmt.Errorf("swap id %q: %w", swap.ID, err)
	}
	return fmt.Sprintf("%d-%d", swap.BlockNumber, logIndex+1), nil
}

// isStreamReplay reports whether XADD refused an entry id at or below the
// stream top, meaning the swap was already streamed.
func isStreamReplay(err error) bool {
	var redisErr redis.Error
	if !errors.As(err, &redisErr) {
		return false
	}
	return strings.Contains(redisErr.Error(), "equal or smaller than the target stream top item")
}
