package storage

import (
	"context"
	"errors"

	"algebraIndexer/internal/model"
)

// ErrNotFound is returned by readers when no record exists for an id.
var ErrNotFound = errors.New("record not found")

// PoolWriter upserts factory Pool records by id.
type PoolWriter interface {
	SetPool(ctx context.Context, pool model.Pool) error
}

// CustomPoolWriter upserts factory CustomPool records by id.
type CustomPoolWriter interface {
	SetCustomPool(ctx context.Context, pool model.CustomPool) error
}

// SwapWriter upserts pool Swap records by id.
type SwapWriter interface {
	SetSwap(ctx context.Context, swap model.Swap) error
}

// Store is an entity store namespaced per record kind.
type Store interface {
	PoolWriter
	CustomPoolWriter
	SwapWriter
	Close() error
}
