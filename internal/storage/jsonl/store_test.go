package jsonl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

func TestStoreReplaysJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "entities.jsonl")

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.SetPool(ctx, model.Pool{ID: "1_100_2", Token0: "0xA", Token1: "0xB", Pool: "0xC"}))
	require.NoError(t, store.SetSwap(ctx, model.Swap{ID: "1_200_5", Amount0: "10"}))
	require.NoError(t, store.SetSwap(ctx, model.Swap{ID: "1_200_5", Amount0: "11"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	pool, err := reopened.GetPool("1_100_2")
	require.NoError(t, err)
	assert.Equal(t, model.Pool{ID: "1_100_2", Token0: "0xA", Token1: "0xB", Pool: "0xC"}, pool)

	swap, err := reopened.GetSwap("1_200_5")
	require.NoError(t, err)
	assert.Equal(t, "11", swap.Amount0)

	_, err = reopened.GetCustomPool("1_100_2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreRejectsCorruptJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"entity\":\"Unknown\",\"id\":\"x\",\"record\":{}}\n"), 0o644))

	_, err := Open(path, zap.NewNop())
	assert.Error(t, err)
}

func TestStoreDropsTornFinalLine(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "entities.jsonl")

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.SetSwap(ctx, model.Swap{ID: "1_1_1", Amount0: "7"}))
	require.NoError(t, store.Close())

	intact, err := os.ReadFile(path)
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"entity":"AlgebraPool_Swap","id":"1_1_2","rec`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, intact, after)

	_, err = reopened.GetSwap("1_1_2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, reopened.SetSwap(ctx, model.Swap{ID: "1_1_3", Amount0: "9"}))
	require.NoError(t, reopened.Close())

	again, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer again.Close()

	swap, err := again.GetSwap("1_1_1")
	require.NoError(t, err)
	assert.Equal(t, "7", swap.Amount0)
	swap, err = again.GetSwap("1_1_3")
	require.NoError(t, err)
	assert.Equal(t, "9", swap.Amount0)
}

func TestStoreRejectsTornLineMidJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.jsonl")
	good := `{"entity":"AlgebraPool_Swap","id":"1_1_1","record":{"id":"1_1_1"}}`
	require.NoError(t, os.WriteFile(path, []byte(`{"entity":"AlgebraPool_Swap","id":"1_1_2","rec`+"\n"+good+"\n"), 0o644))

	_, err := Open(path, zap.NewNop())
	assert.Error(t, err)
}

func TestStoreTerminatesUnfinishedLastLine(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "entities.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"entity":"AlgebraFactory_Pool","id":"1_1_1","record":{"id":"1_1_1","pool":"0xC"}}`), 0o644))

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.SetPool(ctx, model.Pool{ID: "1_2_1", Pool: "0xD"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	pool, err := reopened.GetPool("1_1_1")
	require.NoError(t, err)
	assert.Equal(t, "0xC", pool.Pool)
	pool, err = reopened.GetPool("1_2_1")
	require.NoError(t, err)
	assert.Equal(t, "0xD", pool.Pool)
}

func TestStoreIndexesLocations(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "entities.jsonl"), nil)
	require.NoError(t, err)
	defer store.Close()

	for i, amount := range []string{"1", "2", "3"} {
		require.NoError(t, store.SetSwap(ctx, model.Swap{ID: fmt.Sprintf("1_1_%d", i), Amount0: amount}))
	}
	require.NoError(t, store.SetSwap(ctx, model.Swap{ID: "1_1_1", Amount0: "20"}))

	assert.Equal(t, 3, store.Len(model.EntitySwap))
	assert.Equal(t, 0, store.Len(model.EntityPool))

	for id, want := range map[string]string{"1_1_0": "1", "1_1_1": "20", "1_1_2": "3"} {
		swap, err := store.GetSwap(id)
		require.NoError(t, err)
		assert.Equal(t, want, swap.Amount0, id)
	}
}

func TestStoreClosed(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "entities.jsonl"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.Error(t, store.SetSwap(context.Background(), model.Swap{ID: "1_1_1"}))
}
