package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(2000), cfg.BatchSize)
	assert.Equal(t, 500, cfg.AddressChunk)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 10000, cfg.SenderCacheSize)
	assert.True(t, cfg.CheckpointEnabled)
	assert.Equal(t, StoreJSONL, cfg.Store.Backend)
	assert.Equal(t, "./data/entities.jsonl", cfg.Store.Out)
}

func TestLoadFlagsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc: http://localhost:8545
factory: "0x1111111111111111111111111111111111111111"
pool:
  - "0x2222222222222222222222222222222222222222"
store: postgres
pg-dsn: postgres://localhost/algebra
`), 0o644))

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Uint64("from", 0, "")
	flags.String("kafka-brokers", "", "")
	require.NoError(t, flags.Parse([]string{"--from=42", "--kafka-brokers=a:9092, b:9092"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Factory)
	assert.Equal(t, []string{"0x2222222222222222222222222222222222222222"}, cfg.Pools)
	assert.Equal(t, uint64(42), cfg.FromBlock)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Store.KafkaBrokers)
	assert.NoError(t, cfg.Store.Validate())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("INDEXER_REDIS_ADDR", "localhost:6379")
	t.Setenv("INDEXER_STORE", "Redis")

	store, _, err := LoadStore("", nil)
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, store.Backend)
	assert.Equal(t, "localhost:6379", store.RedisAddr)
	assert.NoError(t, store.Validate())
}

func TestStoreConfigValidate(t *testing.T) {
	assert.NoError(t, StoreConfig{Backend: StoreMemory}.Validate())
	assert.Error(t, StoreConfig{Backend: StoreJSONL}.Validate())
	assert.Error(t, StoreConfig{Backend: StorePostgres}.Validate())
	assert.Error(t, StoreConfig{Backend: StoreRedis}.Validate())
	assert.Error(t, StoreConfig{Backend: StoreKafka}.Validate())
	assert.Error(t, StoreConfig{Backend: "sqlite"}.Validate())
}
