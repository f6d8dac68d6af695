package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"algebraIndexer/internal/config"
	"algebraIndexer/internal/storage"
	"algebraIndexer/internal/storage/jsonl"
	"algebraIndexer/internal/storage/kafka"
	"algebraIndexer/internal/storage/memory"
	"algebraIndexer/internal/storage/postgres"
	"algebraIndexer/internal/storage/redis"
)

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", config.StoreJSONL, "entity store backend (memory, jsonl, postgres, redis, kafka)")
	cmd.Flags().String("out", "./data/entities.jsonl", "jsonl store journal path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("redis-addr", "", "redis address (host:port)")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().Int("redis-db", 0, "redis database")
	cmd.Flags().String("redis-prefix", "algebra", "redis key prefix")
	cmd.Flags().Bool("redis-stream", false, "also append swaps to the per-chain redis stream")
	cmd.Flags().StringSlice("kafka-brokers", nil, "kafka brokers (comma-separated)")
	cmd.Flags().String("kafka-topic-prefix", "algebra", "kafka topic prefix")
}

// openStore opens the configured backend. The postgres handle is returned
// separately so it can also hold the checkpoint.
func openStore(ctx context.Context, cfg config.StoreConfig, chainID uint64, logger *zap.Logger) (storage.Store, *postgres.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreJSONL:
		store, err := jsonl.Open(cfg.Out, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open jsonl store: %w", err)
		}
		return store, nil, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store, nil
	case config.StoreRedis:
		store, err := redis.NewStore(ctx, redis.Config{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			KeyPrefix:   cfg.RedisPrefix,
			StreamSwaps: cfg.RedisStream,
			ChainID:     chainID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil, nil
	case config.StoreKafka:
		store, err := kafka.NewStore(kafka.Config{
			Brokers:     cfg.KafkaBrokers,
			TopicPrefix: cfg.KafkaTopicBase,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open kafka store: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
