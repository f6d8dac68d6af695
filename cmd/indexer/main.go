package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"algebraIndexer/internal/chain"
	"algebraIndexer/internal/config"
	"algebraIndexer/internal/dex"
	"algebraIndexer/internal/indexer"
	"algebraIndexer/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Algebra factory and pool event indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index factory Pool/CustomPool and pool Swap events",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().String("factory", "", "Algebra factory address")
	runCmd.Flags().StringSlice("pool", nil, "pool addresses to watch from the start (comma-separated)")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().Int("address-chunk", 500, "max pool addresses per log filter")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Bool("checkpoint-db", false, "keep the checkpoint in postgres (postgres store only)")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().Int("sender-cache-size", chain.DefaultSenderCacheSize, "max transaction senders kept in the LRU cache")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	addStoreFlags(runCmd)

	root.AddCommand(runCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create postgres tables for indexed entities",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Factory) {
		return fmt.Errorf("valid factory address is required")
	}
	if err := cfg.Store.Validate(); err != nil {
		return err
	}
	if cfg.CheckpointDB && cfg.Store.Backend != config.StorePostgres {
		return fmt.Errorf("checkpoint-db requires the postgres store")
	}

	pools, err := indexer.ParseAddresses(cfg.Pools)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.SenderCacheSize)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	store, pgStore, err := openStore(ctx, cfg.Store, chainID.Uint64(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var checkpoint indexer.CheckpointStore
	switch {
	case !cfg.CheckpointEnabled:
	case cfg.CheckpointDB:
		checkpoint = &indexer.DBCheckpointStore{
			Store: pgStore,
			Name:  fmt.Sprintf("algebra:%d:%s", chainID.Uint64(), common.HexToAddress(cfg.Factory).Hex()),
		}
	default:
		checkpoint = indexer.NewFileCheckpointStore(cfg.Checkpoint, true)
	}

	decoder, err := dex.NewDecoder()
	if err != nil {
		return err
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		Factory:      common.HexToAddress(cfg.Factory),
		Pools:        pools,
		BatchSize:    cfg.BatchSize,
		AddressChunk: cfg.AddressChunk,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, decoder, store, checkpoint, logger)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.String("factory", cfg.Factory),
		zap.Int("seed_pools", len(pools)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.Bool("checkpoint_db", cfg.CheckpointDB),
	)

	return runner.Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	storeCfg, logLevel, err := config.LoadStore(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if storeCfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, storeCfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	logger.Info("migrate complete", zap.String("pg_dsn", redactDSN(storeCfg.PGDSN)))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
