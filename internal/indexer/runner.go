package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"algebraIndexer/internal/dex"
	"algebraIndexer/internal/handler"
	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

// ChainReader is the subset of chain access the runner needs.
type ChainReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	TransactionSender(ctx context.Context, txHash, blockHash common.Hash, txIndex uint) (common.Address, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock    uint64
	ToBlock      uint64
	Factory      common.Address
	Pools        []common.Address
	BatchSize    uint64
	AddressChunk int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Runner streams factory and pool logs from the chain, maps them into
// records and writes them to the store.
type Runner struct {
	cfg        RunConfig
	chain      ChainReader
	decoder    *dex.Decoder
	store      storage.Store
	checkpoint CheckpointStore
	registry   *Registry
	logger     *zap.Logger
}

type batchStats struct {
	pools       int
	customPools int
	swaps       int
	registered  int
	skipped     int
	failed      int
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainReader ChainReader, decoder *dex.Decoder, store storage.Store, checkpoint CheckpointStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainReader,
		decoder:    decoder,
		store:      store,
		checkpoint: checkpoint,
		registry:   NewRegistry(),
		logger:     logger,
	}
}

// Registry exposes the pools currently watched for Swap events.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.store == nil {
		return fmt.Errorf("store is nil")
	}
	if r.decoder == nil {
		return fmt.Errorf("decoder is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.Factory == (common.Address{}) {
		return fmt.Errorf("factory address is required")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	for _, pool := range r.cfg.Pools {
		if _, err := r.registry.Register(model.Registration{Contract: model.ContractAlgebraPool, Address: pool.Hex()}); err != nil {
			return fmt.Errorf("register seed pool: %w", err)
		}
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			for _, pool := range cp.Pools {
				if _, err := r.registry.Register(model.Registration{Contract: model.ContractAlgebraPool, Address: pool}); err != nil {
					return fmt.Errorf("restore pool from checkpoint: %w", err)
				}
			}
			if cp.LastProcessedBlock >= from {
				from = cp.LastProcessedBlock + 1
			}
			r.logger.Info("resume from checkpoint",
				zap.Uint64("last_processed", cp.LastProcessedBlock),
				zap.Uint64("from", from),
				zap.Int("pools", r.registry.Len()),
			)
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stats, err := r.processRange(ctx, chainIDValue, blockRange)
		if err != nil {
			return err
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, Checkpoint{LastProcessedBlock: blockRange.To, Pools: r.registry.Strings()}); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Uint64("blocks", blockRange.Blocks()),
			zap.Int("pools", stats.pools),
			zap.Int("custom_pools", stats.customPools),
			zap.Int("swaps", stats.swaps),
			zap.Int("registered", stats.registered),
			zap.Int("watched", r.registry.Len()),
			zap.Int("skipped", stats.skipped),
			zap.Int("failed", stats.failed),
		)
	}

	return nil
}

func (r *Runner) processRange(ctx context.Context, chainID uint64, blockRange BlockRange) (batchStats, error) {
	var stats batchStats

	r.logger.Debug("fetch factory logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	factoryLogs, err := r.filterLogsWithRetry(ctx, blockRange, []common.Address{r.cfg.Factory}, r.decoder.FactoryTopics())
	if err != nil {
		return stats, fmt.Errorf("filter factory logs: %w", err)
	}
	for _, log := range factoryLogs {
		if err := r.handleFactoryLog(ctx, chainID, log, &stats); err != nil {
			return stats, err
		}
	}

	pools := r.registry.Addresses()
	if len(pools) == 0 {
		return stats, nil
	}

	var poolLogs []types.Log
	for _, chunk := range ChunkAddresses(pools, r.cfg.AddressChunk) {
		r.logger.Debug("fetch pool logs",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Int("addresses", len(chunk)),
		)
		logs, err := r.filterLogsWithRetry(ctx, blockRange, chunk, r.decoder.PoolTopics())
		if err != nil {
			return stats, fmt.Errorf("filter pool logs: %w", err)
		}
		poolLogs = append(poolLogs, logs...)
	}
	sortLogs(poolLogs)

	for _, log := range poolLogs {
		if !r.registry.Watches(log.Address, log.BlockNumber) {
			stats.skipped++
			continue
		}
		if err := r.handlePoolLog(ctx, chainID, log, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (r *Runner) handleFactoryLog(ctx context.Context, chainID uint64, log types.Log, stats *batchStats) error {
	if log.Removed {
		stats.skipped++
		return nil
	}

	name, err := r.decoder.EventName(log)
	if err != nil {
		stats.skipped++
		return nil
	}

	var reg model.Registration
	switch name {
	case dex.EventPool:
		params, err := r.decoder.DecodePool(log)
		if err != nil {
			r.decodeFailed(log, err, stats)
			return nil
		}
		reg, err = handler.HandlePool(ctx, newEvent(chainID, log, "", params), r.store)
		if err != nil {
			return fmt.Errorf("handle pool %s: %w", model.EventID(chainID, log.BlockNumber, uint64(log.Index)), err)
		}
		stats.pools++
	case dex.EventCustomPool:
		params, err := r.decoder.DecodeCustomPool(log)
		if err != nil {
			r.decodeFailed(log, err, stats)
			return nil
		}
		reg, err = handler.HandleCustomPool(ctx, newEvent(chainID, log, "", params), r.store)
		if err != nil {
			return fmt.Errorf("handle custom pool %s: %w", model.EventID(chainID, log.BlockNumber, uint64(log.Index)), err)
		}
		stats.customPools++
	default:
		stats.skipped++
		return nil
	}

	added, err := r.registry.Register(reg)
	if err != nil {
		return fmt.Errorf("register pool %s: %w", reg.Address, err)
	}
	if added {
		stats.registered++
		r.logger.Info("pool registered", zap.String("pool", reg.Address), zap.Uint64("from_block", reg.FromBlock))
	}
	return nil
}

func (r *Runner) handlePoolLog(ctx context.Context, chainID uint64, log types.Log, stats *batchStats) error {
	if log.Removed {
		stats.skipped++
		return nil
	}

	name, err := r.decoder.EventName(log)
	if err != nil || name != dex.EventSwap {
		stats.skipped++
		return nil
	}

	params, err := r.decoder.DecodeSwap(log)
	if err != nil {
		r.decodeFailed(log, err, stats)
		return nil
	}

	sender, err := r.senderWithRetry(ctx, log)
	if err != nil {
		return fmt.Errorf("transaction sender %s: %w", log.TxHash.Hex(), err)
	}

	if err := handler.HandleSwap(ctx, newEvent(chainID, log, sender.Hex(), params), r.store); err != nil {
		return fmt.Errorf("handle swap %s: %w", model.EventID(chainID, log.BlockNumber, uint64(log.Index)), err)
	}
	stats.swaps++
	return nil
}

func (r *Runner) decodeFailed(log types.Log, err error, stats *batchStats) {
	stats.failed++
	r.logger.Warn("decode failed",
		zap.Error(err),
		zap.Uint64("block_number", log.BlockNumber),
		zap.String("tx_hash", log.TxHash.Hex()),
		zap.Uint("log_index", log.Index),
		zap.String("address", log.Address.Hex()),
	)
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, blockRange BlockRange, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	var logs []types.Log
	err := newBackoff(r.cfg.MaxRetries, r.cfg.RetryBackoff).do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, blockRange.From, blockRange.To, addresses, topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		}
		return err
	})
	sortLogs(logs)
	return logs, err
}

func (r *Runner) senderWithRetry(ctx context.Context, log types.Log) (common.Address, error) {
	var sender common.Address
	err := newBackoff(r.cfg.MaxRetries, r.cfg.RetryBackoff).do(ctx, func(ctx context.Context) error {
		var err error
		sender, err = r.chain.TransactionSender(ctx, log.TxHash, log.BlockHash, log.TxIndex)
		if err != nil {
			r.logger.Warn("transaction sender fetch failed", zap.Error(err), zap.String("tx_hash", log.TxHash.Hex()))
		}
		return err
	})
	return sender, err
}

func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}
