package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

const (
	tablePool       = "algebra_factory_pool"
	tableCustomPool = "algebra_factory_custom_pool"
	tableSwap       = "algebra_pool_swap"
	tableState      = "indexer_state"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + tablePool + ` (
		id TEXT PRIMARY KEY,
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		pool TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableCustomPool + ` (
		id TEXT PRIMARY KEY,
		deployer TEXT NOT NULL,
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		pool TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableSwap + ` (
		id TEXT PRIMARY KEY,
		tx TEXT NOT NULL,
		block_number BIGINT NOT NULL,
		sender TEXT NOT NULL,
		amount0 NUMERIC(78, 0) NOT NULL,
		amount1 NUMERIC(78, 0) NOT NULL,
		price NUMERIC(78, 0) NOT NULL,
		liquidity NUMERIC(78, 0) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ` + tableSwap + `_block_number_idx ON ` + tableSwap + ` (block_number)`,
	`CREATE TABLE IF NOT EXISTS ` + tableState + ` (
		name TEXT PRIMARY KEY,
		last_processed_block BIGINT NOT NULL,
		pools TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Store provides Postgres persistence for indexed entities.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates the entity and state tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SetPool upserts a factory Pool record.
func (s *Store) SetPool(ctx context.Context, p model.Pool) error {
	query, args, err := upsertPoolQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build pool upsert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert pool %s: %w", p.ID, err)
	}
	return nil
}

// SetCustomPool upserts a factory CustomPool record.
func (s *Store) SetCustomPool(ctx context.Context, p model.CustomPool) error {
	query, args, err := upsertCustomPoolQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build custom pool upsert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert custom pool %s: %w", p.ID, err)
	}
	return nil
}

// SetSwap upserts a pool Swap record.
func (s *Store) SetSwap(ctx context.Context, swap model.Swap) error {
	builder, err := upsertSwapQuery(swap)
	if err != nil {
		return err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build swap upsert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert swap %s: %w", swap.ID, err)
	}
	return nil
}

// GetSwap loads a Swap record by id. Missing ids return storage.ErrNotFound.
func (s *Store) GetSwap(ctx context.Context, id string) (model.Swap, error) {
	query, args, err := selectSwapQuery(id).ToSql()
	if err != nil {
		return model.Swap{}, fmt.Errorf("build swap select: %w", err)
	}

	var swap model.Swap
	var blockNumber int64
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&swap.ID, &swap.Tx, &blockNumber, &swap.Sender,
		&swap.Amount0, &swap.Amount1, &swap.Price, &swap.Liquidity,
	)
	if err != nil {
		return model.Swap{}, rowErr(err, "swap", id)
	}
	swap.BlockNumber = uint64(blockNumber)
	return swap, nil
}

// LoadState returns the last processed block and registered pools for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, []string, bool, error) {
	if name == "" {
		return 0, nil, false, fmt.Errorf("state name required")
	}
	var block int64
	var pools []string
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block, pools FROM `+tableState+` WHERE name=$1`, name)
	if err := row.Scan(&block, &pools); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	return uint64(block), pools, true, nil
}

// SaveState upserts the last processed block and registered pools for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64, pools []string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	if pools == nil {
		pools = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+tableState+` (name, last_processed_block, pools, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, pools = EXCLUDED.pools, updated_at = now()
	`, name, int64(block), pools)
	return err
}

func upsertPoolQuery(p model.Pool) sq.InsertBuilder {
	return psql.
		Insert(tablePool).
		Columns("id", "token0", "token1", "pool").
		Values(p.ID, p.Token0, p.Token1, p.Pool).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			pool = EXCLUDED.pool,
			updated_at = now()`)
}

func upsertCustomPoolQuery(p model.CustomPool) sq.InsertBuilder {
	return psql.
		Insert(tableCustomPool).
		Columns("id", "deployer", "token0", "token1", "pool").
		Values(p.ID, p.Deployer, p.Token0, p.Token1, p.Pool).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			deployer = EXCLUDED.deployer,
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			pool = EXCLUDED.pool,
			updated_at = now()`)
}

func upsertSwapQuery(swap model.Swap) (sq.InsertBuilder, error) {
	amount0, err := numeric(swap.Amount0)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("amount0: %w", err)
	}
	amount1, err := numeric(swap.Amount1)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("amount1: %w", err)
	}
	price, err := numeric(swap.Price)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("price: %w", err)
	}
	liquidity, err := numeric(swap.Liquidity)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("liquidity: %w", err)
	}

	return psql.
		Insert(tableSwap).
		Columns("id", "tx", "block_number", "sender", "amount0", "amount1", "price", "liquidity").
		Values(swap.ID, swap.Tx, int64(swap.BlockNumber), swap.Sender, amount0, amount1, price, liquidity).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			tx = EXCLUDED.tx,
			block_number = EXCLUDED.block_number,
			sender = EXCLUDED.sender,
			amount0 = EXCLUDED.amount0,
			amount1 = EXCLUDED.amount1,
			price = EXCLUDED.price,
			liquidity = EXCLUDED.liquidity,
			updated_at = now()`), nil
}

func selectSwapQuery(id string) sq.SelectBuilder {
	return psql.
		Select("id", "tx", "block_number", "sender", "amount0::text", "amount1::text", "price::text", "liquidity::text").
		From(tableSwap).
		Where(sq.Eq{"id": id})
}

func rowErr(err error, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

func numeric(value string) (pgtype.Numeric, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return pgtype.Numeric{}, fmt.Errorf("invalid integer %q", value)
	}
	return pgtype.Numeric{Int: n, Exp: 0, Valid: true}, nil
}
