package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

func TestUpsertPoolQuery(t *testing.T) {
	query, args, err := upsertPoolQuery(model.Pool{ID: "1_100_2", Token0: "0xA", Token1: "0xB", Pool: "0xC"}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO algebra_factory_pool (id,token0,token1,pool) VALUES ($1,$2,$3,$4)"))
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE")
	assert.Equal(t, []interface{}{"1_100_2", "0xA", "0xB", "0xC"}, args)
}

func TestUpsertCustomPoolQuery(t *testing.T) {
	query, args, err := upsertCustomPoolQuery(model.CustomPool{ID: "1_1_1", Deployer: "0xD"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO algebra_factory_custom_pool")
	assert.Contains(t, query, "deployer = EXCLUDED.deployer")
	assert.Len(t, args, 5)
}

func TestUpsertSwapQuery(t *testing.T) {
	builder, err := upsertSwapQuery(model.Swap{
		ID:          "1_200_5",
		Tx:          "0xT",
		BlockNumber: 200,
		Sender:      "0xF",
		Amount0:     "10",
		Amount1:     "-20",
		Price:       "1500",
		Liquidity:   "999",
	})
	require.NoError(t, err)

	query, args, err := builder.ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "INSERT INTO algebra_pool_swap")
	assert.Contains(t, query, "$8")
	require.Len(t, args, 8)
	assert.Equal(t, int64(200), args[2])

	amount1, ok := args[5].(pgtype.Numeric)
	require.True(t, ok)
	assert.Equal(t, "-20", amount1.Int.String())
}

func TestUpsertSwapQueryRejectsNonInteger(t *testing.T) {
	_, err := upsertSwapQuery(model.Swap{ID: "x", Amount0: "1.5", Amount1: "0", Price: "0", Liquidity: "0"})
	assert.Error(t, err)
}

func TestSelectSwapQuery(t *testing.T) {
	query, args, err := selectSwapQuery("1_200_5").ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM algebra_pool_swap WHERE id = $1")
	assert.Equal(t, []interface{}{"1_200_5"}, args)
}

func TestRowErrMapsNoRows(t *testing.T) {
	assert.ErrorIs(t, rowErr(pgx.ErrNoRows, "swap", "1_1_1"), storage.ErrNotFound)
	assert.ErrorIs(t, rowErr(fmt.Errorf("scan: %w", pgx.ErrNoRows), "swap", "1_1_1"), storage.ErrNotFound)

	boom := errors.New("connection reset")
	err := rowErr(boom, "swap", "1_1_1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
