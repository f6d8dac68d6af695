package handler

import (
	"context"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

// HandlePool records a factory Pool event and returns the registration
// that starts Swap indexing for the new pool.
func HandlePool(ctx context.Context, ev model.Event[model.PoolCreatedParams], store storage.PoolWriter) (model.Registration, error) {
	record := model.Pool{
		ID:     ev.ID(),
		Token0: ev.Params.Token0,
		Token1: ev.Params.Token1,
		Pool:   ev.Params.Pool,
	}
	if err := store.SetPool(ctx, record); err != nil {
		return model.Registration{}, err
	}
	return registerPool(ev.Params.Pool, ev.Block.Number), nil
}

// HandleCustomPool records a factory CustomPool event and returns the
// registration for the new pool.
func HandleCustomPool(ctx context.Context, ev model.Event[model.CustomPoolParams], store storage.CustomPoolWriter) (model.Registration, error) {
	record := model.CustomPool{
		ID:       ev.ID(),
		Deployer: ev.Params.Deployer,
		Token0:   ev.Params.Token0,
		Token1:   ev.Params.Token1,
		Pool:     ev.Params.Pool,
	}
	if err := store.SetCustomPool(ctx, record); err != nil {
		return model.Registration{}, err
	}
	return registerPool(ev.Params.Pool, ev.Block.Number), nil
}

func registerPool(address string, fromBlock uint64) model.Registration {
	return model.Registration{
		Contract:  model.ContractAlgebraPool,
		Address:   address,
		FromBlock: fromBlock,
	}
}
