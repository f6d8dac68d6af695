package handler

import (
	"context"
	"math/big"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

// HandleSwap records a pool Swap event.
func HandleSwap(ctx context.Context, ev model.Event[model.SwapParams], store storage.SwapWriter) error {
	return store.SetSwap(ctx, model.Swap{
		ID:          ev.ID(),
		Tx:          ev.Transaction.Hash,
		BlockNumber: ev.Block.Number,
		Sender:      ev.Transaction.From,
		Amount0:     intString(ev.Params.Amount0),
		Amount1:     intString(ev.Params.Amount1),
		Price:       intString(ev.Params.Price),
		Liquidity:   intString(ev.Params.Liquidity),
	})
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
