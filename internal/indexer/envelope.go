package indexer

import (
	"github.com/ethereum/go-ethereum/core/types"

	"algebraIndexer/internal/model"
)

func newEvent[P any](chainID uint64, log types.Log, from string, params P) model.Event[P] {
	return model.Event[P]{
		ChainID: chainID,
		Block: model.Block{
			Number: log.BlockNumber,
			Hash:   log.BlockHash.Hex(),
		},
		LogIndex:   uint64(log.Index),
		SrcAddress: log.Address.Hex(),
		Transaction: model.Transaction{
			Hash:  log.TxHash.Hex(),
			From:  from,
			Index: uint64(log.TxIndex),
		},
		Params: params,
	}
}
