package model

import "fmt"

// Block identifies the block a log was emitted in.
type Block struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
}

// Transaction identifies the transaction a log was emitted by.
type Transaction struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	Index uint64 `json:"index"`
}

// Event is a decoded log envelope carrying event specific params.
type Event[P any] struct {
	ChainID     uint64      `json:"chain_id"`
	Block       Block       `json:"block"`
	LogIndex    uint64      `json:"log_index"`
	SrcAddress  string      `json:"src_address"`
	Transaction Transaction `json:"transaction"`
	Params      P           `json:"params"`
}

// ID returns the composite identifier of the log that produced the event.
func (e Event[P]) ID() string {
	return EventID(e.ChainID, e.Block.Number, e.LogIndex)
}

// EventID = "<chain_id>_<block_number>_<log_index>"
func EventID(chainID, blockNumber, logIndex uint64) string {
	return fmt.Sprintf("%d_%d_%d", chainID, blockNumber, logIndex)
}
