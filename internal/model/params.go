package model

import "math/big"

// PoolCreatedParams is the decoded AlgebraFactory Pool event payload.
type PoolCreatedParams struct {
	Token0 string
	Token1 string
	Pool   string
}

// CustomPoolParams is the decoded AlgebraFactory CustomPool event payload.
type CustomPoolParams struct {
	Deployer string
	Token0   string
	Token1   string
	Pool     string
}

// SwapParams is the decoded AlgebraPool Swap event payload.
type SwapParams struct {
	Sender    string
	Recipient string
	Amount0   *big.Int
	Amount1   *big.Int
	Price     *big.Int
	Liquidity *big.Int
	Tick      int32
}
