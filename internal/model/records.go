package model

// Entity namespaces in the store.
const (
	EntityPool       = "AlgebraFactory_Pool"
	EntityCustomPool = "AlgebraFactory_CustomPool"
	EntitySwap       = "AlgebraPool_Swap"
)

// Pool is the record written for each factory Pool event.
type Pool struct {
	ID     string `json:"id"`
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Pool   string `json:"pool"`
}

// CustomPool is the record written for each factory CustomPool event.
type CustomPool struct {
	ID       string `json:"id"`
	Deployer string `json:"deployer"`
	Token0   string `json:"token0"`
	Token1   string `json:"token1"`
	Pool     string `json:"pool"`
}

// Swap is the record written for each pool Swap event.
//
// Amounts, price and liquidity are the raw on-chain integers in base 10.
// Price is the pool sqrt price in Q64.96 exactly as emitted.
type Swap struct {
	ID          string `json:"id"`
	Tx          string `json:"tx"`
	BlockNumber uint64 `json:"block_number"`
	Sender      string `json:"sender"`
	Amount0     string `json:"amount0"`
	Amount1     string `json:"amount1"`
	Price       string `json:"price"`
	Liquidity   string `json:"liquidity"`
}
