package model

// ContractAlgebraPool is the contract kind watched for Swap events.
const ContractAlgebraPool = "AlgebraPool"

// Registration asks the runner to start watching Address as Contract
// from the block the registering event was emitted in.
type Registration struct {
	Contract  string
	Address   string
	FromBlock uint64
}
