package indexer

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"algebraIndexer/internal/model"
)

// Registry is the set of pool contracts watched for Swap events.
type Registry struct {
	mu        sync.RWMutex
	fromBlock map[common.Address]uint64
	order     []common.Address
}

func NewRegistry() *Registry {
	return &Registry{fromBlock: make(map[common.Address]uint64)}
}

// Register adds the registration's address. Registering a known address is a
// no-op apart from lowering its start block. It reports whether the address was new.
func (r *Registry) Register(reg model.Registration) (bool, error) {
	if reg.Contract != model.ContractAlgebraPool {
		return false, fmt.Errorf("unsupported contract kind %q", reg.Contract)
	}
	if !common.IsHexAddress(reg.Address) {
		return false, fmt.Errorf("invalid pool address %q", reg.Address)
	}
	address := common.HexToAddress(reg.Address)

	r.mu.Lock()
	defer r.mu.Unlock()

	if from, ok := r.fromBlock[address]; ok {
		if reg.FromBlock < from {
			r.fromBlock[address] = reg.FromBlock
		}
		return false, nil
	}
	r.fromBlock[address] = reg.FromBlock
	r.order = append(r.order, address)
	return true, nil
}

// Watches reports whether logs of address at blockNumber are in scope.
func (r *Registry) Watches(address common.Address, blockNumber uint64) bool {
	r.mu.RLock()
	from, ok := r.fromBlock[address]
	r.mu.RUnlock()
	return ok && blockNumber >= from
}

// Addresses returns the watched addresses in registration order.
func (r *Registry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}

// Strings returns the watched addresses as hex strings.
func (r *Registry) Strings() []string {
	addresses := r.Addresses()
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, address.Hex())
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
