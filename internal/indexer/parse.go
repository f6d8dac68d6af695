package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ChunkAddresses splits addresses into groups of at most size.
func ChunkAddresses(addresses []common.Address, size int) [][]common.Address {
	if len(addresses) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(addresses)
	}
	chunks := make([][]common.Address, 0, (len(addresses)+size-1)/size)
	for start := 0; start < len(addresses); start += size {
		end := min(start+size, len(addresses))
		chunks = append(chunks, addresses[start:end])
	}
	return chunks
}
