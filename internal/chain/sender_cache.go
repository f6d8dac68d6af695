package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru"
)

// DefaultSenderCacheSize bounds the number of transaction senders kept in memory.
const DefaultSenderCacheSize = 10000

// senderCache is an LRU of transaction hash to sender.
type senderCache struct {
	cache *lru.Cache
}

func newSenderCache(size int) (*senderCache, error) {
	if size <= 0 {
		size = DefaultSenderCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("sender cache: %w", err)
	}
	return &senderCache{cache: cache}, nil
}

func (c *senderCache) get(txHash common.Hash) (common.Address, bool) {
	value, ok := c.cache.Get(txHash)
	if !ok {
		return common.Address{}, false
	}
	sender, ok := value.(common.Address)
	return sender, ok
}

func (c *senderCache) add(txHash common.Hash, sender common.Address) {
	c.cache.Add(txHash, sender)
}

func (c *senderCache) len() int {
	return c.cache.Len()
}
