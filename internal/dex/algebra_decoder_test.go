package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestDecoderSwap(t *testing.T) {
	poolABI, err := AlgebraPoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := poolABI.Events[EventSwap].Inputs.NonIndexed().Pack(
		big.NewInt(-1000),
		big.NewInt(2000),
		big.NewInt(123456789),
		big.NewInt(987654321),
		big.NewInt(-15),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	log := buildLog(pool, poolABI.Events[EventSwap].ID, data, []common.Hash{
		topicFromAddress(sender),
		topicFromAddress(recipient),
	})

	name, err := decoder.EventName(log)
	if err != nil || name != EventSwap {
		t.Fatalf("event name mismatch: %q %v", name, err)
	}

	swap, err := decoder.DecodeSwap(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	if swap.Amount0.String() != "-1000" || swap.Amount1.String() != "2000" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.Price.String() != "123456789" || swap.Liquidity.String() != "987654321" {
		t.Fatalf("price/liquidity mismatch: %+v", swap)
	}
	if swap.Tick != -15 {
		t.Fatalf("tick mismatch: %d", swap.Tick)
	}
	if swap.Sender != sender.Hex() || swap.Recipient != recipient.Hex() {
		t.Fatalf("address mismatch")
	}
}

func TestDecoderPoolAndCustomPool(t *testing.T) {
	factoryABI, err := AlgebraFactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	factory := common.HexToAddress("0x9999999999999999999999999999999999999999")
	deployer := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	pool := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	poolData, err := factoryABI.Events[EventPool].Inputs.NonIndexed().Pack(pool)
	if err != nil {
		t.Fatalf("pack pool: %v", err)
	}
	poolLog := buildLog(factory, factoryABI.Events[EventPool].ID, poolData, []common.Hash{
		topicFromAddress(token0),
		topicFromAddress(token1),
	})

	created, err := decoder.DecodePool(poolLog)
	if err != nil {
		t.Fatalf("decode pool: %v", err)
	}
	if created.Token0 != token0.Hex() || created.Token1 != token1.Hex() || created.Pool != pool.Hex() {
		t.Fatalf("pool mismatch: %+v", created)
	}

	customLog := buildLog(factory, factoryABI.Events[EventCustomPool].ID, poolData, []common.Hash{
		topicFromAddress(deployer),
		topicFromAddress(token0),
		topicFromAddress(token1),
	})

	custom, err := decoder.DecodeCustomPool(customLog)
	if err != nil {
		t.Fatalf("decode custom pool: %v", err)
	}
	if custom.Deployer != deployer.Hex() || custom.Pool != pool.Hex() {
		t.Fatalf("custom pool mismatch: %+v", custom)
	}

	if _, err := decoder.DecodeSwap(poolLog); err == nil {
		t.Fatalf("expected topic0 mismatch error")
	}
}

func TestDecoderRejectsMalformedLogs(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	if _, err := decoder.EventName(types.Log{}); err == nil {
		t.Fatalf("expected error for missing topics")
	}

	unknown := types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}
	if _, err := decoder.EventName(unknown); err == nil {
		t.Fatalf("expected error for unknown topic0")
	}

	poolABI, err := AlgebraPoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	short := types.Log{Topics: []common.Hash{poolABI.Events[EventSwap].ID}}
	if _, err := decoder.DecodeSwap(short); err == nil {
		t.Fatalf("expected error for missing indexed topics")
	}

	truncated := buildLog(common.Address{}, poolABI.Events[EventSwap].ID, []byte{0x01}, []common.Hash{{}, {}})
	if _, err := decoder.DecodeSwap(truncated); err == nil {
		t.Fatalf("expected error for truncated data")
	}
}

func TestDecoderTopics(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if len(decoder.FactoryTopics()) != 2 || len(decoder.PoolTopics()) != 1 {
		t.Fatalf("unexpected topic sets")
	}
	for _, topic := range append(decoder.FactoryTopics(), decoder.PoolTopics()...) {
		if _, err := decoder.EventName(types.Log{Topics: []common.Hash{topic}}); err != nil {
			t.Fatalf("topic %s should resolve: %v", topic.Hex(), err)
		}
	}
}

func TestInt24FromBig(t *testing.T) {
	if _, err := int24FromBig(big.NewInt(1 << 23)); err == nil {
		t.Fatalf("expected overflow error")
	}
	v, err := int24FromBig(big.NewInt(-(1 << 23)))
	if err != nil || v != -(1 << 23) {
		t.Fatalf("min int24 mismatch: %d %v", v, err)
	}
}

func buildLog(address common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) types.Log {
	topics := make([]common.Hash, 0, len(indexed)+1)
	topics = append(topics, topic0)
	topics = append(topics, indexed...)

	return types.Log{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: 12345,
		TxHash:      common.HexToHash("0xdef"),
		Index:       1,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
