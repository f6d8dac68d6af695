package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"algebraIndexer/internal/model"
)

// Decoder decodes Algebra factory and pool logs into typed params.
type Decoder struct {
	factoryABI  abi.ABI
	poolABI     abi.ABI
	topicToName map[common.Hash]string
}

// NewDecoder builds a Decoder for the Algebra factory and pool events.
func NewDecoder() (*Decoder, error) {
	factory, err := AlgebraFactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	pool, err := AlgebraPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	return &Decoder{
		factoryABI: factory,
		poolABI:    pool,
		topicToName: map[common.Hash]string{
			factory.Events[EventPool].ID:       EventPool,
			factory.Events[EventCustomPool].ID: EventCustomPool,
			pool.Events[EventSwap].ID:          EventSwap,
		},
	}, nil
}

// FactoryTopics returns topic0 of every factory event the decoder handles.
func (d *Decoder) FactoryTopics() []common.Hash {
	return []common.Hash{
		d.factoryABI.Events[EventPool].ID,
		d.factoryABI.Events[EventCustomPool].ID,
	}
}

// PoolTopics returns topic0 of every pool event the decoder handles.
func (d *Decoder) PoolTopics() []common.Hash {
	return []common.Hash{d.poolABI.Events[EventSwap].ID}
}

// EventName resolves the event name of a log from its topic0.
func (d *Decoder) EventName(log types.Log) (string, error) {
	if len(log.Topics) == 0 {
		return "", fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[log.Topics[0]]
	if !ok {
		return "", fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}
	return name, nil
}

// DecodePool decodes a factory Pool log.
func (d *Decoder) DecodePool(log types.Log) (model.PoolCreatedParams, error) {
	event := d.factoryABI.Events[EventPool]
	if err := checkTopic0(event, log); err != nil {
		return model.PoolCreatedParams{}, err
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
	}
	if err := parseIndexed(event, log, &indexed); err != nil {
		return model.PoolCreatedParams{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.PoolCreatedParams{}, err
	}
	if len(values) != 1 {
		return model.PoolCreatedParams{}, fmt.Errorf("unexpected pool values: %d", len(values))
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return model.PoolCreatedParams{}, fmt.Errorf("pool: %w", err)
	}

	return model.PoolCreatedParams{
		Token0: indexed.Token0.Hex(),
		Token1: indexed.Token1.Hex(),
		Pool:   pool.Hex(),
	}, nil
}

// DecodeCustomPool decodes a factory CustomPool log.
func (d *Decoder) DecodeCustomPool(log types.Log) (model.CustomPoolParams, error) {
	event := d.factoryABI.Events[EventCustomPool]
	if err := checkTopic0(event, log); err != nil {
		return model.CustomPoolParams{}, err
	}

	var indexed struct {
		Deployer common.Address
		Token0   common.Address
		Token1   common.Address
	}
	if err := parseIndexed(event, log, &indexed); err != nil {
		return model.CustomPoolParams{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.CustomPoolParams{}, err
	}
	if len(values) != 1 {
		return model.CustomPoolParams{}, fmt.Errorf("unexpected custom pool values: %d", len(values))
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return model.CustomPoolParams{}, fmt.Errorf("pool: %w", err)
	}

	return model.CustomPoolParams{
		Deployer: indexed.Deployer.Hex(),
		Token0:   indexed.Token0.Hex(),
		Token1:   indexed.Token1.Hex(),
		Pool:     pool.Hex(),
	}, nil
}

// DecodeSwap decodes a pool Swap log.
func (d *Decoder) DecodeSwap(log types.Log) (model.SwapParams, error) {
	event := d.poolABI.Events[EventSwap]
	if err := checkTopic0(event, log); err != nil {
		return model.SwapParams{}, err
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := parseIndexed(event, log, &indexed); err != nil {
		return model.SwapParams{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapParams{}, err
	}
	if len(values) != 5 {
		return model.SwapParams{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return model.SwapParams{}, fmt.Errorf("amount0: %w", err)
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return model.SwapParams{}, fmt.Errorf("amount1: %w", err)
	}
	price, err := asBigInt(values[2])
	if err != nil {
		return model.SwapParams{}, fmt.Errorf("price: %w", err)
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return model.SwapParams{}, fmt.Errorf("liquidity: %w", err)
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return model.SwapParams{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.SwapParams{}, err
	}

	return model.SwapParams{
		Sender:    indexed.Sender.Hex(),
		Recipient: indexed.Recipient.Hex(),
		Amount0:   amount0,
		Amount1:   amount1,
		Price:     price,
		Liquidity: liquidity,
		Tick:      tick,
	}, nil
}

func checkTopic0(event abi.Event, log types.Log) error {
	if len(log.Topics) == 0 {
		return fmt.Errorf("missing topics")
	}
	if log.Topics[0] != event.ID {
		return fmt.Errorf("topic0 %s is not %s", log.Topics[0].Hex(), event.Name)
	}
	return nil
}

func parseIndexed(event abi.Event, log types.Log, out interface{}) error {
	indexedArgs := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexedArgs)+1 {
		return fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(log.Topics))
	}
	if err := abi.ParseTopics(out, indexedArgs, log.Topics[1:]); err != nil {
		return fmt.Errorf("parse topics: %w", err)
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, data []byte) ([]interface{}, error) {
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
