package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"algebraIndexer/internal/model"
)

// Config configures the kafka entity store.
type Config struct {
	Brokers     []string
	TopicPrefix string
}

// Store writes each record to a compacted topic per entity namespace,
// keyed by record id, so the latest message per key is the record.
type Store struct {
	writers map[string]*kafka.Writer
}

func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	writers := make(map[string]*kafka.Writer, 3)
	for _, entity := range []string{model.EntityPool, model.EntityCustomPool, model.EntitySwap} {
		writers[entity] = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        Topic(cfg.TopicPrefix, entity),
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		}
	}
	return &Store{writers: writers}, nil
}

func (s *Store) SetPool(ctx context.Context, pool model.Pool) error {
	return s.write(ctx, model.EntityPool, pool.ID, pool)
}

func (s *Store) SetCustomPool(ctx context.Context, pool model.CustomPool) error {
	return s.write(ctx, model.EntityCustomPool, pool.ID, pool)
}

func (s *Store) SetSwap(ctx context.Context, swap model.Swap) error {
	return s.write(ctx, model.EntitySwap, swap.ID, swap)
}

func (s *Store) write(ctx context.Context, entity, id string, record interface{}) error {
	writer, ok := s.writers[entity]
	if !ok {
		return fmt.Errorf("no writer for entity %s", entity)
	}
	msg, err := Message(id, record)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", entity, err)
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s %s: %w", entity, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	for _, writer := range s.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Topic returns the topic records of an entity namespace are written to.
func Topic(prefix, entity string) string {
	name := strings.ToLower(entity)
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Message encodes a record as a kafka message keyed by id.
func Message(id string, record interface{}) (kafka.Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(id), Value: payload}, nil
}
