package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"algebraIndexer/internal/model"
	"algebraIndexer/internal/storage"
)

type entry struct {
	Entity string          `json:"entity"`
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record"`
}

// location is where the latest journal line for an id starts, and its length
// without the trailing newline.
type location struct {
	offset int64
	length int
}

// Store journals every set as a JSON line. On open the journal is scanned
// into an index of id -> line location, so memory grows with the number of
// distinct ids rather than record size. Reads go to the file and the last
// line for an id wins.
type Store struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	file  *os.File
	size  int64
	index map[string]map[string]location
}

// Open replays the journal at path, creating it if missing. A final line cut
// short by a crash is dropped and the file truncated back to the last full line.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	s := &Store{
		path:   path,
		logger: logger,
		index: map[string]map[string]location{
			model.EntityPool:       {},
			model.EntityCustomPool: {},
			model.EntitySwap:       {},
		},
	}
	needNewline, err := s.replay()
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	if needNewline {
		if _, err := file.Write([]byte{'\n'}); err != nil {
			file.Close()
			return nil, fmt.Errorf("terminate last line: %w", err)
		}
		s.size++
	}
	s.file = file
	return s, nil
}

// replay indexes the journal. It reports whether the last line is complete
// but lacks its newline.
func (s *Store) replay() (bool, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 64*1024)
	var offset int64
	for lineNo := 1; ; lineNo++ {
		raw, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return false, fmt.Errorf("read journal: %w", readErr)
		}
		if len(raw) == 0 {
			break
		}
		terminated := raw[len(raw)-1] == '\n'

		line := bytes.TrimRight(raw, "\r\n")
		if len(bytes.TrimSpace(line)) > 0 {
			var e entry
			if err := json.Unmarshal(line, &e); err != nil {
				if _, peekErr := reader.Peek(1); errors.Is(peekErr, io.EOF) {
					return false, s.dropTornLine(offset, lineNo, err)
				}
				return false, fmt.Errorf("journal line %d: %w", lineNo, err)
			}
			idx, ok := s.index[e.Entity]
			if !ok {
				return false, fmt.Errorf("journal line %d: unknown entity %q", lineNo, e.Entity)
			}
			idx[e.ID] = location{offset: offset, length: len(line)}
		}

		offset += int64(len(raw))
		if !terminated {
			s.size = offset
			return true, nil
		}
	}
	s.size = offset
	return false, nil
}

func (s *Store) dropTornLine(offset int64, lineNo int, cause error) error {
	s.logger.Warn("drop torn journal line",
		zap.String("path", s.path),
		zap.Int("line", lineNo),
		zap.Int64("offset", offset),
		zap.Error(cause),
	)
	if err := os.Truncate(s.path, offset); err != nil {
		return fmt.Errorf("truncate journal: %w", err)
	}
	s.size = offset
	return nil
}

func (s *Store) append(entity, id string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", entity, err)
	}
	line, err := json.Marshal(entry{Entity: entity, ID: id, Record: raw})
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("journal is closed")
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	s.index[entity][id] = location{offset: s.size, length: len(line)}
	s.size += int64(len(line)) + 1
	return nil
}

func (s *Store) SetPool(ctx context.Context, pool model.Pool) error {
	return s.append(model.EntityPool, pool.ID, pool)
}

func (s *Store) SetCustomPool(ctx context.Context, pool model.CustomPool) error {
	return s.append(model.EntityCustomPool, pool.ID, pool)
}

func (s *Store) SetSwap(ctx context.Context, swap model.Swap) error {
	return s.append(model.EntitySwap, swap.ID, swap)
}

func (s *Store) GetPool(id string) (model.Pool, error) {
	var pool model.Pool
	err := s.load(model.EntityPool, id, &pool)
	return pool, err
}

func (s *Store) GetCustomPool(id string) (model.CustomPool, error) {
	var pool model.CustomPool
	err := s.load(model.EntityCustomPool, id, &pool)
	return pool, err
}

func (s *Store) GetSwap(id string) (model.Swap, error) {
	var swap model.Swap
	err := s.load(model.EntitySwap, id, &swap)
	return swap, err
}

// Len returns the number of distinct ids indexed for an entity namespace.
func (s *Store) Len(entity string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index[entity])
}

func (s *Store) load(entity, id string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.index[entity][id]
	if !ok {
		return storage.ErrNotFound
	}
	if s.file == nil {
		return fmt.Errorf("journal is closed")
	}

	buf := make([]byte, loc.length)
	if _, err := s.file.ReadAt(buf, loc.offset); err != nil {
		return fmt.Errorf("read %s %s: %w", entity, id, err)
	}
	var e entry
	if err := json.Unmarshal(buf, &e); err != nil {
		return fmt.Errorf("decode %s %s: %w", entity, id, err)
	}
	if err := json.Unmarshal(e.Record, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", entity, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
