// Package store persists the access tables as JSON flat files.
//
// Every mutation is a full read-modify-write of one file, serialized by a
// per-table mutex and committed with a temp-file rename so a crash never
// leaves a half-written table behind.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/moby/sys/atomicwriter"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

const filePerm = 0o644

// Table is a keyed record table backed by a single JSON object file.
type Table[V any] struct {
	path string
	mu   sync.Mutex
}

func NewTable[V any](path string) *Table[V] {
	return &Table[V]{path: path}
}

func (t *Table[V]) Path() string {
	return t.path
}

// Load returns the whole table. A missing file is an empty table; content
// that is not a JSON object fails with domain.ErrStorageCorrupt.
func (t *Table[V]) Load(ctx context.Context) (map[string]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.load()
}

// Save replaces the whole table.
func (t *Table[V]) Save(ctx context.Context, records map[string]V) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.save(records)
}

// Update runs fn on the loaded table and saves the result, holding the table
// lock for the whole cycle. Nothing is written when fn returns an error.
func (t *Table[V]) Update(ctx context.Context, fn func(records map[string]V) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.load()
	if err != nil {
		return err
	}

	if err := fn(records); err != nil {
		return err
	}

	return t.save(records)
}

// Init writes seed when the file does not exist yet and reports whether it did.
// An existing file is never touched.
func (t *Table[V]) Init(ctx context.Context, seed map[string]V) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := os.Stat(t.path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, domain.ErrStorageUnavailable.WithError(fmt.Errorf("stat %s: %w", t.path, err))
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return false, domain.ErrStorageUnavailable.WithError(fmt.Errorf("create data dir: %w", err))
	}

	if seed == nil {
		seed = map[string]V{}
	}
	if err := t.save(seed); err != nil {
		return false, err
	}

	return true, nil
}

func (t *Table[V]) load() (map[string]V, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]V{}, nil
	}
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("read %s: %w", t.path, err))
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.ErrStorageCorrupt.WithError(fmt.Errorf("%s: expected a JSON object", t.path))
	}

	records := map[string]V{}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, domain.ErrStorageCorrupt.WithError(fmt.Errorf("decode %s: %w", t.path, err))
	}

	return records, nil
}

func (t *Table[V]) save(records map[string]V) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.path, err)
	}

	if err := atomicwriter.WriteFile(t.path, data, filePerm); err != nil {
		return domain.ErrStorageUnavailable.WithError(fmt.Errorf("write %s: %w", t.path, err))
	}

	return nil
}
