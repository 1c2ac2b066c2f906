package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps each collection in <dir>/<collection>.json.
//
// Individual Load and Save calls on the same collection are serialized. A
// caller's load-modify-save sequence is not: two concurrent writers can both
// load the same state and the later Save wins.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrIO, err)
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Path returns the file backing collection.
func (s *FileStore) Path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStore) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

// Load reads the collection file. A missing file is an empty collection.
// The context is not consulted: once started, the read runs to completion.
func (s *FileStore) Load(_ context.Context, collection string) ([]json.RawMessage, error) {
	if err := validName(collection); err != nil {
		return nil, err
	}
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(s.Path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, collection, err)
	}
	return decode(collection, data)
}

// Save replaces the collection file atomically.
func (s *FileStore) Save(_ context.Context, collection string, records []json.RawMessage) error {
	if err := validName(collection); err != nil {
		return err
	}
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	data = append(data, '\n')

	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()
	return writeFileAtomic(s.Path(collection), data)
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIO, err)
	}
	tmp := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: write temp file: %v", ErrIO, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: sync temp file: %v", ErrIO, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close temp file: %v", ErrIO, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: chmod temp file: %v", ErrIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename into place: %v", ErrIO, err)
	}

	// Best effort: make the rename itself durable.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

func validName(collection string) error {
	if collection == "" || strings.ContainsAny(collection, `/\`) || collection == "." || collection == ".." {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}
