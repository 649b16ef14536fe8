package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/ragcore/internal/db"
)

// ErrArtifactNotFound is returned by Storage.Read for an absent artifact.
var ErrArtifactNotFound = errors.New("snapshot artifact not found")

// Storage reads and writes named artifacts as opaque bytes.
type Storage interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

// DirStorage keeps artifacts as files under a directory.
type DirStorage struct {
	dir string
}

// NewDirStorage creates a directory-backed storage. The directory is created on first write.
func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{dir: dir}
}

// Dir returns the storage directory.
func (s *DirStorage) Dir() string { return s.dir }

// Read returns the artifact contents.
func (s *DirStorage) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the artifact atomically via a temp file and rename.
func (s *DirStorage) Write(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// kvStore is the consumer interface for KV-backed snapshots (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KVStorage keeps artifacts under prefixed keys of a KV store (redis, valkey, sqlite).
type KVStorage struct {
	kv     kvStore
	prefix string
}

// NewKVStorage creates KV-backed storage. Keys are prefix + artifact name.
func NewKVStorage(kv kvStore, prefix string) *KVStorage {
	return &KVStorage{kv: kv, prefix: prefix}
}

// Read returns the artifact contents.
func (s *KVStorage) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.kv.Get(ctx, s.prefix+name)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return data, nil
}

// Write stores the artifact.
func (s *KVStorage) Write(ctx context.Context, name string, data []byte) error {
	if err := s.kv.Set(ctx, s.prefix+name, data); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}
