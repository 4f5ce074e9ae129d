package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Store reads and writes the registry file. Writes are atomic (temp file
// plus rename) and serialized under an advisory lock, so a reader never
// observes a half-written file and concurrent load-mutate-save sequences do
// not interleave. The serialized form is stable: encoding/json emits map
// keys sorted, so saving an unchanged registry reproduces identical bytes.
type Store struct {
	// Path is the registry file location.
	Path string
}

// NewStore creates a store for the given registry file path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the persisted registry. A missing file yields an empty
// registry, not an error. A corrupt file also yields an empty registry,
// after a warning: everything appearing untested makes the gate deny, which
// is the safe direction to fail.
func (s *Store) Load() *Registry {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: read registry %s: %v (treating as empty)\n", s.Path, err)
		}
		return New()
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: parse registry %s: %v (treating as empty)\n", s.Path, err)
		return New()
	}
	if reg.Version > SchemaVersion {
		fmt.Fprintf(os.Stderr, "warning: registry %s has newer schema version %d (treating as empty)\n", s.Path, reg.Version)
		return New()
	}

	reg.Version = SchemaVersion
	if reg.Entities == nil {
		reg.Entities = map[string]*Entity{}
	}
	return &reg
}

// Save writes the full registry atomically: marshal, write to a temporary
// file in the same directory, fsync, then rename over the target. A crash
// mid-write never leaves a half-written registry. The write happens under
// the advisory lock.
func (s *Store) Save(reg *Registry) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	return s.writeLocked(reg)
}

// Mutate performs a load-mutate-save sequence as a single critical section:
// the advisory lock is held across the load and the save, so two concurrent
// mutations cannot lose each other's updates.
func (s *Store) Mutate(fn func(*Registry) error) (*Registry, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg := s.Load()
	if err := fn(reg); err != nil {
		return nil, err
	}
	if err := s.writeLocked(reg); err != nil {
		return reg, err
	}
	return reg, nil
}

// writeLocked writes the registry file. Callers hold the advisory lock.
func (s *Store) writeLocked(reg *Registry) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("rename registry into place: %w", err)
	}

	success = true
	return nil
}

// lock acquires an exclusive advisory lock on a sidecar lock file and
// returns the release function. The lock file, not the registry itself, is
// locked because the registry inode changes on every atomic rename.
func (s *Store) lock() (func(), error) {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}

	f, err := os.OpenFile(s.Path+".lock", os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close() //nolint:errcheck // cleanup in error path
		return nil, fmt.Errorf("lock registry: %w", err)
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck // unlock best-effort
		_ = f.Close()                                   //nolint:errcheck // unlock best-effort
	}, nil
}
