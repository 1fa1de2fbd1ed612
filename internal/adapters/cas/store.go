// Package cas implements the content-addressed store of materialized environments.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

const envFileExt = ".json"

// Store implements ports.EnvironmentStore with one JSON file per environment ID.
// Writers in different processes are serialized with a lock file in the store directory.
type Store struct {
	mu    sync.RWMutex
	cache map[string]domain.Environment
}

var _ ports.EnvironmentStore = (*Store)(nil)

// NewStore creates a new EnvironmentStore.
func NewStore() *Store {
	return &Store{
		cache: make(map[string]domain.Environment),
	}
}

// Get retrieves the environment with the given ID below root.
// Returns nil, nil if it has not been stored.
func (s *Store) Get(root, id string) (*domain.Environment, error) {
	path := envPath(root, id)

	s.mu.RLock()
	env, ok := s.cache[path]
	s.mu.RUnlock()
	if ok {
		return cloneEnv(&env), nil
	}

	dir := domain.EnvCachePath(root)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	lock := flock.New(filepath.Join(dir, domain.LockFileName))
	if err := lock.RLock(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreLockFailed.Error()), "path", dir)
	}
	defer func() { _ = lock.Unlock() }()

	//nolint:gosec // Path is built from the cache root and an environment ID
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", path)
	}

	var stored domain.Environment
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", path)
	}
	if stored.ID != id {
		return nil, nil
	}

	s.mu.Lock()
	s.cache[path] = stored
	s.mu.Unlock()

	return cloneEnv(&stored), nil
}

// Put stores env below root, replacing any environment with the same ID.
func (s *Store) Put(root string, env *domain.Environment) error {
	dir := domain.EnvCachePath(root)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", dir)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	lock := flock.New(filepath.Join(dir, domain.LockFileName))
	if err := lock.Lock(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreLockFailed.Error()), "path", dir)
	}
	defer func() { _ = lock.Unlock() }()

	path := envPath(root, env.ID)
	if err := atomicWriteFile(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	s.mu.Lock()
	s.cache[path] = *cloneEnv(env)
	s.mu.Unlock()

	return nil
}

// Clear removes every stored environment below root.
func (s *Store) Clear(root string) error {
	dir := domain.EnvCachePath(root)

	s.mu.Lock()
	for path := range s.cache {
		if filepath.Dir(path) == dir {
			delete(s.cache, path)
		}
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", dir)
	}

	lock := flock.New(filepath.Join(dir, domain.LockFileName))
	if err := lock.Lock(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreLockFailed.Error()), "path", dir)
	}
	defer func() { _ = lock.Unlock() }()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), envFileExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
		}
	}

	return nil
}

func envPath(root, id string) string {
	return filepath.Join(domain.EnvCachePath(root), id+envFileExt)
}

func cloneEnv(env *domain.Environment) *domain.Environment {
	out := *env
	out.Vars = append([]string(nil), env.Vars...)
	return &out
}

// atomicWriteFile writes data to a temp file next to path and renames it into place.
func atomicWriteFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "env-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
