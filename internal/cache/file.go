package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/swapdesk/internal/fileutil"
)

const (
	// cacheFilePermissions is the permission mode for cache files.
	cacheFilePermissions = 0o640

	// maxAge bounds how long entries survive a save.
	maxAge = 7 * 24 * time.Hour
)

// ErrCorruptCache indicates the cache file is malformed JSON.
var ErrCorruptCache = errors.New("cache file is corrupted")

// Path returns the holdings cache location under home.
func Path(home string) string {
	return filepath.Join(home, "cache", "holdings.json")
}

// FileStorage persists a HoldingsCache as JSON.
type FileStorage struct {
	path string
}

// NewFileStorage creates storage backed by path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Save prunes expired entries and writes the cache atomically.
func (s *FileStorage) Save(c *HoldingsCache) error {
	c.Prune(maxAge)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := fileutil.WriteJSON(s.path, c, cacheFilePermissions); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cache. A missing file yields an empty cache. A corrupt
// file is moved aside and an empty cache is returned with ErrCorruptCache.
func (s *FileStorage) Load() (*HoldingsCache, error) {
	c := New()
	found, err := fileutil.ReadJSON(s.path, c)
	if err == nil {
		if c.Entries == nil {
			c.Entries = make(map[string]HoldingsEntry)
		}
		return c, nil
	}
	if !found {
		return New(), fmt.Errorf("reading cache file: %w", err)
	}

	corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
	if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
		return New(), fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptCache, err, renameErr)
	}
	return New(), fmt.Errorf("%w: %w (moved to %s)", ErrCorruptCache, err, corruptPath)
}

// Delete removes the cache file.
func (s *FileStorage) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
