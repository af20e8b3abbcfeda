package exclusions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Cache persists excluded video ids between runs as a JSON string array.
// Lifecycle is read-at-startup, rewritten after a fresh playlist fetch.
type Cache struct {
	path string
}

// NewCache creates a cache bound to path. The file need not exist yet.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Path returns the backing file path.
func (c *Cache) Path() string {
	return c.path
}

// Read loads the cached ids. A missing file is an empty cache, not an error.
func (c *Cache) Read() ([]string, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("corrupt id cache %s: %w", c.path, err)
	}
	return ids, nil
}

// Write replaces the cache contents atomically via a temp file rename.
func (c *Cache) Write(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, fs.FileMode(0o644)); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
