package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/models"
)

// DirectionsCacheFileName is the cache file kept in the app directory
const DirectionsCacheFileName = "directions_cache.json"

// fileDirectionsCacheData is the on-disk layout
type fileDirectionsCacheData struct {
	Entries []models.DirectionsCacheEntry `json:"entries"`
}

// FileDirectionsCache is a JSON-file DirectionsCacheRepository for single-process use
// such as the CLI. Every write rewrites the file atomically.
type FileDirectionsCache struct {
	filePath string
	data     fileDirectionsCacheData
	index    map[string]int // waypoint key to position in data.Entries
	mu       sync.RWMutex
}

var _ DirectionsCacheRepository = (*FileDirectionsCache)(nil)

// NewFileDirectionsCache opens the cache at path, creating it when missing. An empty path
// uses ~/.staff-ride-router/directions_cache.json.
func NewFileDirectionsCache(path string) (*FileDirectionsCache, error) {
	if path == "" {
		appDir, err := GetAppDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get cache file path: %w", err)
		}
		path = filepath.Join(appDir, DirectionsCacheFileName)
	}

	c := &FileDirectionsCache{
		filePath: path,
		index:    make(map[string]int),
	}
	if err := c.load(); err != nil {
		return nil, err
	}

	log.Debug().Str("component", "store").Str("path", path).Int("entries", len(c.data.Entries)).Msg("directions cache loaded")
	return c, nil
}

func (c *FileDirectionsCache) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.filePath)
	if errors.Is(err, os.ErrNotExist) {
		c.data = fileDirectionsCacheData{Entries: []models.DirectionsCacheEntry{}}
		return c.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}

	c.rebuildIndex()
	return nil
}

func (c *FileDirectionsCache) saveUnlocked() error {
	raw, err := json.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tmpFile := c.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tmpFile, c.filePath); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}

// Get returns a copy of the cached entry, or nil when the waypoints were never stored
func (c *FileDirectionsCache) Get(ctx context.Context, waypoints []models.Coordinates) (*models.DirectionsCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.index[DirectionsCacheKey(waypoints)]
	if !ok {
		return nil, nil
	}
	entry := c.data.Entries[idx]
	return &entry, nil
}

// Set stores or replaces the entry for its waypoints
func (c *FileDirectionsCache) Set(ctx context.Context, entry *models.DirectionsCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := DirectionsCacheKey(entry.Waypoints)
	if idx, ok := c.index[key]; ok {
		c.data.Entries[idx] = *entry
		return c.saveUnlocked()
	}

	c.data.Entries = append(c.data.Entries, *entry)
	c.index[key] = len(c.data.Entries) - 1
	return c.saveUnlocked()
}

// Clear removes every entry
func (c *FileDirectionsCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Entries = []models.DirectionsCacheEntry{}
	c.index = make(map[string]int)
	return c.saveUnlocked()
}

// Len returns the number of cached entries
func (c *FileDirectionsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data.Entries)
}

// rebuildIndex must be called with the mutex held
func (c *FileDirectionsCache) rebuildIndex() {
	if c.data.Entries == nil {
		c.data.Entries = []models.DirectionsCacheEntry{}
	}
	c.index = make(map[string]int, len(c.data.Entries))
	for i := range c.data.Entries {
		c.index[DirectionsCacheKey(c.data.Entries[i].Waypoints)] = i
	}
}
