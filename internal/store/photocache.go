package store

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jmallory/pica/internal/domain"
)

// cacheTTL bounds how long a stored photo list is served without a fresh
// fetch. Expiry is a freshness check, not a deletion; stale entries stay on
// disk until overwritten or cleared.
const cacheTTL = 5 * time.Minute

const cachePrefix = "photos:"

// cacheEntry stores one folder's snapshot with its fetch timestamp. The
// folder is stored redundantly so a mismatched read is never trusted.
type cacheEntry struct {
	Photos    []domain.Photo `json:"photos"`
	Folder    string         `json:"folder"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// PhotoCache implements domain.PhotoCache over a key-value backend.
type PhotoCache struct {
	backend domain.Backend
	logger  *slog.Logger
	now     func() time.Time
}

func NewPhotoCache(backend domain.Backend, logger *slog.Logger) *PhotoCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoCache{backend: backend, logger: logger, now: time.Now}
}

func (c *PhotoCache) Get(folder string) ([]domain.Photo, bool) {
	raw, ok := c.backend.Get(cachePrefix + folder)
	if !ok {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("failed to parse cache entry", "folder", folder, "error", err)
		return nil, false
	}
	if entry.Folder != folder {
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) >= cacheTTL {
		c.logger.Debug("cache entry expired", "folder", folder, "fetchedAt", entry.FetchedAt)
		return nil, false
	}
	return entry.Photos, true
}

func (c *PhotoCache) Put(photos []domain.Photo, folder string) {
	entry := cacheEntry{
		Photos:    photos,
		Folder:    folder,
		FetchedAt: c.now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("failed to marshal cache entry", "folder", folder, "error", err)
		return
	}
	if err := c.backend.Set(cachePrefix+folder, string(data)); err != nil {
		c.logger.Error("failed to write cache entry", "folder", folder, "error", err)
	}
}

func (c *PhotoCache) Clear(folder string) {
	if err := c.backend.Delete(cachePrefix + folder); err != nil {
		c.logger.Warn("failed to clear cache entry", "folder", folder, "error", err)
	}
}

func (c *PhotoCache) ClearAll() {
	if err := c.backend.DeletePrefix(cachePrefix); err != nil {
		c.logger.Warn("failed to clear cache", "error", err)
	}
}
