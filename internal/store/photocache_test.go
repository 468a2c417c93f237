package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/log"
)

func testPhotos() []domain.Photo {
	return []domain.Photo{
		{PublicID: "photos/sunset", URL: "https://cdn.example/sunset.jpg", Description: "sunset over the bay", Tags: []string{"sunset", "beach"}, Width: 1920, Height: 1080, Format: "jpg"},
		{PublicID: "photos/dog", URL: "https://cdn.example/dog.jpg", Tags: []string{"dog"}, Width: 800, Height: 600, Format: "png"},
	}
}

func newTestCache(t *testing.T) (*PhotoCache, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	return NewPhotoCache(backend, log.NullLogger()), backend
}

func TestPhotoCache_PutThenGetRoundTrips(t *testing.T) {
	cache, _ := newTestCache(t)
	photos := testPhotos()

	cache.Put(photos, "photos")

	got, ok := cache.Get("photos")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, photos[0].PublicID, got[0].PublicID)
	assert.Equal(t, photos[0].Tags, got[0].Tags)
	assert.Equal(t, photos[1].Width, got[1].Width)
}

func TestPhotoCache_MissWhenEmpty(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok := cache.Get("photos")
	assert.False(t, ok)
}

func TestPhotoCache_FreshnessBoundary(t *testing.T) {
	cache, _ := newTestCache(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	cache.now = func() time.Time { return now }

	cache.Put(testPhotos(), "photos")

	// One millisecond short of the TTL is still a hit.
	now = base.Add(cacheTTL - time.Millisecond)
	_, ok := cache.Get("photos")
	assert.True(t, ok, "entry aged TTL-1ms should be fresh")

	// At exactly the TTL the entry is stale.
	now = base.Add(cacheTTL)
	_, ok = cache.Get("photos")
	assert.False(t, ok, "entry aged TTL should be a miss")
}

func TestPhotoCache_FolderIsolation(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.Put(testPhotos(), "vacation")

	_, ok := cache.Get("work")
	assert.False(t, ok, "entry for one folder must never serve another")

	got, ok := cache.Get("vacation")
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestPhotoCache_PutOverwrites(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.Put(testPhotos(), "photos")
	cache.Put(testPhotos()[:1], "photos")

	got, ok := cache.Get("photos")
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestPhotoCache_ClearIsFolderScoped(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.Put(testPhotos(), "a")
	cache.Put(testPhotos(), "b")

	cache.Clear("a")

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.True(t, ok)
}

func TestPhotoCache_ClearAllRemovesEveryFolder(t *testing.T) {
	cache, backend := newTestCache(t)

	cache.Put(testPhotos(), "a")
	cache.Put(testPhotos(), "b")

	// An unrelated key in the shared backend must survive.
	require.NoError(t, backend.Set("credentials:display", "{}"))

	cache.ClearAll()

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.False(t, ok)

	_, ok = backend.Get("credentials:display")
	assert.True(t, ok, "clear must only touch the cache's own namespace")
}

func TestPhotoCache_CorruptEntryDegradesToMiss(t *testing.T) {
	cache, backend := newTestCache(t)

	require.NoError(t, backend.Set(cachePrefix+"photos", "{not json"))

	_, ok := cache.Get("photos")
	assert.False(t, ok)
}
