package gallery_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/gallery"
	"github.com/jmallory/pica/internal/log"
	"github.com/jmallory/pica/internal/store"
)

// fakeGateway implements domain.MediaGateway with call counters and
// programmable results.
type fakeGateway struct {
	mu          sync.Mutex
	searchCalls int
	updateCalls int
	deleteCalls int

	photos    []domain.Photo
	searchErr error
	updateErr error
	deleteErr error

	// When non-nil, Search blocks until the channel is closed. Lets tests
	// pin down the ordering of background reconciliation.
	searchGate chan struct{}

	lastFolder string
	lastTags   []string
}

func (f *fakeGateway) Search(ctx context.Context, folder string, display domain.DisplayCredentials, secret domain.SecretCredentials) ([]domain.Photo, error) {
	f.mu.Lock()
	gate := f.searchGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastFolder = folder
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]domain.Photo, len(f.photos))
	copy(out, f.photos)
	return out, nil
}

func (f *fakeGateway) Upload(ctx context.Context, r io.Reader, filename string, display domain.DisplayCredentials) (*domain.UploadResult, error) {
	panic("not used")
}

func (f *fakeGateway) UpdateMetadata(ctx context.Context, publicID, description string, tags []string, display domain.DisplayCredentials, secret domain.SecretCredentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastTags = tags
	return f.updateErr
}

func (f *fakeGateway) Delete(ctx context.Context, publicID string, display domain.DisplayCredentials, secret domain.SecretCredentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeGateway) setSearch(photos []domain.Photo, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = photos
	f.searchErr = err
}

// chanObserver forwards refresh events to a channel for synchronization.
type chanObserver struct {
	ch chan domain.RefreshEvent
}

func newChanObserver() *chanObserver {
	return &chanObserver{ch: make(chan domain.RefreshEvent, 4)}
}

func (o *chanObserver) OnRefresh(event domain.RefreshEvent) { o.ch <- event }

func (o *chanObserver) wait(t *testing.T) domain.RefreshEvent {
	t.Helper()
	select {
	case event := <-o.ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for background refresh")
		return domain.RefreshEvent{}
	}
}

type fixture struct {
	gateway  *fakeGateway
	creds    *store.Credentials
	cache    *store.PhotoCache
	observer *chanObserver
	svc      *gallery.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gateway := &fakeGateway{}
	creds := store.NewCredentials(store.NewMemoryBackend(), store.NewMemoryBackend(), func() bool { return true }, log.NullLogger())
	cache := store.NewPhotoCache(store.NewMemoryBackend(), log.NullLogger())
	observer := newChanObserver()
	svc := gallery.NewService(gateway, creds, cache, observer, log.NullLogger())
	return &fixture{gateway: gateway, creds: creds, cache: cache, observer: observer, svc: svc}
}

func (f *fixture) configure(t *testing.T, folder string) {
	t.Helper()
	require.NoError(t, f.creds.SaveDisplayCredentials(domain.DisplayCredentials{
		CloudName:    "demo",
		UploadPreset: "unsigned",
		Folder:       folder,
	}))
	require.NoError(t, f.creds.SaveSecretCredentials(domain.SecretCredentials{
		APIKey:    "key123",
		APISecret: "sec456",
	}))
}

func galleryPhotos() []domain.Photo {
	return []domain.Photo{
		{PublicID: "vacation/beach", URL: "https://cdn.example/beach.jpg", Description: "the beach"},
		{PublicID: "vacation/pier", URL: "https://cdn.example/pier.jpg"},
	}
}

func TestService_LoadGatesOnMissingDisplayCredentials(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Load(context.Background(), true)
	require.ErrorIs(t, err, domain.ErrConfigMissing)

	assert.Equal(t, gallery.StateCredentialGate, f.svc.State())
	assert.Equal(t, gallery.GateDisplayMissing, f.svc.Gate())
	assert.Equal(t, 0, f.gateway.calls(), "no network call before the credential gate")
}

func TestService_LoadGatesOnMissingSecretCredentials(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.creds.SaveDisplayCredentials(domain.DisplayCredentials{
		CloudName:    "demo",
		UploadPreset: "unsigned",
	}))

	err := f.svc.Load(context.Background(), true)
	require.ErrorIs(t, err, domain.ErrSecretMissing)

	assert.Equal(t, gallery.StateCredentialGate, f.svc.State())
	assert.Equal(t, gallery.GateSecretMissing, f.svc.Gate(), "secret-missing must be distinguishable from display-missing")
	assert.Equal(t, 0, f.gateway.calls())
}

func TestService_LoadCacheMissFetchesSynchronously(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")
	f.gateway.setSearch(galleryPhotos(), nil)

	require.NoError(t, f.svc.Load(context.Background(), true))

	assert.Equal(t, gallery.StateLoaded, f.svc.State())
	assert.Len(t, f.svc.Photos(), 2)
	assert.Equal(t, "vacation", f.svc.Folder())
	assert.Equal(t, 1, f.gateway.calls())

	cached, ok := f.cache.Get("vacation")
	require.True(t, ok, "successful fetch populates the cache")
	assert.Len(t, cached, 2)
}

func TestService_LoadFailureSurfacesError(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")
	f.gateway.setSearch(nil, errors.New("boom"))

	err := f.svc.Load(context.Background(), true)
	require.Error(t, err)

	assert.Equal(t, gallery.StateFailed, f.svc.State())
	assert.EqualError(t, f.svc.Err(), "boom")
	assert.Empty(t, f.svc.Photos())
}

func TestService_LoadCacheHitServesImmediatelyThenReconciles(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")

	stale := galleryPhotos()[:1]
	f.cache.Put(stale, "vacation")

	fresh := galleryPhotos()
	f.gateway.setSearch(fresh, nil)
	gate := make(chan struct{})
	f.gateway.searchGate = gate

	require.NoError(t, f.svc.Load(context.Background(), true))

	// Served from cache before the network answered.
	assert.Equal(t, gallery.StateLoaded, f.svc.State())
	assert.Len(t, f.svc.Photos(), 1)

	close(gate)
	event := f.observer.wait(t)
	require.NoError(t, event.Err)
	assert.Equal(t, 2, event.Count)

	// Reconciled list and cache both reflect the fresh fetch.
	assert.Len(t, f.svc.Photos(), 2)
	cached, ok := f.cache.Get("vacation")
	require.True(t, ok)
	assert.Len(t, cached, 2)
	assert.Equal(t, 1, f.gateway.calls(), "cache hit means only the background fetch touches the network")
}

func TestService_BackgroundFailureKeepsStaleList(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")

	stale := galleryPhotos()
	f.cache.Put(stale, "vacation")
	f.gateway.setSearch(nil, domain.ErrGatewayOffline)

	require.NoError(t, f.svc.Load(context.Background(), true))

	event := f.observer.wait(t)
	require.ErrorIs(t, event.Err, domain.ErrGatewayOffline)

	// The stale list stays; no error is surfaced on the loader.
	assert.Equal(t, gallery.StateLoaded, f.svc.State())
	assert.NoError(t, f.svc.Err())
	assert.Len(t, f.svc.Photos(), 2)
}

func TestService_LoadWithoutCacheSkipsFreshEntry(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")

	f.cache.Put(galleryPhotos()[:1], "vacation")
	f.gateway.setSearch(galleryPhotos(), nil)

	require.NoError(t, f.svc.Load(context.Background(), false))

	assert.Len(t, f.svc.Photos(), 2)
	assert.Equal(t, 1, f.gateway.calls())
}

func TestService_RefreshClearsEveryFolder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "a")

	f.cache.Put(galleryPhotos(), "a")
	f.cache.Put(galleryPhotos(), "b")
	f.gateway.setSearch(galleryPhotos(), nil)

	require.NoError(t, f.svc.Refresh(context.Background()))

	// Exactly one synchronous fetch, for the current folder.
	assert.Equal(t, 1, f.gateway.calls())
	assert.Equal(t, "a", f.gateway.lastFolder)

	// The other folder's entry is gone, not just the current one's.
	_, ok := f.cache.Get("b")
	assert.False(t, ok)

	// The current folder was re-cached by the fetch that followed the wipe.
	cached, ok := f.cache.Get("a")
	require.True(t, ok)
	assert.Len(t, cached, 2)
}

func TestService_RefreshWipePrecedesFetch(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "a")

	f.cache.Put(galleryPhotos(), "a")
	f.cache.Put(galleryPhotos(), "b")
	f.gateway.setSearch(nil, errors.New("boom"))

	require.Error(t, f.svc.Refresh(context.Background()))

	// A failed fetch leaves nothing behind: both entries were wiped first.
	_, ok := f.cache.Get("a")
	assert.False(t, ok)
	_, ok = f.cache.Get("b")
	assert.False(t, ok)
}

func TestService_UpdatePhotoAppliesLocallyAndWritesThrough(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")
	f.gateway.setSearch(galleryPhotos(), nil)
	require.NoError(t, f.svc.Load(context.Background(), false))

	photo := f.svc.Photos()[0]
	updated, err := f.svc.UpdatePhoto(context.Background(), photo, "new caption", []string{"beach", "beach", " sunset "})
	require.NoError(t, err)

	assert.Equal(t, "new caption", updated.Description)
	assert.Equal(t, []string{"beach", "sunset"}, updated.Tags)

	got := f.svc.Photos()[0]
	assert.Equal(t, "new caption", got.Description)
	assert.Equal(t, []string{"beach", "sunset"}, f.gateway.lastTags)
}

func TestService_UpdatePhotoWriteThroughFailureKeepsLocalEdit(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")
	f.gateway.setSearch(galleryPhotos(), nil)
	require.NoError(t, f.svc.Load(context.Background(), false))

	f.gateway.updateErr = errors.New("server said no")

	photo := f.svc.Photos()[0]
	updated, err := f.svc.UpdatePhoto(context.Background(), photo, "optimistic", nil)
	require.Error(t, err)

	assert.Equal(t, "optimistic", updated.Description)
	assert.Equal(t, "optimistic", f.svc.Photos()[0].Description, "local edit survives a failed write-through")
}

func TestService_DeleteRemovesPhotoAndInvalidatesFolder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")
	f.gateway.setSearch(galleryPhotos(), nil)
	require.NoError(t, f.svc.Load(context.Background(), false))

	photo := f.svc.Photos()[0]
	require.NoError(t, f.svc.Delete(context.Background(), photo))

	photos := f.svc.Photos()
	require.Len(t, photos, 1)
	assert.NotEqual(t, photo.Key(), photos[0].Key())

	_, ok := f.cache.Get("vacation")
	assert.False(t, ok, "delete invalidates the folder's cache entry")
}

func TestService_DeleteFailureLeavesListUntouched(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "vacation")
	f.gateway.setSearch(galleryPhotos(), nil)
	require.NoError(t, f.svc.Load(context.Background(), false))

	f.gateway.deleteErr = errors.New("nope")

	err := f.svc.Delete(context.Background(), f.svc.Photos()[0])
	require.Error(t, err)
	assert.Len(t, f.svc.Photos(), 2)
}

func TestService_DefaultFolderWhenUnset(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "")
	f.gateway.setSearch(nil, nil)

	require.NoError(t, f.svc.Load(context.Background(), false))
	assert.Equal(t, domain.DefaultFolder, f.gateway.lastFolder)
}
