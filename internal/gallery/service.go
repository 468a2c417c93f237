package gallery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmallory/pica/internal/domain"
)

// State is the loader's public lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateCredentialGate
	StateFailed
)

// GateReason distinguishes which credential tier blocked the load. The
// remediation differs (run setup vs enter the API pair), so callers need to
// tell the two apart.
type GateReason int

const (
	GateNone GateReason = iota
	GateDisplayMissing
	GateSecretMissing
)

// Service orchestrates the credential store, photo cache, and gateway into
// stale-while-revalidate gallery loading. One Service serves one gallery
// view; overlapping Load calls are not coalesced, the caller guards
// concurrent triggers.
type Service struct {
	gateway  domain.MediaGateway
	creds    domain.CredentialStore
	cache    domain.PhotoCache
	observer domain.RefreshObserver
	logger   *slog.Logger

	mu         sync.RWMutex
	state      State
	gateReason GateReason
	photos     []domain.Photo
	folder     string
	loadErr    error
	refreshing bool
}

// NewService creates a gallery loader. A nil observer discards background
// refresh events.
func NewService(gateway domain.MediaGateway, creds domain.CredentialStore, cache domain.PhotoCache, observer domain.RefreshObserver, logger *slog.Logger) *Service {
	if observer == nil {
		observer = domain.NoOpObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gateway:  gateway,
		creds:    creds,
		cache:    cache,
		observer: observer,
		logger:   logger,
		state:    StateIdle,
	}
}

// Load populates the gallery. With useCache, a fresh cache hit is served
// immediately and reconciled against the gateway in the background; a miss
// (or useCache=false) fetches synchronously. Credential gates are checked
// before any network call: display tier first, then secret tier.
func (s *Service) Load(ctx context.Context, useCache bool) error {
	s.setState(StateLoading)

	display, ok := s.creds.DisplayCredentials()
	if !ok {
		s.setGate(GateDisplayMissing)
		return domain.ErrConfigMissing
	}

	secret, ok := s.creds.SecretCredentials()
	if !ok {
		s.setGate(GateSecretMissing)
		return domain.ErrSecretMissing
	}

	folder := display.FolderOrDefault()

	if useCache {
		if photos, hit := s.cache.Get(folder); hit {
			s.logger.Debug("cache hit", "folder", folder, "count", len(photos))
			s.setLoaded(photos, folder)

			// Reconcile in the background, detached from the caller's
			// cancellation. Failures never disturb the displayed list.
			go s.reconcile(context.WithoutCancel(ctx), folder, display, secret)
			return nil
		}
		s.logger.Debug("cache miss", "folder", folder)
	}

	photos, err := s.gateway.Search(ctx, folder, display, secret)
	if err != nil {
		s.logger.Error("gallery fetch failed", "folder", folder, "error", err)
		s.setFailed(err)
		return err
	}

	s.cache.Put(photos, folder)
	s.setLoaded(photos, folder)
	s.logger.Info("gallery loaded", "folder", folder, "count", len(photos))
	return nil
}

// Refresh clears every cache entry, not just the current folder's, then
// reloads synchronously. This is the only path that invalidates other
// folders' entries.
func (s *Service) Refresh(ctx context.Context) error {
	s.cache.ClearAll()
	return s.Load(ctx, false)
}

// reconcile runs the background half of stale-while-revalidate: refetch,
// overwrite the cache, and swap the in-memory list. On failure the stale
// list stays untouched and only the observer hears about it.
func (s *Service) reconcile(ctx context.Context, folder string, display domain.DisplayCredentials, secret domain.SecretCredentials) {
	s.mu.Lock()
	s.refreshing = true
	s.mu.Unlock()

	photos, err := s.gateway.Search(ctx, folder, display, secret)

	s.mu.Lock()
	s.refreshing = false
	if err == nil && s.state == StateLoaded && s.folder == folder {
		s.photos = photos
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("background refresh failed", "folder", folder, "error", err)
		s.observer.OnRefresh(domain.RefreshEvent{Folder: folder, Err: err})
		return
	}

	s.cache.Put(photos, folder)
	s.logger.Debug("background refresh complete", "folder", folder, "count", len(photos))
	s.observer.OnRefresh(domain.RefreshEvent{Folder: folder, Count: len(photos)})
}

// UpdatePhoto applies a metadata edit locally and writes it through to the
// gateway. The local replacement and the remote write are independent: a
// failed write-through leaves the optimistic local edit in place and is
// returned for the caller to surface.
func (s *Service) UpdatePhoto(ctx context.Context, photo domain.Photo, description string, tags []string) (domain.Photo, error) {
	updated := photo.WithMetadata(description, tags)
	s.replacePhoto(updated)

	display, ok := s.creds.DisplayCredentials()
	if !ok {
		return updated, domain.ErrConfigMissing
	}
	secret, ok := s.creds.SecretCredentials()
	if !ok {
		return updated, domain.ErrSecretMissing
	}

	if err := s.gateway.UpdateMetadata(ctx, photo.Key(), description, updated.Tags, display, secret); err != nil {
		s.logger.Error("metadata write-through failed", "publicID", photo.Key(), "error", err)
		return updated, err
	}
	return updated, nil
}

// Delete removes a photo from the gateway, the in-memory list, and the
// current folder's cache entry.
func (s *Service) Delete(ctx context.Context, photo domain.Photo) error {
	display, ok := s.creds.DisplayCredentials()
	if !ok {
		return domain.ErrConfigMissing
	}
	secret, ok := s.creds.SecretCredentials()
	if !ok {
		return domain.ErrSecretMissing
	}

	if err := s.gateway.Delete(ctx, photo.Key(), display, secret); err != nil {
		return err
	}

	s.removePhoto(photo.Key())
	s.cache.Clear(display.FolderOrDefault())
	return nil
}

// === Accessors ===

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) Gate() GateReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gateReason
}

// Photos returns a copy of the current in-memory photo list.
func (s *Service) Photos() []domain.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

func (s *Service) Folder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folder
}

// Err returns the failure from the last synchronous load, if any.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Refreshing reports whether a background reconciliation is in flight.
func (s *Service) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// === State transitions ===

func (s *Service) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.gateReason = GateNone
	s.loadErr = nil
}

func (s *Service) setGate(reason GateReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCredentialGate
	s.gateReason = reason
	s.loadErr = nil
}

func (s *Service) setLoaded(photos []domain.Photo, folder string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateLoaded
	s.gateReason = GateNone
	s.photos = photos
	s.folder = folder
	s.loadErr = nil
}

func (s *Service) setFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
	s.loadErr = err
}

func (s *Service) replacePhoto(updated domain.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.photos {
		if p.Key() == updated.Key() {
			s.photos[i] = updated
			return
		}
	}
}

func (s *Service) removePhoto(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.photos {
		if p.Key() == key {
			s.photos = append(s.photos[:i], s.photos[i+1:]...)
			return
		}
	}
}
