package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/gallery"
)

const loadTimeout = 60 * time.Second

// Command factories for async operations

// loadCmd loads the gallery, serving a fresh cache hit immediately.
func loadCmd(svc *gallery.Service, useCache bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := svc.Load(ctx, useCache)
		return loadOutcome(svc, err)
	}
}

// refreshCmd clears all cache entries and reloads synchronously.
func refreshCmd(svc *gallery.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := svc.Refresh(ctx)
		return loadOutcome(svc, err)
	}
}

func loadOutcome(svc *gallery.Service, err error) tea.Msg {
	switch svc.State() {
	case gallery.StateCredentialGate:
		return CredentialGateMsg{Reason: svc.Gate()}
	case gallery.StateFailed:
		return LoadFailedMsg{Err: err}
	default:
		return GalleryLoadedMsg{Photos: svc.Photos(), Folder: svc.Folder()}
	}
}

// updatePhotoCmd applies a metadata edit and writes it through.
func updatePhotoCmd(svc *gallery.Service, photo domain.Photo, description string, tags []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		updated, err := svc.UpdatePhoto(ctx, photo, description, tags)
		return PhotoUpdatedMsg{Photo: updated, Err: err}
	}
}

// deletePhotoCmd deletes a photo from the gateway and local state.
func deletePhotoCmd(svc *gallery.Service, photo domain.Photo) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := svc.Delete(ctx, photo)
		return PhotoDeletedMsg{Key: photo.Key(), Err: err}
	}
}

// waitForRefresh blocks on the background-refresh relay until the next
// event arrives. Re-armed after each message.
func waitForRefresh(ch <-chan domain.RefreshEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return BackgroundRefreshMsg{Event: event}
	}
}

// expireStatusCmd clears the transient status line after a pause.
func expireStatusCmd(id int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return StatusExpiredMsg{ID: id}
	})
}
