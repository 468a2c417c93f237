package tui

import "github.com/jmallory/pica/internal/domain"

// RefreshRelay implements domain.RefreshObserver by forwarding events into
// the TUI event loop. Sends never block; if the UI is behind, older events
// are dropped in favor of keeping the loader responsive.
type RefreshRelay struct {
	ch chan domain.RefreshEvent
}

func NewRefreshRelay() *RefreshRelay {
	return &RefreshRelay{ch: make(chan domain.RefreshEvent, 8)}
}

func (r *RefreshRelay) OnRefresh(event domain.RefreshEvent) {
	select {
	case r.ch <- event:
	default:
	}
}

// Events exposes the relay channel for waitForRefresh.
func (r *RefreshRelay) Events() <-chan domain.RefreshEvent {
	return r.ch
}
