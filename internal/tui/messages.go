package tui

import (
	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/gallery"
)

// Message types for the TUI

// GalleryLoadedMsg signals that the gallery has been loaded
type GalleryLoadedMsg struct {
	Photos []domain.Photo
	Folder string
}

// CredentialGateMsg signals that loading stopped on a missing credential tier
type CredentialGateMsg struct {
	Reason gallery.GateReason
}

// LoadFailedMsg signals that a synchronous load failed
type LoadFailedMsg struct {
	Err error
}

// BackgroundRefreshMsg carries a background reconciliation outcome
type BackgroundRefreshMsg struct {
	Event domain.RefreshEvent
}

// PhotoUpdatedMsg signals the outcome of a metadata edit
type PhotoUpdatedMsg struct {
	Photo domain.Photo
	Err   error // write-through failure; the local edit already applied
}

// PhotoDeletedMsg signals the outcome of a delete
type PhotoDeletedMsg struct {
	Key string
	Err error
}

// StatusExpiredMsg clears the transient status line
type StatusExpiredMsg struct {
	ID int
}
