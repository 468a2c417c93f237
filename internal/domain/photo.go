package domain

import (
	"fmt"
	"strings"
	"time"
)

// Photo represents a single hosted image. Photos are immutable value
// snapshots returned by the gateway; edits produce a new Photo value.
type Photo struct {
	URL         string    // Direct delivery URL
	PublicID    string    // Server-assigned stable identifier
	Description string    // User-supplied caption
	Tags        []string  // Deduplicated, insertion order preserved
	Width       int       // Pixel width
	Height      int       // Pixel height
	Format      string    // "jpg", "png", "webp", ...
	Bytes       int64     // Stored size in bytes
	CreatedAt   time.Time // Server-side creation time
}

// Key returns the identity used for list reconciliation. The server-assigned
// PublicID is preferred; the delivery URL is the fallback for results that
// omit it.
func (p Photo) Key() string {
	if p.PublicID != "" {
		return p.PublicID
	}
	return p.URL
}

// DisplayName returns the last path segment of the public ID, suitable for
// list rendering.
func (p Photo) DisplayName() string {
	id := p.Key()
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return id
}

// Resolution returns a human-readable resolution string based on image height
func (p Photo) Resolution() string {
	switch {
	case p.Height >= 2160:
		return "4K"
	case p.Height >= 1080:
		return "1080p"
	case p.Height >= 720:
		return "720p"
	case p.Height > 0:
		return fmt.Sprintf("%dp", p.Height)
	default:
		return ""
	}
}

// Dimensions returns "WxH", or "" when the gateway omitted them.
func (p Photo) Dimensions() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// FormattedSize returns the stored size in a human-readable format
func (p Photo) FormattedSize() string {
	if p.Bytes <= 0 {
		return ""
	}
	const (
		mb = 1024 * 1024
		kb = 1024
	)
	switch {
	case p.Bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(p.Bytes)/mb)
	case p.Bytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(p.Bytes)/kb)
	default:
		return fmt.Sprintf("%d B", p.Bytes)
	}
}

// WithMetadata returns a copy with the description and tags replaced.
// Tags are normalized; the original Photo is not modified.
func (p Photo) WithMetadata(description string, tags []string) Photo {
	p.Description = description
	p.Tags = NormalizeTags(tags)
	return p
}

// NormalizeTags trims whitespace, drops empties, and deduplicates while
// preserving insertion order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
