package cloudinary

import (
	"time"

	"github.com/jmallory/pica/internal/domain"
)

// mapPhoto converts a resource DTO to a domain photo
func mapPhoto(r resourceDTO) domain.Photo {
	url := r.SecureURL
	if url == "" {
		url = r.URL
	}
	return domain.Photo{
		URL:         url,
		PublicID:    r.PublicID,
		Description: r.Context.Caption(),
		Tags:        domain.NormalizeTags(r.Tags),
		Width:       r.Width,
		Height:      r.Height,
		Format:      r.Format,
		Bytes:       r.Bytes,
		CreatedAt:   parseCreatedAt(r.CreatedAt),
	}
}

// parseCreatedAt parses the API's RFC3339 creation timestamp, returning the
// zero time when absent or malformed.
func parseCreatedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
