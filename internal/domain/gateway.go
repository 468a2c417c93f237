package domain

import (
	"context"
	"io"
)

// UploadResult contains the gateway's response to a successful upload.
type UploadResult struct {
	PublicID  string
	SecureURL string
	Width     int
	Height    int
	Format    string
	Bytes     int64

	// MetadataErr records a failed post-upload metadata write. The upload
	// itself succeeded; the image bytes are the valuable artifact and
	// metadata is best-effort.
	MetadataErr error
}

// MediaGateway is the hosted media API this client is a thin shell over.
// Search, UpdateMetadata, and Delete require the secret tier; Upload is the
// unsigned path and must work with display credentials alone.
type MediaGateway interface {
	// Search returns every photo in folder. An empty folder is a valid
	// result, not an error.
	Search(ctx context.Context, folder string, display DisplayCredentials, secret SecretCredentials) ([]Photo, error)

	// Upload sends image bytes through the unsigned upload channel.
	Upload(ctx context.Context, r io.Reader, filename string, display DisplayCredentials) (*UploadResult, error)

	// UpdateMetadata replaces the description and tags for publicID.
	UpdateMetadata(ctx context.Context, publicID, description string, tags []string, display DisplayCredentials, secret SecretCredentials) error

	// Delete removes the photo identified by publicID.
	Delete(ctx context.Context, publicID string, display DisplayCredentials, secret SecretCredentials) error
}
