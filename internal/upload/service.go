package upload

import (
	"context"
	"io"
	"log/slog"

	"github.com/jmallory/pica/internal/domain"
)

// Service handles the upload and metadata write-through sequence. The image
// bytes are the valuable artifact: a failed metadata write never rolls back
// or overrides a successful upload.
type Service struct {
	gateway domain.MediaGateway
	creds   domain.CredentialStore
	cache   domain.PhotoCache
	logger  *slog.Logger
}

func NewService(gateway domain.MediaGateway, creds domain.CredentialStore, cache domain.PhotoCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, creds: creds, cache: cache, logger: logger}
}

// Upload sends the image through the unsigned channel, then applies the
// description/tags when supplied and the secret tier is present. The result
// reports success whenever the upload itself succeeded; a failed metadata
// write is recorded on the result, not returned.
func (s *Service) Upload(ctx context.Context, r io.Reader, filename, description string, tags []string) (*domain.UploadResult, error) {
	display, ok := s.creds.DisplayCredentials()
	if !ok {
		return nil, domain.ErrConfigMissing
	}

	result, err := s.gateway.Upload(ctx, r, filename, display)
	if err != nil {
		return nil, err
	}

	// The cached snapshot for this folder no longer reflects the server.
	s.cache.Clear(display.FolderOrDefault())

	tags = domain.NormalizeTags(tags)
	if description == "" && len(tags) == 0 {
		return result, nil
	}

	secret, ok := s.creds.SecretCredentials()
	if !ok {
		s.logger.Debug("skipping metadata write, secret credentials absent", "publicID", result.PublicID)
		return result, nil
	}

	if err := s.gateway.UpdateMetadata(ctx, result.PublicID, description, tags, display, secret); err != nil {
		s.logger.Warn("post-upload metadata write failed", "publicID", result.PublicID, "error", err)
		result.MetadataErr = err
	}
	return result, nil
}
