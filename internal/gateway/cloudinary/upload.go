package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmallory/pica/internal/domain"
)

// Upload sends image bytes through the unsigned upload channel. Only the
// display tier is needed; the preset authorizes the write.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename string, display domain.DisplayCredentials) (*domain.UploadResult, error) {
	if err := display.Validate(); err != nil {
		return nil, domain.ErrConfigMissing
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload payload: %w", err)
	}
	if err := form.WriteField("upload_preset", display.UploadPreset); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := form.WriteField("folder", display.FolderOrDefault()); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, display.CloudName)
	body, err := c.doRequest(ctx, http.MethodPost, endpoint, form.FormDataContentType(), &buf, domain.SecretCredentials{})
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}

	secureURL := resp.SecureURL
	if secureURL == "" {
		secureURL = resp.URL
	}

	c.logger.Info("uploaded image", "publicID", resp.PublicID, "bytes", resp.Bytes)

	return &domain.UploadResult{
		PublicID:  resp.PublicID,
		SecureURL: secureURL,
		Width:     resp.Width,
		Height:    resp.Height,
		Format:    resp.Format,
		Bytes:     resp.Bytes,
	}, nil
}

// UpdateMetadata replaces the description and tags for publicID.
// Requires the secret tier.
func (c *Client) UpdateMetadata(ctx context.Context, publicID, description string, tags []string, display domain.DisplayCredentials, secret domain.SecretCredentials) error {
	if secret.IsZero() {
		return domain.ErrSecretMissing
	}

	form := url.Values{}
	form.Set("context", encodeContext(description))
	form.Set("tags", strings.Join(domain.NormalizeTags(tags), ","))

	endpoint := fmt.Sprintf("%s/%s/resources/image/upload/%s", c.baseURL, display.CloudName, url.PathEscape(publicID))
	_, err := c.doRequest(ctx, http.MethodPost, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), secret)
	if err != nil {
		return err
	}

	c.logger.Info("updated metadata", "publicID", publicID, "tags", len(tags))
	return nil
}

// Delete removes the photo identified by publicID. Requires the secret tier.
func (c *Client) Delete(ctx context.Context, publicID string, display domain.DisplayCredentials, secret domain.SecretCredentials) error {
	if secret.IsZero() {
		return domain.ErrSecretMissing
	}

	query := url.Values{"public_ids[]": {publicID}}
	endpoint := fmt.Sprintf("%s/%s/resources/image/upload?%s", c.baseURL, display.CloudName, query.Encode())
	_, err := c.doRequest(ctx, http.MethodDelete, endpoint, "", nil, secret)
	if err != nil {
		return err
	}

	c.logger.Info("deleted image", "publicID", publicID)
	return nil
}

// encodeContext renders the caption in the API's key=value context syntax.
// Pipes and equals signs inside the value are escaped.
func encodeContext(description string) string {
	if description == "" {
		return ""
	}
	escaped := strings.NewReplacer("=", `\=`, "|", `\|`).Replace(description)
	return "caption=" + escaped
}
