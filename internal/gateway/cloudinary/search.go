package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jmallory/pica/internal/domain"
)

const searchPageSize = 500

// searchExpressions returns the query expressions tried in order for a
// folder. Folder indexing differs across account configurations; the first
// expression that yields results wins. All of them coming back empty is a
// valid empty folder, not an error.
func searchExpressions(folder string) []string {
	return []string{
		fmt.Sprintf("folder=%q", folder),
		fmt.Sprintf("folder:%s", folder),
		fmt.Sprintf("public_id:%s/*", folder),
	}
}

// Search returns every photo in folder. Requires the secret tier.
func (c *Client) Search(ctx context.Context, folder string, display domain.DisplayCredentials, secret domain.SecretCredentials) ([]domain.Photo, error) {
	if secret.IsZero() {
		return nil, domain.ErrSecretMissing
	}

	var resources []resourceDTO
	for _, expr := range searchExpressions(folder) {
		found, err := c.searchExpression(ctx, display.CloudName, expr, secret)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			resources = found
			break
		}
	}

	photos := make([]domain.Photo, 0, len(resources))
	for _, r := range resources {
		// Some responses omit context and tags in bulk results; fall back
		// to a per-item lookup so descriptions still surface.
		if r.Context == nil && r.Tags == nil {
			if detail, err := c.getResource(ctx, display.CloudName, r.PublicID, secret); err == nil {
				r = *detail
			} else {
				c.logger.Warn("metadata lookup failed", "publicID", r.PublicID, "error", err)
			}
		}
		photos = append(photos, mapPhoto(r))
	}

	c.logger.Debug("search complete", "folder", folder, "count", len(photos))
	return photos, nil
}

// searchExpression runs one expression against the search endpoint,
// following the cursor until all pages are read.
func (c *Client) searchExpression(ctx context.Context, cloudName, expression string, secret domain.SecretCredentials) ([]resourceDTO, error) {
	endpoint := fmt.Sprintf("%s/%s/resources/search", c.baseURL, cloudName)

	var all []resourceDTO
	cursor := ""
	for {
		reqBody, err := json.Marshal(searchRequest{
			Expression: expression,
			WithField:  []string{"context", "tags"},
			MaxResults: searchPageSize,
			NextCursor: cursor,
		})
		if err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(reqBody), secret)
		if err != nil {
			return nil, err
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse search response: %w", err)
		}

		all = append(all, resp.Resources...)
		if resp.NextCursor == "" || len(resp.Resources) == 0 {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// getResource fetches one asset's full metadata.
func (c *Client) getResource(ctx context.Context, cloudName, publicID string, secret domain.SecretCredentials) (*resourceDTO, error) {
	endpoint := fmt.Sprintf("%s/%s/resources/image/upload/%s?%s",
		c.baseURL, cloudName, url.PathEscape(publicID),
		url.Values{"context": {"true"}, "tags": {"true"}}.Encode())

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, "", nil, secret)
	if err != nil {
		return nil, err
	}

	var resource resourceDTO
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("failed to parse resource: %w", err)
	}
	return &resource, nil
}
