package cloudinary

import "encoding/json"

// searchRequest is the body for the search endpoint
type searchRequest struct {
	Expression string   `json:"expression"`
	WithField  []string `json:"with_field,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// searchResponse is the envelope for search results
type searchResponse struct {
	TotalCount int           `json:"total_count"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Resources  []resourceDTO `json:"resources"`
}

// resourceDTO represents one hosted asset
type resourceDTO struct {
	PublicID  string      `json:"public_id"`
	Format    string      `json:"format,omitempty"`
	Width     int         `json:"width,omitempty"`
	Height    int         `json:"height,omitempty"`
	Bytes     int64       `json:"bytes,omitempty"`
	URL       string      `json:"url,omitempty"`
	SecureURL string      `json:"secure_url,omitempty"`
	CreatedAt string      `json:"created_at,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
	Context   *contextDTO `json:"context,omitempty"`
}

// contextDTO holds per-asset contextual metadata. The search endpoint
// returns it flat ({"caption": ...}) while the resource detail endpoint
// nests it under "custom"; both shapes are accepted.
type contextDTO struct {
	Values map[string]string
}

func (c *contextDTO) UnmarshalJSON(data []byte) error {
	var nested struct {
		Custom map[string]string `json:"custom"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.Custom != nil {
		c.Values = nested.Custom
		return nil
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	c.Values = flat
	return nil
}

// Caption returns the user-visible description, trying the caption field
// then the alt field.
func (c *contextDTO) Caption() string {
	if c == nil {
		return ""
	}
	if v := c.Values["caption"]; v != "" {
		return v
	}
	return c.Values["alt"]
}

// uploadResponse is the envelope for a successful upload
type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Format    string `json:"format,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
}

// errorResponse is the API's error envelope
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
