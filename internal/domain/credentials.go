package domain

import (
	"errors"
	"strings"
)

// DefaultFolder is the gallery folder used when the display credentials
// leave it unset.
const DefaultFolder = "photos"

// DisplayCredentials is the low-sensitivity configuration tier: everything
// needed for unsigned uploads and for forming gallery requests. It carries
// no secrets and may live in general-purpose storage.
type DisplayCredentials struct {
	CloudName    string
	UploadPreset string
	Folder       string
}

// Validate checks that the required fields are present. Folder is optional.
func (c DisplayCredentials) Validate() error {
	if strings.TrimSpace(c.CloudName) == "" {
		return errors.New("cloud name is required")
	}
	if strings.TrimSpace(c.UploadPreset) == "" {
		return errors.New("upload preset is required")
	}
	return nil
}

// FolderOrDefault resolves the gallery folder, falling back to DefaultFolder.
func (c DisplayCredentials) FolderOrDefault() string {
	if strings.TrimSpace(c.Folder) == "" {
		return DefaultFolder
	}
	return c.Folder
}

// SecretCredentials is the high-sensitivity tier: the API key/secret pair
// required for authenticated read, update, and delete calls. The pair is
// atomic; one value without the other is treated as absent everywhere.
type SecretCredentials struct {
	APIKey    string
	APISecret string
}

// IsZero reports whether the pair is unusable. A partial pair is zero.
func (c SecretCredentials) IsZero() bool {
	return c.APIKey == "" || c.APISecret == ""
}
