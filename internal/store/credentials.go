package store

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jmallory/pica/internal/domain"
)

// Key namespaces. Fallback secret keys are deliberately named apart from the
// secure-backend keys so a security downgrade is diagnosable rather than
// silently conflated with the normal path.
const (
	keyDisplay        = "credentials:display"
	keySecretAPIKey   = "api_key"
	keySecretAPISec   = "api_secret"
	keyFallbackAPIKey = "insecure:api_key"
	keyFallbackAPISec = "insecure:api_secret"
)

// Credentials implements domain.CredentialStore over two backends: a
// general-purpose one (always available) and a secure one that may not be.
// The secure-backend availability probe runs at most once per process.
type Credentials struct {
	general domain.Backend
	secure  domain.Backend
	probe   func() bool
	logger  *slog.Logger

	probeOnce sync.Once
	secureOK  bool
}

// NewCredentials creates the tiered credential store. probe decides whether
// the secure backend is usable; when nil the secure backend is assumed
// available iff it is non-nil.
func NewCredentials(general, secure domain.Backend, probe func() bool, logger *slog.Logger) *Credentials {
	if logger == nil {
		logger = slog.Default()
	}
	if probe == nil {
		probe = func() bool { return secure != nil }
	}
	return &Credentials{
		general: general,
		secure:  secure,
		probe:   probe,
		logger:  logger,
	}
}

// secureAvailable memoizes the probe for the process lifetime. It does not
// re-check after the first result.
func (c *Credentials) secureAvailable() bool {
	c.probeOnce.Do(func() {
		c.secureOK = c.secure != nil && c.probe()
		if !c.secureOK {
			c.logger.Warn("secure credential backend unavailable, using fallback storage")
		}
	})
	return c.secureOK
}

func (c *Credentials) DisplayCredentials() (domain.DisplayCredentials, bool) {
	raw, ok := c.general.Get(keyDisplay)
	if !ok {
		return domain.DisplayCredentials{}, false
	}

	var creds domain.DisplayCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		c.logger.Warn("failed to parse display credentials", "error", err)
		return domain.DisplayCredentials{}, false
	}
	if creds.Validate() != nil {
		return domain.DisplayCredentials{}, false
	}
	return creds, true
}

func (c *Credentials) SaveDisplayCredentials(creds domain.DisplayCredentials) error {
	if err := creds.Validate(); err != nil {
		return &domain.PersistenceError{Op: "save display credentials", Err: err}
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return &domain.PersistenceError{Op: "save display credentials", Err: err}
	}
	if err := c.general.Set(keyDisplay, string(data)); err != nil {
		return &domain.PersistenceError{Op: "save display credentials", Err: err}
	}
	return nil
}

func (c *Credentials) SecretCredentials() (domain.SecretCredentials, bool) {
	backend, keyName, secName := c.secretLocation()

	key, okKey := backend.Get(keyName)
	sec, okSec := backend.Get(secName)
	if !okKey || !okSec {
		return domain.SecretCredentials{}, false
	}

	creds := domain.SecretCredentials{APIKey: key, APISecret: sec}
	if creds.IsZero() {
		return domain.SecretCredentials{}, false
	}
	return creds, true
}

func (c *Credentials) SaveSecretCredentials(creds domain.SecretCredentials) error {
	backend, keyName, secName := c.secretLocation()

	if err := backend.Set(keyName, creds.APIKey); err != nil {
		return &domain.PersistenceError{Op: "save api key", Err: err}
	}
	if err := backend.Set(secName, creds.APISecret); err != nil {
		return &domain.PersistenceError{Op: "save api secret", Err: err}
	}
	return nil
}

// secretLocation resolves the backend and key names the probe selected.
func (c *Credentials) secretLocation() (domain.Backend, string, string) {
	if c.secureAvailable() {
		return c.secure, keySecretAPIKey, keySecretAPISec
	}
	return c.general, keyFallbackAPIKey, keyFallbackAPISec
}

// ClearAll removes both tiers from every backend that may hold them,
// regardless of which one the probe selected. Best-effort cleanup.
func (c *Credentials) ClearAll() {
	if err := c.general.Delete(keyDisplay); err != nil {
		c.logger.Warn("failed to clear display credentials", "error", err)
	}
	for _, k := range []string{keyFallbackAPIKey, keyFallbackAPISec} {
		if err := c.general.Delete(k); err != nil {
			c.logger.Warn("failed to clear fallback secret", "key", k, "error", err)
		}
	}
	if c.secure == nil {
		return
	}
	for _, k := range []string{keySecretAPIKey, keySecretAPISec} {
		if err := c.secure.Delete(k); err != nil {
			c.logger.Warn("failed to clear secret", "key", k, "error", err)
		}
	}
}
