package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SecureFileBackend implements domain.Backend as one 0600 file per key in a
// 0700 directory. It stands in for platform keychain storage and may be
// unavailable (unwritable home, read-only filesystem); Probe reports that.
type SecureFileBackend struct {
	dir string
	mu  sync.Mutex
}

func NewSecureFileBackend(dir string) *SecureFileBackend {
	return &SecureFileBackend{dir: dir}
}

// Probe checks once whether the backend can round-trip a value. Callers
// memoize the result for the process lifetime.
func (s *SecureFileBackend) Probe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return false
	}
	probePath := filepath.Join(s.dir, ".probe")
	if err := os.WriteFile(probePath, []byte("ok"), 0600); err != nil {
		return false
	}
	data, err := os.ReadFile(probePath)
	os.Remove(probePath)
	return err == nil && string(data) == "ok"
}

func (s *SecureFileBackend) path(key string) string {
	// Sanitize key for filename
	safe := strings.ReplaceAll(key, ":", "_")
	safe = strings.ReplaceAll(safe, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe)
}

func (s *SecureFileBackend) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (s *SecureFileBackend) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path(key), []byte(value), 0600)
}

func (s *SecureFileBackend) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *SecureFileBackend) DeletePrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	safe := strings.ReplaceAll(prefix, ":", "_")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), safe) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SecureFileBackend) Close() error { return nil }
