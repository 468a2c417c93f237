package domain

// Backend is a string-valued key-value storage backend. Implementations are
// safe for concurrent use; writes are last-write-wins at whole-record
// granularity.
type Backend interface {
	// Get returns the stored value, or false when the key is absent or the
	// read failed. Reads never raise.
	Get(key string) (string, bool)

	// Set stores a value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// DeletePrefix removes every key that starts with prefix.
	DeletePrefix(prefix string) error

	Close() error
}

// CredentialStore persists the two credential tiers.
// Reads are fail-safe (absence, never errors); writes are fail-loud.
type CredentialStore interface {
	// DisplayCredentials returns the display tier, or false when it has
	// never been saved or cannot be read back.
	DisplayCredentials() (DisplayCredentials, bool)

	// SaveDisplayCredentials overwrites the display tier wholesale.
	SaveDisplayCredentials(c DisplayCredentials) error

	// SecretCredentials returns the secret pair, or false unless both
	// values are present in the selected backend.
	SecretCredentials() (SecretCredentials, bool)

	// SaveSecretCredentials writes both values to whichever backend the
	// availability probe selected.
	SaveSecretCredentials(c SecretCredentials) error

	// ClearAll removes both tiers from every backend that may hold them.
	// Best-effort: failures are logged, not returned.
	ClearAll()
}

// PhotoCache persists a folder-scoped, time-boxed snapshot of the last-known
// photo collection. An entry for one folder is never served for another.
type PhotoCache interface {
	// Get returns the cached photos for folder, or false when no entry
	// exists, the entry belongs to a different folder, or it has expired.
	Get(folder string) ([]Photo, bool)

	// Put overwrites the entry for folder with a freshly stamped snapshot.
	// Failures are logged, not returned.
	Put(photos []Photo, folder string)

	// Clear removes the entry for one folder.
	Clear(folder string)

	// ClearAll removes every entry this cache owns, regardless of folder.
	ClearAll()
}

// RefreshEvent reports the outcome of one background cache reconciliation.
type RefreshEvent struct {
	Folder string
	Count  int // photos fetched (0 on failure)
	Err    error
}

// RefreshObserver receives background refresh outcomes. Background failures
// never disturb the displayed gallery; the observer is how callers (and
// tests) see them.
type RefreshObserver interface {
	OnRefresh(event RefreshEvent)
}

// NoOpObserver discards refresh events (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnRefresh(RefreshEvent) {}
