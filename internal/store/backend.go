package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketKV = []byte("kv")

// BoltBackend implements domain.Backend using BoltDB. It is the
// general-purpose backend: always available, not suitable for secrets.
type BoltBackend struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string]string
}

// NewBoltBackend opens (or creates) the backing database under dir.
func NewBoltBackend(dir string) (*BoltBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "pica.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKV)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltBackend{db: db, cache: make(map[string]string)}, nil
}

func (b *BoltBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *BoltBackend) Get(key string) (string, bool) {
	// Check memory cache first
	b.mu.RLock()
	if v, ok := b.cache[key]; ok {
		b.mu.RUnlock()
		return v, true
	}
	b.mu.RUnlock()

	// Read from BoltDB
	var data []byte
	b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketKV)
		if bk == nil {
			return nil
		}
		if v := bk.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return "", false
	}

	// Promote to memory cache
	b.mu.Lock()
	b.cache[key] = string(data)
	b.mu.Unlock()

	return string(data), true
}

func (b *BoltBackend) Set(key, value string) error {
	b.mu.Lock()
	b.cache[key] = value
	b.mu.Unlock()

	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketKV)
		return bk.Put([]byte(key), []byte(value))
	})
}

func (b *BoltBackend) Delete(key string) error {
	b.mu.Lock()
	delete(b.cache, key)
	b.mu.Unlock()

	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketKV)
		if bk != nil {
			return bk.Delete([]byte(key))
		}
		return nil
	})
}

func (b *BoltBackend) DeletePrefix(prefix string) error {
	b.mu.Lock()
	for k := range b.cache {
		if strings.HasPrefix(k, prefix) {
			delete(b.cache, k)
		}
	}
	b.mu.Unlock()

	// Delete from BoltDB using prefix scan
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketKV)
		if bk == nil {
			return nil
		}
		c := bk.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := bk.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
