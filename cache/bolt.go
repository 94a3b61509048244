package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ZaguanLabs/webproxy"
)

// metaBucket maps entry keys to their last-write time (RFC 3339). Entry keys
// always contain colons, so the name cannot collide with one.
const metaBucket = "meta"

// BoltStore is an embedded bbolt-backed store for single-node deployments
// that want persistence without a Redis dependency. Each entry maps to one
// bucket named by its key. Entries past the TTL are dropped on read, the
// same policy MemoryStore applies.
type BoltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBolt opens (creating if needed) a bbolt store at path. If ttl is 0 or
// negative, entries never expire.
func OpenBolt(path string, ttl time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &webproxy.CacheError{Message: "creating bolt directory", Cause: err}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &webproxy.CacheError{Message: "opening bolt database", Cause: err}
	}
	return NewBoltStoreFromDB(db, ttl), nil
}

// NewBoltStoreFromDB wraps an already-open bbolt database.
func NewBoltStoreFromDB(db *bolt.DB, ttl time.Duration) *BoltStore {
	if ttl < 0 {
		ttl = 0
	}
	return &BoltStore{db: db, ttl: ttl, now: time.Now}
}

// GetEntry reads every field of the entry's bucket. An expired entry is
// deleted and reported as a miss.
func (s *BoltStore) GetEntry(_ context.Context, key Key) (map[string]string, error) {
	name := []byte(key.String())
	fields := map[string]string{}
	expired := false

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(name)
		if b == nil {
			return nil
		}
		if s.expiredAt(tx, name) {
			expired = true
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			fields[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, &webproxy.CacheError{Message: "bolt read failed", Cause: err}
	}

	if expired {
		err := s.db.Update(func(tx *bolt.Tx) error {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if mb := tx.Bucket([]byte(metaBucket)); mb != nil {
				return mb.Delete(name)
			}
			return nil
		})
		if err != nil {
			return nil, &webproxy.CacheError{Message: "bolt expiry failed", Cause: err}
		}
	}
	return fields, nil
}

// PutEntries merges fields into the entry's bucket in one transaction,
// refreshing its timestamp.
func (s *BoltStore) PutEntries(_ context.Context, key Key, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	name := []byte(key.String())
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(name)
		if err != nil {
			return err
		}
		for k, v := range fields {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		mb, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		return mb.Put(name, []byte(s.now().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return &webproxy.CacheError{Message: "bolt write failed", Cause: err}
	}
	return nil
}

// expiredAt reports whether the entry's last write is older than the TTL.
// Entries with no recorded timestamp never expire.
func (s *BoltStore) expiredAt(tx *bolt.Tx, name []byte) bool {
	if s.ttl <= 0 {
		return false
	}
	mb := tx.Bucket([]byte(metaBucket))
	if mb == nil {
		return false
	}
	raw := mb.Get(name)
	if raw == nil {
		return false
	}
	written, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return false
	}
	return s.now().Sub(written) > s.ttl
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)
