// Package gallery persists creations and settings in a local bbolt file.
package gallery

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/memeforge/memeforge/internal/models"
)

const (
	bucketCreations = "creations"
	bucketSettings  = "settings"

	keyAPIKey = "api_key"
)

// ErrNotFound is returned when no creation matches the requested id.
var ErrNotFound = errors.New("creation not found")

// Store is a bbolt-backed gallery. Creations keep insertion order via
// sequence-numbered keys; settings hold the service credential.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the store file, making parent directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketCreations)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSettings))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add appends a creation to the gallery. A missing ID or CreatedAt is
// filled in; the stored record is returned via the same pointer.
func (s *Store) Add(c *models.Creation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCreations))
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		enc, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal creation: %w", err)
		}
		return b.Put(seqKey(seq), enc)
	})
}

// List returns every creation in insertion order.
func (s *Store) List() ([]models.Creation, error) {
	var creations []models.Creation
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCreations)).ForEach(func(_, v []byte) error {
			var c models.Creation
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to unmarshal creation: %w", err)
			}
			creations = append(creations, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return creations, nil
}

// Get returns the creation with the given id, or ErrNotFound.
func (s *Store) Get(id string) (*models.Creation, error) {
	var found *models.Creation
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCreations)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var cr models.Creation
			if err := json.Unmarshal(v, &cr); err != nil {
				return fmt.Errorf("failed to unmarshal creation: %w", err)
			}
			if cr.ID == id {
				found = &cr
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Delete removes exactly the creation with the given id. The relative order
// of the survivors is unchanged.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCreations))
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var cr models.Creation
			if err := json.Unmarshal(v, &cr); err != nil {
				return fmt.Errorf("failed to unmarshal creation: %w", err)
			}
			if cr.ID == id {
				return b.Delete(k)
			}
		}
		return ErrNotFound
	})
}

// SetAPIKey stores the service credential.
func (s *Store) SetAPIKey(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSettings)).Put([]byte(keyAPIKey), []byte(key))
	})
}

// APIKey returns the stored credential, or "" when none is set.
func (s *Store) APIKey() (string, error) {
	var key string
	err := s.db.View(func(tx *bolt.Tx) error {
		key = string(tx.Bucket([]byte(bucketSettings)).Get([]byte(keyAPIKey)))
		return nil
	})
	return key, err
}

// DeleteAPIKey removes the stored credential.
func (s *Store) DeleteAPIKey() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSettings)).Delete([]byte(keyAPIKey))
	})
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
