// Package profile persists named calibration profiles: the vision tuning
// values dialed in with the interactive test mode, keyed by a site or setup
// name. The game core never touches this store; profiles are resolved to
// plain values before a game starts.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/thyrook/chesseye/internal/config"
)

// bucketName holds the serialized profiles.
const bucketName = "profiles"

// ErrProfileNotFound reports a lookup of a name that was never saved.
var ErrProfileNotFound = errors.New("profile not found")

// Store is a bbolt-backed profile database.
type Store struct {
	db *bbolt.DB
}

// DefaultPath places the database under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chesseye-profiles.db"
	}
	return filepath.Join(home, ".chesseye", "profiles.db")
}

// Open opens or creates the profile database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open profile database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create profile bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Save stores the vision tuning values under a name, overwriting any
// previous version.
func (s *Store) Save(name string, cfg config.ImgProcConfig) error {
	if name == "" {
		return fmt.Errorf("profile name must not be empty")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(name), data)
	})
}

// Load fetches a profile by name.
func (s *Store) Load(name string) (config.ImgProcConfig, error) {
	var cfg config.ImgProcConfig

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
		}
		return json.Unmarshal(data, &cfg)
	})
	return cfg, err
}

// List returns the saved profile names in key order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete removes a profile; deleting an absent name is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(name))
	})
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
