// Package settings is the durable client-side key-value store: per-building
// filter selections, the payment-date memory, and the session token. These
// are UI conveniences, not data-integrity-relevant; every accessor degrades
// to the zero value instead of failing the caller.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a key is not present.
var ErrNotFound = errors.New("setting not found")

// Bucket names.
const (
	bucketFilters = "filters"
	bucketMemory  = "memory"
	bucketSession = "session"
)

// Session keys.
const (
	keyAccessToken = "access_token"
	keyUserID      = "user_id"
	keyUsername    = "username"
)

// Store is a bbolt-backed settings store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the settings database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketFilters, bucketMemory, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// filterKey namespaces a filter name by building id, mirroring the
// per-building persistence the screen expects.
func filterKey(buildingID int64, name string) []byte {
	return []byte(fmt.Sprintf("b%d/%s", buildingID, name))
}

func (s *Store) put(bucket string, key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put(key, value)
	})
}

func (s *Store) get(bucket string, key []byte) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		data := b.Get(key)
		if data == nil {
			return ErrNotFound
		}
		value = string(data)
		return nil
	})
	return value, err
}

// SetFilter persists one filter value for a building.
func (s *Store) SetFilter(buildingID int64, name, value string) error {
	return s.put(bucketFilters, filterKey(buildingID, name), []byte(value))
}

// Filter returns one persisted filter value; ok is false when unset.
func (s *Store) Filter(buildingID int64, name string) (string, bool) {
	value, err := s.get(bucketFilters, filterKey(buildingID, name))
	if err != nil {
		return "", false
	}
	return value, true
}

// SetPaymentDate persists the payment-date memory for a building.
func (s *Store) SetPaymentDate(buildingID int64, date string) error {
	return s.put(bucketMemory, filterKey(buildingID, "payment_date"), []byte(date))
}

// PaymentDate returns the remembered payment date, if any.
func (s *Store) PaymentDate(buildingID int64) (string, bool) {
	value, err := s.get(bucketMemory, filterKey(buildingID, "payment_date"))
	if err != nil {
		return "", false
	}
	return value, true
}

// SetSession stores the login session.
func (s *Store) SetSession(token, username string, userID int64) error {
	if err := s.put(bucketSession, []byte(keyAccessToken), []byte(token)); err != nil {
		return err
	}
	if err := s.put(bucketSession, []byte(keyUsername), []byte(username)); err != nil {
		return err
	}
	return s.put(bucketSession, []byte(keyUserID), []byte(strconv.FormatInt(userID, 10)))
}

// Session returns the stored login session, if any.
func (s *Store) Session() (token, username string, userID int64, ok bool) {
	token, err := s.get(bucketSession, []byte(keyAccessToken))
	if err != nil {
		return "", "", 0, false
	}
	username, _ = s.get(bucketSession, []byte(keyUsername))
	if idStr, err := s.get(bucketSession, []byte(keyUserID)); err == nil {
		userID, _ = strconv.ParseInt(idStr, 10, 64)
	}
	return token, username, userID, true
}

// ClearSession removes the stored login session.
func (s *Store) ClearSession() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSession))
		if b == nil {
			return nil
		}
		for _, key := range []string{keyAccessToken, keyUsername, keyUserID} {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}
