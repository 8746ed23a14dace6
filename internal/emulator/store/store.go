// Package store provides the bbolt persistence layer of the backend
// emulator.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID is returned when an invalid ID is provided.
	ErrInvalidID = errors.New("invalid ID")
)

// Bucket names.
const (
	BucketBuildings        = "buildings"
	BucketAccounts         = "accounts"
	BucketUnits            = "units"
	BucketPeople           = "people"
	BucketItems            = "items"
	BucketUsers            = "users"
	BucketCreditMemos      = "credit_memos"
	BucketInvoices         = "invoices"
	BucketInvoiceItems     = "invoice_items"
	BucketSplits           = "splits"
	BucketAppliedCredits   = "applied_credits"
	BucketAppliedDiscounts = "applied_discounts"
	BucketPayments         = "payments"
)

var allBuckets = []string{
	BucketBuildings, BucketAccounts, BucketUnits, BucketPeople, BucketItems,
	BucketUsers, BucketCreditMemos, BucketInvoices, BucketInvoiceItems,
	BucketSplits, BucketAppliedCredits, BucketAppliedDiscounts, BucketPayments,
}

// Store represents the bbolt database wrapper.
type Store struct {
	db *bolt.DB
}

// New creates a new Store instance and initializes buckets.
func New(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
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

// nextID generates the next ID for a bucket.
func (s *Store) nextID(bucketName string) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)
		return nil
	})
	return id, err
}

// put stores a value in the specified bucket with the given key.
func (s *Store) put(bucketName string, key int64, value interface{}) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}

		return b.Put(itob(key), data)
	})
}

// get retrieves a value from the specified bucket with the given key.
func (s *Store) get(bucketName string, key int64, value interface{}) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		data := b.Get(itob(key))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, value)
	})
}

// list retrieves all raw values from the specified bucket.
func (s *Store) list(bucketName string, filter func(data []byte) bool) ([][]byte, error) {
	var results [][]byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		return b.ForEach(func(k, v []byte) error {
			if filter == nil || filter(v) {
				// Copy the value since it's only valid during the transaction.
				copied := make([]byte, len(v))
				copy(copied, v)
				results = append(results, copied)
			}
			return nil
		})
	})

	return results, err
}

// listInto decodes every record of a bucket through decode, which appends
// matching records to its own destination slice.
func (s *Store) listInto(bucketName string, decode func(data []byte) error) error {
	raw, err := s.list(bucketName, nil)
	if err != nil {
		return err
	}
	for _, data := range raw {
		if err := decode(data); err != nil {
			return err
		}
	}
	return nil
}

// itob converts an int64 to a byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
