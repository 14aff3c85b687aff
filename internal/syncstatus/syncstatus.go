package syncstatus

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketName      = []byte("settings")
	lastSyncTimeKey = []byte("last_sync_time")
)

// Store keeps small operational settings in a bbolt database so they
// survive restarts.
type Store struct {
	db *bbolt.DB
}

func New(db *bbolt.DB) *Store {
	return &Store{db: db}
}

func (s *Store) SetLastSyncTime(t time.Time) error {
	tx, err := s.db.Begin(true)
	if err != nil {
		return fmt.Errorf("syncstatus.Store.SetLastSyncTime: %w", err)
	}
	defer tx.Rollback()

	b, err := tx.CreateBucketIfNotExists(bucketName)
	if err != nil {
		return fmt.Errorf("syncstatus.Store.SetLastSyncTime: %w", err)
	}

	if err := b.Put(lastSyncTimeKey, []byte(t.Format(time.RFC3339))); err != nil {
		return fmt.Errorf("syncstatus.Store.SetLastSyncTime: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("syncstatus.Store.SetLastSyncTime: %w", err)
	}

	return nil
}

// LastSyncTime returns nil with no error when a sync has never completed.
func (s *Store) LastSyncTime() (*time.Time, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("syncstatus.Store.LastSyncTime: %w", err)
	}
	defer tx.Rollback()

	b := tx.Bucket(bucketName)
	if b == nil {
		return nil, nil
	}

	d := b.Get(lastSyncTimeKey)
	if d == nil {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, string(d))
	if err != nil {
		return nil, fmt.Errorf("syncstatus.Store.LastSyncTime: %w", err)
	}

	return &t, nil
}
