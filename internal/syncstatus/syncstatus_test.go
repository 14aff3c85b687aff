package syncstatus

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.etcd.io/bbolt"
)

func TestStore(t *testing.T) {
	a := assert.New(t)

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "settings.db"), 0644, nil)
	if !a.NoError(err) {
		return
	}
	defer db.Close()

	s := New(db)

	v, err := s.LastSyncTime()
	a.NoError(err)
	a.Nil(v)

	now := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)
	a.NoError(s.SetLastSyncTime(now))

	v, err = s.LastSyncTime()
	a.NoError(err)
	if a.NotNil(v) {
		a.True(v.Equal(now))
	}

	later := now.Add(time.Hour)
	a.NoError(s.SetLastSyncTime(later))

	v, err = s.LastSyncTime()
	a.NoError(err)
	if a.NotNil(v) {
		a.True(v.Equal(later))
	}
}
