package catalogsync

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"go.etcd.io/bbolt"

	"fknsrs.biz/p/sorm"

	"fknsrs.biz/p/freegames/internal/ctxclock"
	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/ctxsyncstatus"
	"fknsrs.biz/p/freegames/internal/syncstatus"
	"fknsrs.biz/p/freegames/models"
)

func init() {
	// mirror the placeholder configuration main.go applies at startup;
	// sqlite misbinds sorm's default $N placeholders positionally
	sorm.SetParameterPrefix("?")
}

func makeContext(t *testing.T, now time.Time) (context.Context, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	if err := models.Migrate(ctx, db); err != nil {
		t.Fatal(err)
	}

	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "settings.db"), 0644, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bdb.Close() })

	ctx = ctxdb.WithDB(ctx, db)
	ctx = ctxclock.WithClock(ctx, ctxclock.NewStaticClock(now))
	ctx = ctxsyncstatus.WithStore(ctx, syncstatus.New(bdb))

	return ctx, db
}

const fixture = `[
  {"id": 1, "title": "First Game", "genre": "Shooter", "platform": "PC (Windows)", "release_date": "2022-01-10", "publisher": "Pub One", "developer": "Dev One"},
  {"id": 2, "title": "Second Game", "genre": "MMORPG", "platform": "Web Browser", "release_date": "2021-05-20", "publisher": "Pub Two", "developer": "Dev Two"}
]`

func TestRunCreatesAndUpdates(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx, db := makeContext(t, now)

	var body atomic.Value
	body.Store(fixture)

	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(body.Load().(string)))
	}))
	defer s.Close()

	res, err := Run(ctx, Options{URL: s.URL})
	if a.NoError(err) {
		a.Equal(2, res.Created)
		a.Equal(0, res.Updated)
	}

	g, err := models.FindGameByExternalID(ctx, db, 1)
	if a.NoError(err) {
		a.Equal("First Game", g.Title)
		if a.NotNil(g.Genre) {
			a.Equal("Shooter", *g.Genre)
		}
		a.True(g.CreatedAt.Equal(now))
		a.True(g.UpdatedAt.Equal(now))
	}

	v, err := ctxsyncstatus.LastSyncTime(ctx)
	a.NoError(err)
	if a.NotNil(v) {
		a.True(v.Equal(now))
	}

	// an unchanged upstream payload should leave everything alone
	res, err = Run(ctx, Options{URL: s.URL})
	if a.NoError(err) {
		a.Equal(0, res.Created)
		a.Equal(0, res.Updated)
	}

	// a single changed field should register as exactly one update
	body.Store(`[
  {"id": 1, "title": "First Game", "genre": "Strategy", "platform": "PC (Windows)", "release_date": "2022-01-10", "publisher": "Pub One", "developer": "Dev One"},
  {"id": 2, "title": "Second Game", "genre": "MMORPG", "platform": "Web Browser", "release_date": "2021-05-20", "publisher": "Pub Two", "developer": "Dev Two"}
]`)

	res, err = Run(ctx, Options{URL: s.URL})
	if a.NoError(err) {
		a.Equal(0, res.Created)
		a.Equal(1, res.Updated)
	}

	g, err = models.FindGameByExternalID(ctx, db, 1)
	if a.NoError(err) && a.NotNil(g.Genre) {
		a.Equal("Strategy", *g.Genre)
	}
}

func TestRunNeverDeletes(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx, db := makeContext(t, now)

	var body atomic.Value
	body.Store(fixture)

	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(body.Load().(string)))
	}))
	defer s.Close()

	if _, err := Run(ctx, Options{URL: s.URL}); !a.NoError(err) {
		return
	}

	body.Store(`[{"id": 1, "title": "First Game", "genre": "Shooter", "platform": "PC (Windows)", "release_date": "2022-01-10", "publisher": "Pub One", "developer": "Dev One"}]`)

	res, err := Run(ctx, Options{URL: s.URL})
	if a.NoError(err) {
		a.Equal(0, res.Created)
		a.Equal(0, res.Updated)
	}

	total, err := models.CountGames(ctx, db)
	a.NoError(err)
	a.Equal(2, total)
}

func TestRunUpstreamFailureWritesNothing(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx, db := makeContext(t, now)

	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "nope", http.StatusServiceUnavailable)
	}))
	defer s.Close()

	_, err := Run(ctx, Options{URL: s.URL})
	a.Error(err)

	var syncErr *SyncError
	a.ErrorAs(err, &syncErr)

	total, err := models.CountGames(ctx, db)
	a.NoError(err)
	a.Equal(0, total)

	v, err := ctxsyncstatus.LastSyncTime(ctx)
	a.NoError(err)
	a.Nil(v)
}
