package catalogsync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/sorm"

	"fknsrs.biz/p/freegames/internal/catchpanic"
	"fknsrs.biz/p/freegames/internal/ctxclock"
	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/ctxlogger"
	"fknsrs.biz/p/freegames/internal/ctxsyncstatus"
	"fknsrs.biz/p/freegames/internal/freetogame"
	"fknsrs.biz/p/freegames/internal/ptr"
	"fknsrs.biz/p/freegames/models"
)

var DefaultTimeout = time.Second * 30

type Options struct {
	URL     string
	Timeout time.Duration
}

type Result struct {
	Created int
	Updated int
}

// SyncError marks a failure as having happened inside a sync run, so
// callers can report it against the sync operation rather than whatever
// request triggered it.
type SyncError struct {
	err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("catalogsync: sync failed: %s", e.err.Error())
}

func (e *SyncError) Unwrap() error {
	return e.err
}

// Run fetches the upstream catalogue and reconciles it into the local
// database. Records are created or updated but never deleted; upstream
// records that already match the local copy are left untouched.
func Run(ctx context.Context, opts Options) (*Result, error) {
	return catchpanic.CatchErr1(func() (*Result, error) {
		return run(ctx, opts)
	})
}

func run(ctx context.Context, opts Options) (*Result, error) {
	l := ctxlogger.GetLogger(ctx)

	url := opts.URL
	if url == "" {
		url = freetogame.DefaultURL
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	games, err := freetogame.GetGames(fetchCtx, url)
	if err != nil {
		return nil, &SyncError{err: err}
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return nil, &SyncError{err: err}
	}

	var res Result

	for _, g := range games {
		if err := syncOne(ctx, &g, now, &res); err != nil {
			return nil, &SyncError{err: fmt.Errorf("record %d (%q): %w", g.ID, g.Title, err)}
		}
	}

	if err := ctxsyncstatus.Set(ctx, now); err != nil {
		return nil, &SyncError{err: err}
	}

	l.WithFields(logrus.Fields{
		"sync.total":   len(games),
		"sync.created": res.Created,
		"sync.updated": res.Updated,
	}).Info("catalogue sync complete")

	return &res, nil
}

func syncOne(ctx context.Context, g *freetogame.Game, now time.Time, res *Result) error {
	return ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := models.FindGameByExternalID(ctx, tx, g.ID)
		if err != nil && err != models.ErrGameNotFound {
			return err
		}

		if existing == nil {
			rec := models.Game{
				CreatedAt:  now,
				UpdatedAt:  now,
				ExternalID: ptr.Int(g.ID),
			}

			applyUpstream(&rec, g)

			if err := sorm.CreateRecord(ctx, tx, &rec); err != nil {
				return err
			}

			res.Created++

			return nil
		}

		if !drifted(existing, g) {
			return nil
		}

		applyUpstream(existing, g)
		existing.UpdatedAt = now

		if err := sorm.SaveRecord(ctx, tx, existing); err != nil {
			return err
		}

		res.Updated++

		return nil
	})
}

func applyUpstream(rec *models.Game, g *freetogame.Game) {
	rec.Title = g.Title
	rec.Thumbnail = optional(g.Thumbnail)
	rec.ShortDescription = optional(g.ShortDescription)
	rec.GameURL = optional(g.GameURL)
	rec.Genre = optional(g.Genre)
	rec.Platform = optional(g.Platform)
	rec.Publisher = optional(g.Publisher)
	rec.Developer = optional(g.Developer)
	rec.ReleaseDate = optional(g.ReleaseDate)
	rec.ProfileURL = optional(g.ProfileURL)
}

// drifted compares an upstream record against the local copy. A nil local
// field and an empty upstream field count as equal.
func drifted(rec *models.Game, g *freetogame.Game) bool {
	if rec.Title != g.Title {
		return true
	}

	pairs := []struct {
		local    *string
		upstream string
	}{
		{rec.Thumbnail, g.Thumbnail},
		{rec.ShortDescription, g.ShortDescription},
		{rec.GameURL, g.GameURL},
		{rec.Genre, g.Genre},
		{rec.Platform, g.Platform},
		{rec.Publisher, g.Publisher},
		{rec.Developer, g.Developer},
		{rec.ReleaseDate, g.ReleaseDate},
		{rec.ProfileURL, g.ProfileURL},
	}

	for _, p := range pairs {
		var s string
		if p.local != nil {
			s = *p.local
		}

		if s != p.upstream {
			return true
		}
	}

	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return ptr.String(s)
}
