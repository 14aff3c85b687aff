package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fknsrs.biz/p/sorm"

	"fknsrs.biz/p/freegames/internal/ctxclock"
	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/validate"
)

var (
	ErrGameNotFound = fmt.Errorf("models: game not found")
)

// GameInput carries the mutable fields of a game record, as decoded from a
// form or mapped from the upstream catalog. Empty optional fields normalise
// to null before they reach the table.
type GameInput struct {
	Title            string  `formam:"title" validate:"required,max=255"`
	Thumbnail        *string `formam:"thumbnail" validate:"omitempty,max=500"`
	ShortDescription *string `formam:"short_description"`
	GameURL          *string `formam:"game_url" validate:"omitempty,max=500"`
	Genre            *string `formam:"genre" validate:"omitempty,max=100"`
	Platform         *string `formam:"platform" validate:"omitempty,max=100"`
	Publisher        *string `formam:"publisher" validate:"omitempty,max=255"`
	Developer        *string `formam:"developer" validate:"omitempty,max=255"`
	ReleaseDate      *string `formam:"release_date" validate:"omitempty,max=50"`
	ProfileURL       *string `formam:"profile_url" validate:"omitempty,max=500"`
	ExternalID       *int    `formam:"-"`
}

func cleanOptional(p *string) *string {
	if p == nil {
		return nil
	}

	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}

	return &s
}

func (in *GameInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Thumbnail = cleanOptional(in.Thumbnail)
	in.ShortDescription = cleanOptional(in.ShortDescription)
	in.GameURL = cleanOptional(in.GameURL)
	in.Genre = cleanOptional(in.Genre)
	in.Platform = cleanOptional(in.Platform)
	in.Publisher = cleanOptional(in.Publisher)
	in.Developer = cleanOptional(in.Developer)
	in.ReleaseDate = cleanOptional(in.ReleaseDate)
	in.ProfileURL = cleanOptional(in.ProfileURL)
}

func (in *GameInput) apply(g *Game) {
	g.Title = in.Title
	g.Thumbnail = in.Thumbnail
	g.ShortDescription = in.ShortDescription
	g.GameURL = in.GameURL
	g.Genre = in.Genre
	g.Platform = in.Platform
	g.Publisher = in.Publisher
	g.Developer = in.Developer
	g.ReleaseDate = in.ReleaseDate
	g.ProfileURL = in.ProfileURL

	if in.ExternalID != nil {
		g.ExternalID = in.ExternalID
	}
}

func CreateGame(ctx context.Context, in *GameInput) (*Game, error) {
	in.Normalize()

	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("models.CreateGame: %w", err)
	}

	var game Game
	game.CreatedAt = now
	game.UpdatedAt = now
	in.apply(&game)

	if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		return sorm.CreateRecord(ctx, tx, &game)
	}); err != nil {
		return nil, fmt.Errorf("models.CreateGame: %w", err)
	}

	return &game, nil
}

func UpdateGame(ctx context.Context, id int, in *GameInput) (*Game, error) {
	in.Normalize()

	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("models.UpdateGame: %w", err)
	}

	var game Game

	if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := sorm.FindFirstWhere(ctx, tx, &game, "where id = ?", id); err != nil {
			if err == sql.ErrNoRows {
				return ErrGameNotFound
			}

			return err
		}

		in.apply(&game)
		game.UpdatedAt = now

		return sorm.SaveRecord(ctx, tx, &game)
	}); err != nil {
		if err == ErrGameNotFound {
			return nil, err
		}

		return nil, fmt.Errorf("models.UpdateGame: %w", err)
	}

	return &game, nil
}

// DeleteGame removes a record by id. Deleting an id that does not exist is an
// error; deletion is deliberately not idempotent so repeated operator actions
// surface instead of silently succeeding.
func DeleteGame(ctx context.Context, id int) error {
	if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		var game Game
		if err := sorm.FindFirstWhere(ctx, tx, &game, "where id = ?", id); err != nil {
			if err == sql.ErrNoRows {
				return ErrGameNotFound
			}

			return err
		}

		if _, err := tx.ExecContext(ctx, "delete from games where id = ?", game.ID); err != nil {
			return err
		}

		return nil
	}); err != nil {
		if err == ErrGameNotFound {
			return err
		}

		return fmt.Errorf("models.DeleteGame: %w", err)
	}

	return nil
}

func FindGameByExternalID(ctx context.Context, q sorm.Querier, externalID int) (*Game, error) {
	var game Game
	if err := sorm.FindFirstWhere(ctx, q, &game, "where external_id = ?", externalID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGameNotFound
		}

		return nil, fmt.Errorf("models.FindGameByExternalID: %w", err)
	}

	return &game, nil
}

func FindGameByID(ctx context.Context, q sorm.Querier, id int) (*Game, error) {
	var game Game
	if err := sorm.FindFirstWhere(ctx, q, &game, "where id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGameNotFound
		}

		return nil, fmt.Errorf("models.FindGameByID: %w", err)
	}

	return &game, nil
}

func CountGames(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "select count(*) from games").Scan(&n); err != nil {
		return 0, fmt.Errorf("models.CountGames: %w", err)
	}

	return n, nil
}

func distinctValues(ctx context.Context, db *sql.DB, column string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "select distinct "+column+" from games where "+column+" is not null and "+column+" != '' order by "+column+" asc")
	if err != nil {
		return nil, fmt.Errorf("models.distinctValues: %w", err)
	}
	defer rows.Close()

	var a []string

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("models.distinctValues: %w", err)
		}

		a = append(a, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("models.distinctValues: %w", err)
	}

	return a, nil
}

func DistinctGenres(ctx context.Context, db *sql.DB) ([]string, error) {
	return distinctValues(ctx, db, "genre")
}

func DistinctPlatforms(ctx context.Context, db *sql.DB) ([]string, error) {
	return distinctValues(ctx, db, "platform")
}
