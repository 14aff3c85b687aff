package models

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fknsrs.biz/p/sorm"

	"fknsrs.biz/p/freegames/internal/ctxclock"
	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/ptr"
)

func init() {
	// mirror the placeholder configuration main.go applies at startup;
	// sqlite misbinds sorm's default $N placeholders positionally
	sorm.SetParameterPrefix("?")
}

func testContext(t *testing.T, now time.Time) (context.Context, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	if err := Migrate(ctx, db); err != nil {
		t.Fatal(err)
	}

	ctx = ctxdb.WithDB(ctx, db)
	ctx = ctxclock.WithClock(ctx, ctxclock.NewStaticClock(now))

	return ctx, db
}

func mustCreateGame(t *testing.T, ctx context.Context, in *GameInput) *Game {
	t.Helper()

	game, err := CreateGame(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	return game
}

func seedCatalogue(t *testing.T, ctx context.Context) {
	t.Helper()

	mustCreateGame(t, ctx, &GameInput{
		Title:            "Alpha Strike",
		ShortDescription: ptr.String("A fast arcade shooter."),
		Genre:            ptr.String("Shooter"),
		Platform:         ptr.String("PC (Windows)"),
		Publisher:        ptr.String("Bigco"),
		Developer:        ptr.String("Redwood Studios"),
		ReleaseDate:      ptr.String("2023-01-05"),
	})

	mustCreateGame(t, ctx, &GameInput{
		Title:            "Beta Quest",
		ShortDescription: ptr.String("A story-driven adventure."),
		Genre:            ptr.String("Shooter"),
		Platform:         ptr.String("Web Browser"),
		Publisher:        ptr.String("Smallco"),
		Developer:        ptr.String("Loop Games"),
		ReleaseDate:      ptr.String("2023-01-20"),
	})

	mustCreateGame(t, ctx, &GameInput{
		Title:            "Gamma Online",
		ShortDescription: ptr.String("A persistent online world."),
		Genre:            ptr.String("MMORPG"),
		Platform:         ptr.String("PC (Windows)"),
		Publisher:        ptr.String("Bigco"),
		Developer:        ptr.String("Redwood Studios"),
		ReleaseDate:      ptr.String("2023-02-10"),
	})

	mustCreateGame(t, ctx, &GameInput{
		Title: "Delta",
	})
}
