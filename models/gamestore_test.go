package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/freegames/internal/ptr"
	"fknsrs.biz/p/freegames/internal/validate"
)

func TestCreateGame(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	game, err := CreateGame(ctx, &GameInput{
		Title: "  Orbital Drift  ",
		Genre: ptr.String(" Racing "),
	})
	if !a.NoError(err) {
		return
	}

	a.NotZero(game.ID)
	a.Equal("Orbital Drift", game.Title)
	if a.NotNil(game.Genre) {
		a.Equal("Racing", *game.Genre)
	}
	a.True(game.CreatedAt.Equal(now))
	a.True(game.UpdatedAt.Equal(now))
	a.Nil(game.ExternalID)

	found, err := FindGameByID(ctx, db, game.ID)
	if a.NoError(err) {
		a.Equal(game.Title, found.Title)
	}
}

func TestCreateGameValidation(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, _ := testContext(t, now)

	_, err := CreateGame(ctx, &GameInput{Title: "   "})
	a.Error(err)

	var validateErr *validate.Error
	if a.ErrorAs(err, &validateErr) {
		a.NotEmpty(validateErr.Fields)
	}

	_, err = CreateGame(ctx, &GameInput{Title: strings.Repeat("x", 256)})
	a.ErrorAs(err, &validateErr)
}

func TestUpdateGame(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	game := mustCreateGame(t, ctx, &GameInput{
		Title: "Before",
		Genre: ptr.String("Puzzle"),
	})

	updated, err := UpdateGame(ctx, game.ID, &GameInput{
		Title:    "After",
		Platform: ptr.String("PC (Windows)"),
	})
	if !a.NoError(err) {
		return
	}

	a.Equal("After", updated.Title)
	// fields absent from the input clear, same as submitting an empty form field
	a.Nil(updated.Genre)
	if a.NotNil(updated.Platform) {
		a.Equal("PC (Windows)", *updated.Platform)
	}

	found, err := FindGameByID(ctx, db, game.ID)
	if a.NoError(err) {
		a.Equal("After", found.Title)
	}
}

func TestUpdateGameNotFound(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, _ := testContext(t, now)

	_, err := UpdateGame(ctx, 12345, &GameInput{Title: "Whatever"})
	a.True(errors.Is(err, ErrGameNotFound))
}

func TestDeleteGame(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	game := mustCreateGame(t, ctx, &GameInput{Title: "Doomed"})

	a.NoError(DeleteGame(ctx, game.ID))

	_, err := FindGameByID(ctx, db, game.ID)
	a.True(errors.Is(err, ErrGameNotFound))

	// deleting again is an error, not a no-op
	a.True(errors.Is(DeleteGame(ctx, game.ID), ErrGameNotFound))
}

func TestDistinctValues(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	seedCatalogue(t, ctx)

	genres, err := DistinctGenres(ctx, db)
	if a.NoError(err) {
		a.Equal([]string{"MMORPG", "Shooter"}, genres)
	}

	platforms, err := DistinctPlatforms(ctx, db)
	if a.NoError(err) {
		a.Equal([]string{"PC (Windows)", "Web Browser"}, platforms)
	}
}
