package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/freegames/internal/ptr"
)

func TestGetDashboardStats(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	seedCatalogue(t, ctx)

	stats, err := GetDashboardStats(ctx, db, "", now)
	if !a.NoError(err) {
		return
	}

	a.Equal(4, stats.TotalGames)
	a.Equal(2, stats.TotalGenres)
	a.Equal(2, stats.TotalPlatforms)

	if a.NotNil(stats.TopGenre) {
		a.Equal("Shooter", stats.TopGenre.Genre)
		a.Equal(2, stats.TopGenre.Count)
	}

	if a.NotNil(stats.LatestGame) {
		a.Equal("Gamma Online", stats.LatestGame.Title)
	}

	a.Equal([]GenreCount{
		{Genre: "Shooter", Count: 2},
		{Genre: "MMORPG", Count: 1},
	}, stats.GenreDistribution)

	a.Equal([]PlatformCount{
		{Platform: "PC (Windows)", Count: 2},
		{Platform: "Web Browser", Count: 1},
	}, stats.PlatformDistribution)

	a.Equal([]MonthCount{
		{Month: "2023-01", Count: 2},
		{Month: "2023-02", Count: 1},
	}, stats.GamesPerMonth)
}

func TestGetDashboardStatsRange(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	seedCatalogue(t, ctx)

	stats, err := GetDashboardStats(ctx, db, "1m", now)
	if !a.NoError(err) {
		return
	}

	// headline numbers stay global even when a window is selected
	a.Equal(4, stats.TotalGames)
	if a.NotNil(stats.TopGenre) {
		a.Equal("Shooter", stats.TopGenre.Genre)
	}

	a.Equal([]GenreCount{{Genre: "MMORPG", Count: 1}}, stats.GenreDistribution)
	a.Equal([]PlatformCount{{Platform: "PC (Windows)", Count: 1}}, stats.PlatformDistribution)
	a.Equal([]MonthCount{{Month: "2023-02", Count: 1}}, stats.GamesPerMonth)
}

func TestGetDashboardStatsUnknownRange(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	seedCatalogue(t, ctx)

	all, err := GetDashboardStats(ctx, db, "", now)
	if !a.NoError(err) {
		return
	}

	unknown, err := GetDashboardStats(ctx, db, "last-tuesday", now)
	if !a.NoError(err) {
		return
	}

	a.Equal(all, unknown)
}

func TestGetDashboardStatsTopGenreTie(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	mustCreateGame(t, ctx, &GameInput{Title: "One", Genre: ptr.String("Strategy")})
	mustCreateGame(t, ctx, &GameInput{Title: "Two", Genre: ptr.String("Action")})

	stats, err := GetDashboardStats(ctx, db, "", now)
	if !a.NoError(err) {
		return
	}

	// equal counts resolve alphabetically
	if a.NotNil(stats.TopGenre) {
		a.Equal("Action", stats.TopGenre.Genre)
		a.Equal(1, stats.TopGenre.Count)
	}
}

func TestGetDashboardStatsEmpty(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	stats, err := GetDashboardStats(ctx, db, "", now)
	if !a.NoError(err) {
		return
	}

	a.Equal(0, stats.TotalGames)
	a.Nil(stats.TopGenre)
	a.Nil(stats.LatestGame)
	a.Empty(stats.GenreDistribution)
	a.Empty(stats.GamesPerMonth)
}

