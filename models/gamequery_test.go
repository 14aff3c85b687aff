package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/freegames/internal/ptr"
)

func TestSearchGamesFilters(t *testing.T) {
	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	mustCreateGame(t, ctx, &GameInput{
		Title:            "Space Raiders",
		ShortDescription: ptr.String("A fast arcade shooter."),
		Genre:            ptr.String("Shooter"),
		Platform:         ptr.String("PC (Windows)"),
		Publisher:        ptr.String("Orbit Publishing"),
		Developer:        ptr.String("Nova Works"),
	})

	mustCreateGame(t, ctx, &GameInput{
		Title:            "Farm Tales",
		ShortDescription: ptr.String("A relaxing farming sim."),
		Genre:            ptr.String("Simulation"),
		Platform:         ptr.String("Web Browser"),
		Publisher:        ptr.String("Harvest House"),
		Developer:        ptr.String("Meadow Team"),
	})

	mustCreateGame(t, ctx, &GameInput{
		Title:            "Dungeon Depths",
		ShortDescription: ptr.String("Crawl procedurally generated dungeons."),
		Genre:            ptr.String("RPG"),
		Platform:         ptr.String("PC (Windows)"),
		Publisher:        ptr.String("Stonegate"),
		Developer:        ptr.String("Orbit Forge"),
	})

	titles := func(p *GamePage) []string {
		var a []string
		for _, g := range p.Games {
			a = append(a, g.Title)
		}
		return a
	}

	for _, tc := range []struct {
		name     string
		query    GameQuery
		expected []string
	}{
		{
			// matches publisher on one record and developer on another
			name:     "search matches any field",
			query:    GameQuery{Search: "orbit", Sort: "title", Direction: "asc"},
			expected: []string{"Dungeon Depths", "Space Raiders"},
		},
		{
			name:     "search is case insensitive",
			query:    GameQuery{Search: "ORBIT", Sort: "title", Direction: "asc"},
			expected: []string{"Dungeon Depths", "Space Raiders"},
		},
		{
			name:     "search matches description",
			query:    GameQuery{Search: "farming"},
			expected: []string{"Farm Tales"},
		},
		{
			name:     "genre filter",
			query:    GameQuery{Genre: "Shooter"},
			expected: []string{"Space Raiders"},
		},
		{
			name:     "filters combine",
			query:    GameQuery{Search: "orbit", Platform: "PC (Windows)", Genre: "RPG"},
			expected: []string{"Dungeon Depths"},
		},
		{
			name:     "no matches",
			query:    GameQuery{Search: "does not exist anywhere"},
			expected: nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)

			page, err := SearchGames(ctx, db, tc.query)
			if a.NoError(err) {
				a.Equal(tc.expected, titles(page))
				a.Equal(len(tc.expected), page.Total)
			}
		})
	}
}

func TestSearchGamesLiteralWildcards(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	mustCreateGame(t, ctx, &GameInput{Title: "100% Orange Juice"})
	mustCreateGame(t, ctx, &GameInput{Title: "100 Percent Clean"})
	mustCreateGame(t, ctx, &GameInput{Title: "snake_case quest"})
	mustCreateGame(t, ctx, &GameInput{Title: "snakeXcase quest"})

	page, err := SearchGames(ctx, db, GameQuery{Search: "100%"})
	if a.NoError(err) && a.Len(page.Games, 1) {
		a.Equal("100% Orange Juice", page.Games[0].Title)
	}

	page, err = SearchGames(ctx, db, GameQuery{Search: "snake_case"})
	if a.NoError(err) && a.Len(page.Games, 1) {
		a.Equal("snake_case quest", page.Games[0].Title)
	}
}

func TestSearchGamesUnknownSortFallsBack(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	seedCatalogue(t, ctx)

	page, err := SearchGames(ctx, db, GameQuery{Sort: "nonexistent; drop table games"})
	if !a.NoError(err) {
		return
	}

	// with identical updated_at timestamps the id tie-break takes over
	a.Equal(4, page.Total)
	if a.Len(page.Games, 4) {
		a.Equal("Alpha Strike", page.Games[0].Title)
	}
}

func TestSearchGamesPagination(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	for i := 1; i <= 20; i++ {
		mustCreateGame(t, ctx, &GameInput{Title: fmt.Sprintf("Game %02d", i)})
	}

	page, err := SearchGames(ctx, db, GameQuery{Sort: "title", Direction: "asc", Page: 1})
	if a.NoError(err) {
		a.Equal(20, page.Total)
		a.Equal(1, page.Page)
		a.Equal(2, page.LastPage)
		a.Equal(GamePageSize, page.PerPage)
		a.Len(page.Games, GamePageSize)
		a.Equal(1, page.From)
		a.Equal(15, page.To)
		a.Equal("Game 01", page.Games[0].Title)
	}

	page, err = SearchGames(ctx, db, GameQuery{Sort: "title", Direction: "asc", Page: 2})
	if a.NoError(err) {
		a.Equal(2, page.Page)
		a.Len(page.Games, 5)
		a.Equal(16, page.From)
		a.Equal(20, page.To)
		a.Equal("Game 16", page.Games[0].Title)
	}

	// out of range pages clamp instead of erroring
	page, err = SearchGames(ctx, db, GameQuery{Page: 99})
	if a.NoError(err) {
		a.Equal(2, page.Page)
	}

	page, err = SearchGames(ctx, db, GameQuery{Page: -3})
	if a.NoError(err) {
		a.Equal(1, page.Page)
	}
}

func TestSearchGamesEmptyTable(t *testing.T) {
	a := assert.New(t)

	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx, db := testContext(t, now)

	page, err := SearchGames(ctx, db, GameQuery{})
	if a.NoError(err) {
		a.Equal(0, page.Total)
		a.Equal(1, page.Page)
		a.Equal(1, page.LastPage)
		a.Equal(0, page.From)
		a.Equal(0, page.To)
		a.Empty(page.Games)
	}
}
