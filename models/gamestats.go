package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fknsrs.biz/p/sorm"
)

type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DashboardStats mixes global and range-scoped aggregates on purpose: the
// headline totals, top genre, and latest release are table-wide KPIs, while
// the distributions and per-month series follow the selected trailing window.
type DashboardStats struct {
	TotalGames           int             `json:"total_games"`
	TotalGenres          int             `json:"total_genres"`
	TotalPlatforms       int             `json:"total_platforms"`
	TopGenre             *GenreCount     `json:"top_genre"`
	LatestGame           *Game           `json:"latest_game"`
	GenreDistribution    []GenreCount    `json:"genre_distribution"`
	PlatformDistribution []PlatformCount `json:"platform_distribution"`
	GamesPerMonth        []MonthCount    `json:"games_per_month"`
}

var statsRanges = map[string]func(time.Time) time.Time{
	"1m": func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
	"3m": func(t time.Time) time.Time { return t.AddDate(0, -3, 0) },
	"6m": func(t time.Time) time.Time { return t.AddDate(0, -6, 0) },
	"1y": func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) },
	"2y": func(t time.Time) time.Time { return t.AddDate(-2, 0, 0) },
	"3y": func(t time.Time) time.Time { return t.AddDate(-3, 0, 0) },
	"5y": func(t time.Time) time.Time { return t.AddDate(-5, 0, 0) },
}

// rangeStart maps a range selector to an inclusive release_date lower bound.
// Unknown selectors (including "all" and the empty string) apply no bound.
func rangeStart(rangeName string, now time.Time) (string, bool) {
	fn, ok := statsRanges[rangeName]
	if !ok {
		return "", false
	}

	return fn(now).Format("2006-01-02"), true
}

func countDistinct(ctx context.Context, db *sql.DB, column string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "select count(distinct "+column+") from games where "+column+" is not null and "+column+" != ''").Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func GetDashboardStats(ctx context.Context, db *sql.DB, rangeName string, now time.Time) (*DashboardStats, error) {
	var stats DashboardStats

	dateFrom, hasRange := rangeStart(rangeName, now)

	total, err := CountGames(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
	}
	stats.TotalGames = total

	if stats.TotalGenres, err = countDistinct(ctx, db, "genre"); err != nil {
		return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
	}

	if stats.TotalPlatforms, err = countDistinct(ctx, db, "platform"); err != nil {
		return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
	}

	var top GenreCount
	if err := db.QueryRowContext(ctx, "select genre, count(*) as c from games where genre is not null and genre != '' group by genre order by c desc, genre asc").Scan(&top.Genre, &top.Count); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
		}
	} else {
		stats.TopGenre = &top
	}

	var latest Game
	if err := sorm.FindFirstWhere(ctx, db, &latest, "where release_date is not null and release_date != '' order by release_date desc, id asc"); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
		}
	} else {
		stats.LatestGame = &latest
	}

	genreRows, err := groupCounts(ctx, db, "genre", dateFrom, hasRange)
	if err != nil {
		return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
	}
	for _, e := range genreRows {
		stats.GenreDistribution = append(stats.GenreDistribution, GenreCount{Genre: e.value, Count: e.count})
	}

	platformRows, err := groupCounts(ctx, db, "platform", dateFrom, hasRange)
	if err != nil {
		return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
	}
	for _, e := range platformRows {
		stats.PlatformDistribution = append(stats.PlatformDistribution, PlatformCount{Platform: e.value, Count: e.count})
	}

	if stats.GamesPerMonth, err = gamesPerMonth(ctx, db, dateFrom, hasRange); err != nil {
		return nil, fmt.Errorf("models.GetDashboardStats: %w", err)
	}

	return &stats, nil
}

type valueCount struct {
	value string
	count int
}

func groupCounts(ctx context.Context, db *sql.DB, column, dateFrom string, hasRange bool) ([]valueCount, error) {
	query := "select " + column + ", count(*) as c from games where " + column + " is not null and " + column + " != ''"
	var args []interface{}

	if hasRange {
		query += " and release_date >= ?"
		args = append(args, dateFrom)
	}

	query += " group by " + column + " order by c desc, " + column + " asc"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var a []valueCount

	for rows.Next() {
		var e valueCount
		if err := rows.Scan(&e.value, &e.count); err != nil {
			return nil, err
		}

		a = append(a, e)
	}

	return a, rows.Err()
}

func gamesPerMonth(ctx context.Context, db *sql.DB, dateFrom string, hasRange bool) ([]MonthCount, error) {
	query := "select substr(release_date, 1, 7) as month, count(*) as c from games where release_date is not null and release_date != ''"
	var args []interface{}

	if hasRange {
		query += " and release_date >= ?"
		args = append(args, dateFrom)
	}

	query += " group by month order by month asc"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var a []MonthCount

	for rows.Next() {
		var e MonthCount
		if err := rows.Scan(&e.Month, &e.Count); err != nil {
			return nil, err
		}

		a = append(a, e)
	}

	return a, rows.Err()
}
