package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fknsrs.biz/p/sorm"
)

const GamePageSize = 15

// GameQuery holds the user-supplied listing parameters. Zero values mean "no
// filter"; unknown sort fields fall back to updated_at descending rather than
// erroring.
type GameQuery struct {
	Search    string `formam:"search"`
	Genre     string `formam:"genre"`
	Platform  string `formam:"platform"`
	Sort      string `formam:"sort"`
	Direction string `formam:"direction"`
	Page      int    `formam:"page"`
}

var gameSortFields = map[string]string{
	"title":        "title",
	"genre":        "genre",
	"platform":     "platform",
	"publisher":    "publisher",
	"developer":    "developer",
	"release_date": "release_date",
	"updated_at":   "updated_at",
	"created_at":   "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type GamePage struct {
	Games    []Game
	Total    int
	Page     int
	LastPage int
	PerPage  int
	From     int
	To       int
}

func (q GameQuery) whereClause() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.Search != "" {
		// sqlite's like is case-insensitive for ascii; % and _ in the term
		// are escaped so they match literally
		p := "%" + likeEscaper.Replace(q.Search) + "%"
		conditions = append(conditions, `(title like ? escape '\' or short_description like ? escape '\' or developer like ? escape '\' or publisher like ? escape '\')`)
		args = append(args, p, p, p, p)
	}

	if q.Genre != "" {
		conditions = append(conditions, "genre = ?")
		args = append(args, q.Genre)
	}

	if q.Platform != "" {
		conditions = append(conditions, "platform = ?")
		args = append(args, q.Platform)
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return "where " + strings.Join(conditions, " and "), args
}

func (q GameQuery) orderClause() string {
	field, ok := gameSortFields[q.Sort]
	direction := q.Direction

	if !ok {
		field = "updated_at"
		direction = "desc"
	} else if direction != "asc" {
		direction = "desc"
	}

	// id breaks ties so pagination is stable between calls
	return fmt.Sprintf("order by %s %s, id asc", field, direction)
}

// SearchGames runs the filter/sort/paginate pipeline and returns one page of
// results plus the pagination metadata needed to render page links.
func SearchGames(ctx context.Context, db *sql.DB, q GameQuery) (*GamePage, error) {
	where, args := q.whereClause()

	var total int
	if err := db.QueryRowContext(ctx, strings.TrimSpace("select count(*) from games "+where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("models.SearchGames: %w", err)
	}

	lastPage := (total + GamePageSize - 1) / GamePageSize
	if lastPage < 1 {
		lastPage = 1
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}

	offset := (page - 1) * GamePageSize

	suffix := strings.TrimSpace(fmt.Sprintf("%s %s limit %d offset %d", where, q.orderClause(), GamePageSize, offset))

	var games []Game
	if err := sorm.FindWhere(ctx, db, &games, suffix, args...); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("models.SearchGames: %w", err)
	}

	p := GamePage{
		Games:    games,
		Total:    total,
		Page:     page,
		LastPage: lastPage,
		PerPage:  GamePageSize,
	}

	if total > 0 && len(games) > 0 {
		p.From = offset + 1
		p.To = offset + len(games)
	}

	return &p, nil
}
