package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/freegames/internal/sqlbuilderutil"
	"fknsrs.biz/p/freegames/internal/sqltypes"
)

var (
	GameTable *sqlbuilderutil.Table
)

func init() {
	GameTable = sqlbuilderutil.MustMakeTable(Game{})
}

type Game struct {
	ID               int        `sql:",table:games" json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ExternalID       *int       `json:"external_id"`
	Title            string     `json:"title"`
	Thumbnail        *string    `json:"thumbnail"`
	ShortDescription *string    `json:"short_description"`
	GameURL          *string    `json:"game_url"`
	Genre            *string    `json:"genre"`
	Platform         *string    `json:"platform"`
	Publisher        *string    `json:"publisher"`
	Developer        *string    `json:"developer"`
	ReleaseDate      *string    `json:"release_date"`
	ProfileURL       *string    `json:"profile_url"`
}

func (g *Game) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		switch name {
		case "CreatedAt":
			scanners[i] = &sqltypes.TimeScanner{Value: &g.CreatedAt}
		case "UpdatedAt":
			scanners[i] = &sqltypes.TimeScanner{Value: &g.UpdatedAt}
		}
	}

	return nil
}
