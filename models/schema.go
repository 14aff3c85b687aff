package models

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
create table if not exists games (
	id integer primary key autoincrement,
	created_at timestamp not null,
	updated_at timestamp not null,
	external_id integer unique,
	title text not null,
	thumbnail text,
	short_description text,
	game_url text,
	genre text,
	platform text,
	publisher text,
	developer text,
	release_date text,
	profile_url text
);

create index if not exists games_genre on games (genre);
create index if not exists games_platform on games (platform);
create index if not exists games_release_date on games (release_date);
`

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("models.Migrate: could not apply schema: %w", err)
	}

	return nil
}
