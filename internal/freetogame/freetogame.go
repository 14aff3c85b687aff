package freetogame

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"fknsrs.biz/p/freegames/internal/ctxhttpclient"
)

// DefaultURL is the public FreeToGame catalogue endpoint.
const DefaultURL = "https://www.freetogame.com/api/games"

// Game is one record as served by the upstream API, with every field other
// than the identifier coerced to a string. Missing or malformed optional
// fields come back as the empty string.
type Game struct {
	ID               int
	Title            string
	Thumbnail        string
	ShortDescription string
	GameURL          string
	Genre            string
	Platform         string
	Publisher        string
	Developer        string
	ReleaseDate      string
	ProfileURL       string
}

var releaseDateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// GetGames fetches and decodes the upstream catalogue. Records without a
// usable id and title make the whole fetch fail, since a partial sync from a
// half-broken payload is worse than no sync at all.
func GetGames(ctx context.Context, url string) ([]Game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("freetogame.GetGames: %w", err)
	}

	res, err := ctxhttpclient.GetHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("freetogame.GetGames: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freetogame.GetGames: unexpected response status %d (%s)", res.StatusCode, res.Status)
	}

	d, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("freetogame.GetGames: %w", err)
	}

	obj, err := gabs.ParseJSON(d)
	if err != nil {
		return nil, fmt.Errorf("freetogame.GetGames: %w", err)
	}

	children := obj.Children()
	if children == nil {
		return nil, fmt.Errorf("freetogame.GetGames: expected a json array at the top level")
	}

	a := make([]Game, 0, len(children))

	for i, c := range children {
		id, ok := intValue(c.Path("id").Data())
		if !ok {
			return nil, fmt.Errorf("freetogame.GetGames: record %d has no usable id field", i)
		}

		title := stringValue(c.Path("title").Data())
		if title == "" {
			return nil, fmt.Errorf("freetogame.GetGames: record %d (id %d) has no usable title field", i, id)
		}

		g := Game{
			ID:               id,
			Title:            title,
			Thumbnail:        stringValue(c.Path("thumbnail").Data()),
			ShortDescription: stringValue(c.Path("short_description").Data()),
			GameURL:          stringValue(c.Path("game_url").Data()),
			Genre:            stringValue(c.Path("genre").Data()),
			Platform:         stringValue(c.Path("platform").Data()),
			Publisher:        stringValue(c.Path("publisher").Data()),
			Developer:        stringValue(c.Path("developer").Data()),
			ProfileURL:       stringValue(c.Path("freetogame_profile_url").Data()),
		}

		if s := stringValue(c.Path("release_date").Data()); releaseDateRegexp.MatchString(s) {
			g.ReleaseDate = s
		}

		a = append(a, g)
	}

	return a, nil
}

// stringValue canonicalises whatever json value the upstream put into a
// field. Numbers lose any ".0" suffix so re-syncs of unchanged records don't
// register as drift.
func stringValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func intValue(v interface{}) (int, bool) {
	switch v := v.(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}

	return 0, false
}
