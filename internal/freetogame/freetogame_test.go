package freetogame

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fixture = `[
  {
    "id": 540,
    "title": "Overwatch 2",
    "thumbnail": "https://www.freetogame.com/g/540/thumbnail.jpg",
    "short_description": "A hero-focused first-person team shooter.",
    "game_url": "https://www.freetogame.com/open/overwatch-2",
    "genre": "Shooter",
    "platform": "PC (Windows)",
    "publisher": "Activision Blizzard",
    "developer": "Blizzard Entertainment",
    "release_date": "2022-10-04",
    "freetogame_profile_url": "https://www.freetogame.com/overwatch-2"
  },
  {
    "id": "516",
    "title": "PUBG: BATTLEGROUNDS",
    "thumbnail": null,
    "short_description": 12.5,
    "game_url": "https://www.freetogame.com/open/pubg",
    "genre": "Shooter",
    "platform": "PC (Windows)",
    "publisher": "KRAFTON, Inc.",
    "developer": "KRAFTON, Inc.",
    "release_date": "Coming soon",
    "freetogame_profile_url": "https://www.freetogame.com/pubg"
  }
]`

func TestGetGames(t *testing.T) {
	a := assert.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("content-type", "application/json")
		_, _ = rw.Write([]byte(fixture))
	}))
	defer s.Close()

	games, err := GetGames(context.Background(), s.URL)
	if a.NoError(err) && a.Len(games, 2) {
		a.Equal(540, games[0].ID)
		a.Equal("Overwatch 2", games[0].Title)
		a.Equal("2022-10-04", games[0].ReleaseDate)
		a.Equal("https://www.freetogame.com/overwatch-2", games[0].ProfileURL)

		a.Equal(516, games[1].ID)
		a.Equal("", games[1].Thumbnail)
		a.Equal("12.5", games[1].ShortDescription)
		a.Equal("", games[1].ReleaseDate)
		a.Equal("https://www.freetogame.com/pubg", games[1].ProfileURL)
	}
}

func TestGetGamesMissingID(t *testing.T) {
	a := assert.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`[{"title":"No ID Here"}]`))
	}))
	defer s.Close()

	_, err := GetGames(context.Background(), s.URL)
	a.Error(err)
}

func TestGetGamesBadStatus(t *testing.T) {
	a := assert.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "upstream broke", http.StatusBadGateway)
	}))
	defer s.Close()

	_, err := GetGames(context.Background(), s.URL)
	a.Error(err)
}

func TestStringValue(t *testing.T) {
	a := assert.New(t)

	a.Equal("hello", stringValue(" hello "))
	a.Equal("5", stringValue(float64(5)))
	a.Equal("5.5", stringValue(5.5))
	a.Equal("", stringValue(nil))
	a.Equal("", stringValue([]interface{}{"x"}))
}
