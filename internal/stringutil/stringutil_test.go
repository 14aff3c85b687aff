package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascalToSnake(t *testing.T) {
	a := assert.New(t)

	a.Equal("id", PascalToSnake("ID"))
	a.Equal("external_id", PascalToSnake("ExternalID"))
	a.Equal("title", PascalToSnake("Title"))
	a.Equal("short_description", PascalToSnake("ShortDescription"))
	a.Equal("game_url", PascalToSnake("GameURL"))
	a.Equal("profile_url", PascalToSnake("ProfileURL"))
	a.Equal("release_date", PascalToSnake("ReleaseDate"))
	a.Equal("updated_at", PascalToSnake("UpdatedAt"))
}

func TestPascalToTitle(t *testing.T) {
	a := assert.New(t)

	a.Equal("Title", PascalToTitle("Title"))
	a.Equal("Short Description", PascalToTitle("ShortDescription"))
	a.Equal("Release Date", PascalToTitle("ReleaseDate"))
}

func TestLooksTrue(t *testing.T) {
	a := assert.New(t)

	a.True(LooksTrue("true"))
	a.True(LooksTrue("yes"))
	a.True(LooksTrue("1"))
	a.False(LooksTrue("false"))
	a.False(LooksTrue(""))
}
