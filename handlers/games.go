package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/monoculum/formam"

	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/ctxtemplate"
	"fknsrs.biz/p/freegames/internal/httputil"
	"fknsrs.biz/p/freegames/internal/validate"
	"fknsrs.biz/p/freegames/models"
)

func Games(rw http.ResponseWriter, r *http.Request) {
	var q models.GameQuery
	if err := formam.Decode(r.URL.Query(), &q); err != nil {
		q = models.GameQuery{}
	}

	page, err := models.SearchGames(r.Context(), ctxdb.GetDB(r.Context()), q)
	if err != nil {
		panic(err)
	}

	genres, err := models.DistinctGenres(r.Context(), ctxdb.GetDB(r.Context()))
	if err != nil {
		panic(err)
	}

	platforms, err := models.DistinctPlatforms(r.Context(), ctxdb.GetDB(r.Context()))
	if err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_games", map[string]interface{}{
		"Query":     q,
		"Page":      page,
		"Genres":    genres,
		"Platforms": platforms,
	}); err != nil {
		panic(err)
	}
}

func GameNew(rw http.ResponseWriter, r *http.Request) {
	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_game_new", map[string]interface{}{}); err != nil {
		panic(err)
	}
}

func GameCreateAction(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input models.GameInput
	if err := formam.Decode(r.PostForm, &input); err != nil {
		panic(err)
	}

	game, err := models.CreateGame(r.Context(), &input)
	if err != nil {
		var validateErr *validate.Error
		if errors.As(err, &validateErr) {
			httputil.RedirectWithError(rw, r, "/games/new", validateErr.Error())
			return
		}

		panic(err)
	}

	httputil.RedirectWithSuccess(rw, r, fmt.Sprintf("/games/%d/edit", game.ID), "Game created.")
}

func gameID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func GameEdit(rw http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	game, err := models.FindGameByID(r.Context(), ctxdb.GetDB(r.Context()), id)
	if err != nil {
		if err == models.ErrGameNotFound {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_game_edit", map[string]interface{}{
		"Game": game,
	}); err != nil {
		panic(err)
	}
}

func GameUpdateAction(rw http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input models.GameInput
	if err := formam.Decode(r.PostForm, &input); err != nil {
		panic(err)
	}

	if _, err := models.UpdateGame(r.Context(), id, &input); err != nil {
		if err == models.ErrGameNotFound {
			httputil.NotFound(rw, r)
			return
		}

		var validateErr *validate.Error
		if errors.As(err, &validateErr) {
			httputil.RedirectWithError(rw, r, fmt.Sprintf("/games/%d/edit", id), validateErr.Error())
			return
		}

		panic(err)
	}

	httputil.RedirectWithSuccess(rw, r, fmt.Sprintf("/games/%d/edit", id), "Game updated.")
}

func GameDeleteAction(rw http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	if err := models.DeleteGame(r.Context(), id); err != nil {
		if err == models.ErrGameNotFound {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	httputil.RedirectWithSuccess(rw, r, "/games", "Game deleted.")
}
