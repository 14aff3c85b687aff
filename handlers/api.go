package handlers

import (
	"encoding/json"
	"net/http"

	"fknsrs.biz/p/sorm/qsorm"
	sb "fknsrs.biz/p/sqlbuilder"
	"github.com/gost/godata"

	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/godatautil"
	"fknsrs.biz/p/freegames/models"
)

const apiDefaultPageSize = 100

func GamesAPI(rw http.ResponseWriter, r *http.Request) {
	q, err := godata.ParseUrlQuery(r.URL.Query())
	if err != nil {
		http.Error(rw, "invalid query: "+err.Error(), http.StatusBadRequest)
		return
	}

	condition, err := godatautil.MakeCondition(q, models.GameTable)
	if err != nil {
		http.Error(rw, "invalid filter: "+err.Error(), http.StatusBadRequest)
		return
	}

	orders, err := godatautil.MakeOrders(q, models.GameTable, sb.OrderDesc(models.GameTable.C("UpdatedAt")))
	if err != nil {
		http.Error(rw, "invalid ordering: "+err.Error(), http.StatusBadRequest)
		return
	}

	var games []models.Game
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&games,
		condition,
		orders,
		godatautil.MakeOffsetLimit(q, 0, apiDefaultPageSize),
	); err != nil {
		panic(err)
	}

	if games == nil {
		games = []models.Game{}
	}

	rw.Header().Set("content-type", "application/json")

	if err := json.NewEncoder(rw).Encode(games); err != nil {
		panic(err)
	}
}
