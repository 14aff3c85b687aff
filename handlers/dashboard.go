package handlers

import (
	"net/http"

	"fknsrs.biz/p/freegames/internal/ctxclock"
	"fknsrs.biz/p/freegames/internal/ctxdb"
	"fknsrs.biz/p/freegames/internal/ctxsyncstatus"
	"fknsrs.biz/p/freegames/internal/ctxtemplate"
	"fknsrs.biz/p/freegames/models"
)

func Dashboard(rw http.ResponseWriter, r *http.Request) {
	rangeName := r.URL.Query().Get("range")

	now, err := ctxclock.Now(r.Context())
	if err != nil {
		panic(err)
	}

	stats, err := models.GetDashboardStats(r.Context(), ctxdb.GetDB(r.Context()), rangeName, now)
	if err != nil {
		panic(err)
	}

	lastSyncTime, err := ctxsyncstatus.LastSyncTime(r.Context())
	if err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_dashboard", map[string]interface{}{
		"Range":        rangeName,
		"Stats":        stats,
		"LastSyncTime": lastSyncTime,
	}); err != nil {
		panic(err)
	}
}
