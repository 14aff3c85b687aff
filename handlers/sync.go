package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fknsrs.biz/p/freegames/internal/catalogsync"
	"fknsrs.biz/p/freegames/internal/ctxconfig"
	"fknsrs.biz/p/freegames/internal/ctxlogger"
	"fknsrs.biz/p/freegames/internal/ctxsyncstatus"
	"fknsrs.biz/p/freegames/internal/httputil"
)

func SyncAction(rw http.ResponseWriter, r *http.Request) {
	cfg := ctxconfig.GetConfig(r.Context())

	res, err := catalogsync.Run(r.Context(), catalogsync.Options{
		URL:     cfg.SyncURL,
		Timeout: cfg.SyncTimeout.Value(),
	})
	if err != nil {
		ctxlogger.GetLogger(r.Context()).WithError(err).Error("catalogue sync failed")
		httputil.RedirectWithError(rw, r, "/", "Sync failed: "+err.Error())
		return
	}

	httputil.RedirectWithSuccess(rw, r, "/", fmt.Sprintf("Sync complete. Created: %d, Updated: %d.", res.Created, res.Updated))
}

func SyncStatus(rw http.ResponseWriter, r *http.Request) {
	lastSyncTime, err := ctxsyncstatus.LastSyncTime(r.Context())
	if err != nil {
		panic(err)
	}

	var body struct {
		LastSyncTime *string `json:"last_sync_time"`
	}

	if lastSyncTime != nil {
		s := lastSyncTime.Format(time.RFC3339)
		body.LastSyncTime = &s
	}

	rw.Header().Set("content-type", "application/json")

	if err := json.NewEncoder(rw).Encode(body); err != nil {
		panic(err)
	}
}
