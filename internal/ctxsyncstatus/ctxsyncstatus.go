package ctxsyncstatus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fknsrs.biz/p/freegames/internal/syncstatus"
)

var (
	ErrNoStore = fmt.Errorf("ctxsyncstatus: no store found in context")
)

// context registration

var storeKey int

func WithStore(ctx context.Context, store *syncstatus.Store) context.Context {
	return context.WithValue(ctx, &storeKey, store)
}

func GetStore(ctx context.Context) *syncstatus.Store {
	if v := ctx.Value(&storeKey); v != nil {
		return v.(*syncstatus.Store)
	}

	return nil
}

func Set(ctx context.Context, t time.Time) error {
	store := GetStore(ctx)
	if store == nil {
		return ErrNoStore
	}

	return store.SetLastSyncTime(t)
}

func LastSyncTime(ctx context.Context) (*time.Time, error) {
	store := GetStore(ctx)
	if store == nil {
		return nil, ErrNoStore
	}

	return store.LastSyncTime()
}

// middleware

func Register(store *syncstatus.Store) func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(WithStore(r.Context(), store)))
	}
}
