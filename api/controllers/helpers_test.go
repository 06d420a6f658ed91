package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// withRouteParam seeds a chi route parameter onto a request so
// handlers under test can resolve URL params without a full router.
func withRouteParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
