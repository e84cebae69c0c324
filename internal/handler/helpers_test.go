package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// withChiURLParam はchiのURLパラメータをリクエストに埋め込む。
// ルーター経由せずハンドラー単体でテストするためのヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
