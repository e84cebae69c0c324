package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/petpals/internal/model"
)

// AdminAuthorizer は管理者判定に必要なインターフェース。
// authz.Gateの部分集合として定義する。
type AdminAuthorizer interface {
	RequireAdmin(ctx context.Context, email string) error
}

// NewAdminMiddleware は認証済みユーザーが管理者であることを要求する
// ミドルウェアを返す。必ずNewAuthMiddlewareの後段に配置すること。
// 未認証リクエストに対してロール参照が行われることはない。
func NewAdminMiddleware(gate AdminAuthorizer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := EmailFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			if err := gate.RequireAdmin(r.Context(), email); err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					WriteErrorResponse(w, http.StatusForbidden, apiErr)
					return
				}
				slog.Error("admin role lookup failed",
					slog.String("email", email),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
