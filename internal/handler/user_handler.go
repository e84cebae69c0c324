package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/petpals/internal/middleware"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// RegisterIfAbsent はメールアドレスが未登録の場合のみユーザーを作成する。
	RegisterIfAbsent(ctx context.Context, input user.RegisterInput) (bool, *model.User, error)
	// List は全ユーザーを返す。
	List(ctx context.Context) ([]*model.User, error)
	// SetRole は指定IDのユーザーのロールを変更する。
	SetRole(ctx context.Context, id string, role model.Role) error
	// Delete は指定IDのユーザーを削除する。削除行数を返す。
	Delete(ctx context.Context, id string) (int64, error)
}

// AdminChecker は管理者判定のインターフェース。authz.Gateの部分集合。
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	RequireSelf(identityEmail, targetEmail string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	gate    AdminChecker
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, gate AdminChecker) *UserHandler {
	return &UserHandler{service: service, gate: gate}
}

// registerUserRequest はユーザー登録リクエストのボディ。
type registerUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// updateRoleRequest はロール変更リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// registerAckResponse は既存ユーザーへの登録リクエストに対する応答。
type registerAckResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message"`
}

// Register は初回サインイン時のユーザー登録を処理する。
// 既存ユーザーの場合はレコードを作らず確認応答のみ返す。
// POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "メールアドレスが空です。",
			Category: "validation",
			Action:   "メールアドレスを指定してください。",
		})
		return
	}

	created, u, err := h.service.RegisterIfAbsent(r.Context(), user.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, registerAckResponse{
			Acknowledged: true,
			Message:      "user already exists",
		})
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// ListUsers は全ユーザー一覧を返す（管理者専用）。
// GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateRole はユーザーのロール変更を処理する（管理者専用）。
// PATCH /users/{id}
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if err := h.service.SetRole(r.Context(), id, model.Role(req.Role)); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": 1})
}

// DeleteUser はユーザー削除を処理する（管理者専用）。
// 存在しないIDの削除もエラーにしない（冪等削除）。
// DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// CheckAdmin は問い合わせ対象ユーザーが管理者かを返す。
// 問い合わせできるのは自分自身のメールアドレスのみ。
// GET /user/admin?email=
func (h *UserHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	target := r.URL.Query().Get("email")
	if err := h.gate.RequireSelf(identity, target); err != nil {
		handleServiceError(w, err)
		return
	}

	isAdmin, err := h.gate.IsAdmin(r.Context(), target)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"admin": isAdmin})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		PhotoURL:  u.PhotoURL,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
