package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/petpals/internal/model"
)

// TokenIssuer はアクセストークン発行のインターフェース。
// token.Issuerの部分集合として定義する。
type TokenIssuer interface {
	Issue(email string) (string, error)
}

// AuthHandler はアクセストークン発行のHTTPハンドラー。
type AuthHandler struct {
	issuer TokenIssuer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// issueTokenRequest はトークン発行リクエストのボディ。
type issueTokenRequest struct {
	Email string `json:"email"`
}

// issueTokenResponse はトークン発行レスポンス。
type issueTokenResponse struct {
	Token string `json:"token"`
}

// IssueToken はサインイン済みユーザーへのアクセストークン発行を処理する。
// POST /jwt
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
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

	tokenString, err := h.issuer.Issue(req.Email)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issueTokenResponse{Token: tokenString})
}
