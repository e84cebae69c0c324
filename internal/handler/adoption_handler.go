package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/petpals/internal/adoption"
	"github.com/hitoshi/petpals/internal/model"
)

// AdoptionServiceInterface は里親申請ハンドラーが必要とするサービスインターフェース。
type AdoptionServiceInterface interface {
	// Create は里親申請を作成する。
	Create(ctx context.Context, input adoption.CreateInput) (*model.AdoptionRequest, error)
	// ListByOwner は掲載者宛の申請一覧を返す。
	ListByOwner(ctx context.Context, ownerEmail string) ([]*model.AdoptionRequest, error)
	// SetStatus は申請状態を更新する。更新行数を返す。
	SetStatus(ctx context.Context, id string, status model.AdoptionStatus) (int64, error)
	// Delete は指定IDの申請を削除する。削除行数を返す。
	Delete(ctx context.Context, id string) (int64, error)
}

// AdoptionHandler は里親申請のHTTPハンドラー。
type AdoptionHandler struct {
	service AdoptionServiceInterface
}

// NewAdoptionHandler はAdoptionHandlerを生成する。
func NewAdoptionHandler(service AdoptionServiceInterface) *AdoptionHandler {
	return &AdoptionHandler{service: service}
}

// adoptionRequestBody は里親申請リクエストのボディ。
type adoptionRequestBody struct {
	PetID          string `json:"petId"`
	PetName        string `json:"petName"`
	OwnerEmail     string `json:"ownerEmail"`
	RequesterName  string `json:"requesterName"`
	RequesterEmail string `json:"requesterEmail"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
}

// updateStatusRequest は申請状態更新リクエストのボディ。
type updateStatusRequest struct {
	Status string `json:"status"`
}

// adoptionResponse は里親申請のAPIレスポンス。
type adoptionResponse struct {
	ID             string    `json:"id"`
	PetID          string    `json:"petId"`
	PetName        string    `json:"petName"`
	OwnerEmail     string    `json:"ownerEmail"`
	RequesterName  string    `json:"requesterName"`
	RequesterEmail string    `json:"requesterEmail"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Create は里親申請の登録を処理する。状態はpendingで開始する。
// POST /adoptionRequest
func (h *AdoptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req adoptionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), adoption.CreateInput{
		PetID:          req.PetID,
		PetName:        req.PetName,
		OwnerEmail:     req.OwnerEmail,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		Phone:          req.Phone,
		Address:        req.Address,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAdoptionResponse(created))
}

// ListByOwner は掲載者宛の申請一覧を返す。
// GET /adoptionRequest?email=
func (h *AdoptionHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	reqs, err := h.service.ListByOwner(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]adoptionResponse, 0, len(reqs))
	for _, req := range reqs {
		resp = append(resp, toAdoptionResponse(req))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus は申請状態の更新を処理する。
// PATCH /adoptionRequest/status/{id}
func (h *AdoptionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.SetStatus(r.Context(), id, model.AdoptionStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Delete は里親申請の削除を処理する。
// 存在しないIDの削除もエラーにしない（冪等削除）。
// DELETE /adoptionRequest/{id}
func (h *AdoptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// toAdoptionResponse はmodel.AdoptionRequestからAPIレスポンスに変換する。
func toAdoptionResponse(a *model.AdoptionRequest) adoptionResponse {
	return adoptionResponse{
		ID:             a.ID,
		PetID:          a.PetID,
		PetName:        a.PetName,
		OwnerEmail:     a.OwnerEmail,
		RequesterName:  a.RequesterName,
		RequesterEmail: a.RequesterEmail,
		Phone:          a.Phone,
		Address:        a.Address,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
	}
}
