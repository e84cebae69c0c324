package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/petpals/internal/middleware"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/pet"
)

// PetServiceInterface はペットハンドラーが必要とするサービスインターフェース。
type PetServiceInterface interface {
	// ListAll は全ペットのページ一覧を返す（管理者用）。
	ListAll(ctx context.Context, page pet.Page) (*pet.ListResult, error)
	// ListAvailable は里親未決定のペットのページ一覧を返す（公開用）。
	ListAvailable(ctx context.Context, page pet.Page) (*pet.ListResult, error)
	// ListByOwner は指定掲載者のペットのページ一覧を返す。
	ListByOwner(ctx context.Context, email string, page pet.Page) (*pet.ListResult, error)
	// ListByCategory はカテゴリの部分一致でペットを検索する。
	ListByCategory(ctx context.Context, category string) ([]*model.Pet, error)
	// Search は名前またはカテゴリの部分一致でペットを検索する。
	Search(ctx context.Context, name, category string) ([]*model.Pet, error)
	// Get は指定IDのペットを返す。
	Get(ctx context.Context, id string) (*model.Pet, error)
	// Create はペットを新規登録する。
	Create(ctx context.Context, input pet.CreateInput) (*model.Pet, error)
	// Update は指定IDのペット情報を上書き更新する。
	Update(ctx context.Context, id string, input pet.CreateInput) (int64, error)
	// SetAdopted は里親決定フラグを更新する。
	SetAdopted(ctx context.Context, id string, adopted bool) error
	// Delete は指定IDのペットを削除する。削除行数を返す。
	Delete(ctx context.Context, id string) (int64, error)
}

// SelfAuthorizer は本人限定ルートの認可判定のインターフェース。
type SelfAuthorizer interface {
	RequireSelf(identityEmail, targetEmail string) error
}

// PetHandler はペット掲載のHTTPハンドラー。
type PetHandler struct {
	service PetServiceInterface
	gate    SelfAuthorizer
}

// NewPetHandler はPetHandlerを生成する。
func NewPetHandler(service PetServiceInterface, gate SelfAuthorizer) *PetHandler {
	return &PetHandler{service: service, gate: gate}
}

// petRequest はペット登録・更新リクエストのボディ。
type petRequest struct {
	Email            string `json:"email"`
	PetName          string `json:"petName"`
	PetAge           string `json:"petAge"`
	PetCategory      string `json:"petCategory"`
	Location         string `json:"location"`
	Image            string `json:"image"`
	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
}

// updateAdoptedRequest は里親決定フラグ更新リクエストのボディ。
type updateAdoptedRequest struct {
	Adopted bool `json:"adopted"`
}

// petResponse はペット情報のAPIレスポンス。
type petResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PetName          string    `json:"petName"`
	PetAge           string    `json:"petAge"`
	PetCategory      string    `json:"petCategory"`
	Location         string    `json:"location"`
	Image            string    `json:"image"`
	ShortDescription string    `json:"shortDescription"`
	LongDescription  string    `json:"longDescription"`
	Adopted          bool      `json:"adopted"`
	CreatedAt        time.Time `json:"createdAt"`
}

// petListResponse はペットのページ一覧レスポンス。
// petsCountにはフィルタ条件での総件数が入る。
type petListResponse struct {
	Pets      []petResponse `json:"pets"`
	PetsCount int           `json:"petsCount"`
}

// parsePage はpage/limitクエリパラメータを解析する。
// 不正な値はサービス層でデフォルトに丸められる。
func parsePage(r *http.Request) pet.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return pet.Page{Page: page, Limit: limit}
}

// ListAll は全ペットのページ一覧を返す（管理者専用）。
// GET /pets?page=&limit=
func (h *PetHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListAll(r.Context(), parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetListResponse(result))
}

// Listing は里親募集中のペットのページ一覧を返す（公開）。
// 総件数も里親未決定のペットのみを数える。
// GET /pets/listing?page=&limit=
func (h *PetHandler) Listing(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListAvailable(r.Context(), parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetListResponse(result))
}

// ListByOwner は自分が掲載したペットの一覧を返す。
// 参照できるのは自分自身のメールアドレスのみ。
// GET /pets/userAdded/{email}?page=&limit=
func (h *PetHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	target := chi.URLParam(r, "email")
	if err := h.gate.RequireSelf(identity, target); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.ListByOwner(r.Context(), target, parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetListResponse(result))
}

// ListByCategory はカテゴリ別のペット一覧を返す（公開）。
// GET /pets/category/{category}
func (h *PetHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	pets, err := h.service.ListByCategory(r.Context(), category)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetResponses(pets))
}

// Details はペットの詳細情報を返す（公開）。
// GET /pets/details/{id}
func (h *PetHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetResponse(p))
}

// Search は名前またはカテゴリの部分一致検索を処理する（公開）。
// 名前とカテゴリの両方が指定された場合は名前を優先する。
// GET /pets/search?name=&category=
func (h *PetHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	category := r.URL.Query().Get("category")

	pets, err := h.service.Search(r.Context(), name, category)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetResponses(pets))
}

// Create はペットの新規掲載を処理する。
// POST /pets
func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	p, err := h.service.Create(r.Context(), toPetInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPetResponse(p))
}

// Update はペット掲載情報の更新を処理する。更新後は里親未決定に戻る。
// PATCH /pets/{id}
func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), id, toPetInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// UpdateStatus は里親決定フラグの更新を処理する。
// PATCH /pets/status/{id}
func (h *PetHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAdoptedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if err := h.service.SetAdopted(r.Context(), id, req.Adopted); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": 1})
}

// Delete はペット掲載の削除を処理する。
// 存在しないIDの削除もエラーにしない（冪等削除）。
// DELETE /pets/{id}
func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// --- ヘルパー関数 ---

// toPetInput はリクエストボディからサービス層の入力に変換する。
func toPetInput(req petRequest) pet.CreateInput {
	return pet.CreateInput{
		Email:            req.Email,
		PetName:          req.PetName,
		PetAge:           req.PetAge,
		PetCategory:      req.PetCategory,
		Location:         req.Location,
		ImageURL:         req.Image,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
	}
}

// toPetResponse はmodel.PetからAPIレスポンスに変換する。
func toPetResponse(p *model.Pet) petResponse {
	return petResponse{
		ID:               p.ID,
		Email:            p.Email,
		PetName:          p.PetName,
		PetAge:           p.PetAge,
		PetCategory:      p.PetCategory,
		Location:         p.Location,
		Image:            p.ImageURL,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		Adopted:          p.Adopted,
		CreatedAt:        p.CreatedAt,
	}
}

// toPetResponses はペットのスライスをAPIレスポンスに変換する。
func toPetResponses(pets []*model.Pet) []petResponse {
	resp := make([]petResponse, 0, len(pets))
	for _, p := range pets {
		resp = append(resp, toPetResponse(p))
	}
	return resp
}

// toPetListResponse はページ取得結果をAPIレスポンスに変換する。
func toPetListResponse(result *pet.ListResult) petListResponse {
	return petListResponse{
		Pets:      toPetResponses(result.Pets),
		PetsCount: result.Total,
	}
}
