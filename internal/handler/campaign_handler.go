package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/petpals/internal/campaign"
	"github.com/hitoshi/petpals/internal/middleware"
	"github.com/hitoshi/petpals/internal/model"
)

// suggestionLimit はランダム提案で返すキャンペーンの最大件数。
const suggestionLimit = 3

// CampaignServiceInterface はキャンペーンハンドラーが必要とするサービスインターフェース。
type CampaignServiceInterface interface {
	// Create はキャンペーンを新規作成する。
	Create(ctx context.Context, ownerEmail string, input campaign.CreateInput) (*model.DonationCampaign, error)
	// Get は指定IDのキャンペーンを返す。
	Get(ctx context.Context, id string) (*model.DonationCampaign, error)
	// List はキャンペーンのページ一覧を返す。
	List(ctx context.Context, page campaign.Page) (*campaign.ListResult, error)
	// ListByOwner はオーナーのキャンペーン一覧を返す。
	ListByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationCampaign, error)
	// Suggest は指定ID以外のキャンペーンからランダムに最大limit件を返す。
	Suggest(ctx context.Context, excludeID string, limit int) ([]*model.DonationCampaign, error)
	// Update はキャンペーンの編集可能フィールドを上書き更新する。
	Update(ctx context.Context, id string, input campaign.CreateInput) error
	// SetPause は一時停止フラグを更新する。
	SetPause(ctx context.Context, id string, paused bool) error
	// Donate はキャンペーンに寄付を適用し、更新後の残高を返す。
	Donate(ctx context.Context, id, donorEmail string, amount int64) (int64, error)
	// Refund はキャンペーンから返金を適用し、更新後の残高を返す。
	Refund(ctx context.Context, id string, amount int64) (int64, error)
	// Delete は指定IDのキャンペーンを削除する。削除行数を返す。
	Delete(ctx context.Context, id string) (int64, error)
	// RecordHistory は寄付履歴エントリを直接登録する。
	RecordHistory(ctx context.Context, entry *model.DonationHistoryEntry) (*model.DonationHistoryEntry, error)
	// HistoryByOwner はキャンペーンオーナー宛の寄付履歴を返す。
	HistoryByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationHistoryEntry, error)
	// HistoryByDonor は寄付者自身の寄付履歴を返す。
	HistoryByDonor(ctx context.Context, donorEmail string) ([]*model.DonationHistoryEntry, error)
	// DeleteHistory は指定IDの寄付履歴エントリを削除する。削除行数を返す。
	DeleteHistory(ctx context.Context, id string) (int64, error)
}

// CampaignHandler は寄付キャンペーンのHTTPハンドラー。
type CampaignHandler struct {
	service CampaignServiceInterface
	gate    SelfAuthorizer
}

// NewCampaignHandler はCampaignHandlerを生成する。
func NewCampaignHandler(service CampaignServiceInterface, gate SelfAuthorizer) *CampaignHandler {
	return &CampaignHandler{service: service, gate: gate}
}

// campaignRequest はキャンペーン作成・編集リクエストのボディ。
type campaignRequest struct {
	PetName          string    `json:"petName"`
	Image            string    `json:"image"`
	MaxAmount        int64     `json:"maxAmount"`
	LastDate         time.Time `json:"lastDate"`
	ShortDescription string    `json:"shortDescription"`
	LongDescription  string    `json:"longDescription"`
	PauseStatus      bool      `json:"pauseStatus"`
	UserCanDonate    bool      `json:"userCanDonate"`
}

// amountRequest は寄付・返金リクエストのボディ。
type amountRequest struct {
	Amount int64 `json:"amount"`
}

// pauseRequest は一時停止フラグ更新リクエストのボディ。
type pauseRequest struct {
	PauseStatus bool `json:"pauseStatus"`
}

// historyRequest は寄付履歴登録リクエストのボディ。
type historyRequest struct {
	CampaignID string `json:"campaignId"`
	PetName    string `json:"petName"`
	OwnerEmail string `json:"ownerEmail"`
	Amount     int64  `json:"amount"`
}

// campaignResponse はキャンペーン情報のAPIレスポンス。
type campaignResponse struct {
	ID               string    `json:"id"`
	OwnerEmail       string    `json:"ownerEmail"`
	PetName          string    `json:"petName"`
	Image            string    `json:"image"`
	MaxAmount        int64     `json:"maxAmount"`
	LastDate         time.Time `json:"lastDate"`
	ShortDescription string    `json:"shortDescription"`
	LongDescription  string    `json:"longDescription"`
	PauseStatus      bool      `json:"pauseStatus"`
	UserCanDonate    bool      `json:"userCanDonate"`
	CreatedAt        time.Time `json:"createdAt"`
}

// campaignListResponse はキャンペーンのページ一覧レスポンス。
type campaignListResponse struct {
	Campaigns     []campaignResponse `json:"campaigns"`
	CampaignCount int                `json:"campaignCount"`
}

// balanceResponse は寄付・返金適用後の残高レスポンス。
type balanceResponse struct {
	MaxAmount int64 `json:"maxAmount"`
}

// historyResponse は寄付履歴エントリのAPIレスポンス。
type historyResponse struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaignId"`
	PetName    string    `json:"petName"`
	DonorEmail string    `json:"donorEmail"`
	OwnerEmail string    `json:"ownerEmail"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// List はキャンペーンのページ一覧を返す（公開）。
// GET /donationCampaign?page=&limit=
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.List(r.Context(), campaign.Page{Page: page, Limit: limit})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaignListResponse{
		Campaigns:     toCampaignResponses(result.Campaigns),
		CampaignCount: result.Total,
	})
}

// Get はキャンペーンの詳細情報を返す（公開）。
// GET /donationCampaign/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(c))
}

// ListByOwner は自分がオーナーのキャンペーン一覧を返す。
// 参照できるのは自分自身のメールアドレスのみ。
// GET /donationCampaign/user?email=
func (h *CampaignHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
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

	campaigns, err := h.service.ListByOwner(r.Context(), target)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponses(campaigns))
}

// Suggest は指定キャンペーン以外からランダムに選んだ候補を返す（公開）。
// キャンペーン詳細画面の「他のキャンペーン」表示に使用する。
// GET /donate/random?id=
func (h *CampaignHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	excludeID := r.URL.Query().Get("id")

	campaigns, err := h.service.Suggest(r.Context(), excludeID, suggestionLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponses(campaigns))
}

// Create はキャンペーンの新規作成を処理する。
// オーナーには認証済みメールアドレスが設定される。
// POST /donationCampaign
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	c, err := h.service.Create(r.Context(), identity, toCampaignInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCampaignResponse(c))
}

// Update はキャンペーンの編集を処理する。残高はこの操作では変更されない。
// PATCH /donationCampaign/update/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if err := h.service.Update(r.Context(), id, toCampaignInput(req)); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": 1})
}

// UpdatePause は一時停止フラグの更新を処理する。
// PATCH /donationCampaign/pause/{id}
func (h *CampaignHandler) UpdatePause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if err := h.service.SetPause(r.Context(), id, req.PauseStatus); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": 1})
}

// Donate は寄付の適用を処理し、更新後の残高を返す。
// 金額は増分として解釈される。
// PATCH /donationCampaign/donate/{id}
func (h *CampaignHandler) Donate(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	id := chi.URLParam(r, "id")

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	newBalance, err := h.service.Donate(r.Context(), id, identity, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{MaxAmount: newBalance})
}

// Refund は返金の適用を処理し、更新後の残高を返す。
// 残高を超える返金は拒否され、残高は変化しない。
// PATCH /donationCampaign/refund/{id}
func (h *CampaignHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	newBalance, err := h.service.Refund(r.Context(), id, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{MaxAmount: newBalance})
}

// Delete はキャンペーンの削除を処理する。
// 存在しないIDの削除もエラーにしない（冪等削除）。
// DELETE /donationCampaign/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// RecordHistory は寄付履歴エントリの直接登録を処理する。
// 残高更新後に履歴の記録だけが失敗した場合の再登録に使用する。
// POST /donationCampaign/history
func (h *CampaignHandler) RecordHistory(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	entry, err := h.service.RecordHistory(r.Context(), &model.DonationHistoryEntry{
		CampaignID: req.CampaignID,
		PetName:    req.PetName,
		DonorEmail: identity,
		OwnerEmail: req.OwnerEmail,
		Amount:     req.Amount,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHistoryResponse(entry))
}

// HistoryByOwner は自分のキャンペーン宛の寄付履歴を返す。
// 参照できるのは自分自身のメールアドレスのみ。
// GET /donationCampaign/history/{id} のワイルドカードには対象メールアドレスが入る
// （同一スロットを共有するDELETEルートとワイルドカード名を揃える必要がある）。
func (h *CampaignHandler) HistoryByOwner(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	target := chi.URLParam(r, "id")
	if err := h.gate.RequireSelf(identity, target); err != nil {
		handleServiceError(w, err)
		return
	}

	entries, err := h.service.HistoryByOwner(r.Context(), target)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponses(entries))
}

// HistoryByDonor は自分が行った寄付の履歴を返す。
// 参照できるのは自分自身のメールアドレスのみ。
// GET /donationCampaign/myDonation/{email}
func (h *CampaignHandler) HistoryByDonor(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.service.HistoryByDonor(r.Context(), target)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponses(entries))
}

// DeleteHistory は寄付履歴エントリの削除を処理する。
// DELETE /donationCampaign/history/{id}
func (h *CampaignHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteHistory(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// --- ヘルパー関数 ---

// toCampaignInput はリクエストボディからサービス層の入力に変換する。
func toCampaignInput(req campaignRequest) campaign.CreateInput {
	return campaign.CreateInput{
		PetName:          req.PetName,
		ImageURL:         req.Image,
		MaxAmount:        req.MaxAmount,
		LastDate:         req.LastDate,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		PauseStatus:      req.PauseStatus,
		UserCanDonate:    req.UserCanDonate,
	}
}

// toCampaignResponse はmodel.DonationCampaignからAPIレスポンスに変換する。
func toCampaignResponse(c *model.DonationCampaign) campaignResponse {
	return campaignResponse{
		ID:               c.ID,
		OwnerEmail:       c.OwnerEmail,
		PetName:          c.PetName,
		Image:            c.ImageURL,
		MaxAmount:        c.MaxAmount,
		LastDate:         c.LastDate,
		ShortDescription: c.ShortDescription,
		LongDescription:  c.LongDescription,
		PauseStatus:      c.PauseStatus,
		UserCanDonate:    c.UserCanDonate,
		CreatedAt:        c.CreatedAt,
	}
}

// toCampaignResponses はキャンペーンのスライスをAPIレスポンスに変換する。
func toCampaignResponses(campaigns []*model.DonationCampaign) []campaignResponse {
	resp := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		resp = append(resp, toCampaignResponse(c))
	}
	return resp
}

// toHistoryResponse はmodel.DonationHistoryEntryからAPIレスポンスに変換する。
func toHistoryResponse(e *model.DonationHistoryEntry) historyResponse {
	return historyResponse{
		ID:         e.ID,
		CampaignID: e.CampaignID,
		PetName:    e.PetName,
		DonorEmail: e.DonorEmail,
		OwnerEmail: e.OwnerEmail,
		Amount:     e.Amount,
		CreatedAt:  e.CreatedAt,
	}
}

// toHistoryResponses は寄付履歴のスライスをAPIレスポンスに変換する。
func toHistoryResponses(entries []*model.DonationHistoryEntry) []historyResponse {
	resp := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toHistoryResponse(e))
	}
	return resp
}
