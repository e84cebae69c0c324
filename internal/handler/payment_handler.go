package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/hitoshi/petpals/internal/model"
)

// PaymentClientInterface は決済ハンドラーが必要とするクライアントインターフェース。
type PaymentClientInterface interface {
	// CreateIntent は指定金額（最小通貨単位）のPaymentIntentを作成し、
	// client_secretを返す。
	CreateIntent(ctx context.Context, amount int64) (string, error)
}

// PaymentMetrics は決済レイテンシを記録するメトリクスのインターフェース。
type PaymentMetrics interface {
	RecordPaymentLatency(duration time.Duration)
}

// PaymentHandler は決済のHTTPハンドラー。
type PaymentHandler struct {
	client  PaymentClientInterface
	metrics PaymentMetrics
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(client PaymentClientInterface, metrics PaymentMetrics) *PaymentHandler {
	return &PaymentHandler{client: client, metrics: metrics}
}

// createIntentRequest はPaymentIntent作成リクエストのボディ。
// priceは主要通貨単位（ドル）で受け取る。
type createIntentRequest struct {
	Price float64 `json:"price"`
}

// createIntentResponse はPaymentIntent作成レスポンス。
type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent はPaymentIntentの作成を処理する。
// priceが0以下の場合は決済プロバイダを呼ばずに400を返す。
// POST /create-payment-intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	// 主要通貨単位から最小通貨単位（セント）に変換
	amount := int64(math.Round(req.Price * 100))
	if req.Price <= 0 || amount <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAmountError(amount))
		return
	}

	start := time.Now()
	clientSecret, err := h.client.CreateIntent(r.Context(), amount)
	if h.metrics != nil {
		h.metrics.RecordPaymentLatency(time.Since(start))
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: clientSecret})
}
