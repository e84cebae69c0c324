// Package payment はStripe PaymentIntent APIのクライアントを提供する。
// 決済フローのうちサーバー側が担うのはPaymentIntentの作成1回のみで、
// 返されたclient_secretをそのままフロントエンドへ渡す。
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/petpals/internal/model"
)

// defaultEndpoint はStripe PaymentIntent作成APIのエンドポイント。
const defaultEndpoint = "https://api.stripe.com/v1/payment_intents"

// Client はStripe APIのクライアント。
type Client struct {
	httpClient *http.Client
	secretKey  string
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, secretKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		secretKey:  secretKey,
		logger:     logger,
		endpoint:   defaultEndpoint,
	}
}

// intentResponse はStripeレスポンスのうち使用するフィールドのみを表す。
type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent は指定金額（最小通貨単位）のPaymentIntentを作成し、
// client_secretを返す。amountが0以下の場合はリクエストを送らず
// InvalidAmountを返す。
func (c *Client) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", model.NewInvalidAmountError(amount)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", "usd")
	form.Add("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("payment intent request failed",
			slog.String("error", err.Error()),
			slog.Int64("amount", amount),
		)
		return "", model.NewPaymentFailedError()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read payment intent response",
			slog.String("error", err.Error()),
		)
		return "", model.NewPaymentFailedError()
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("payment provider returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.Int64("amount", amount),
		)
		return "", model.NewPaymentFailedError()
	}

	var intent intentResponse
	if err := json.Unmarshal(body, &intent); err != nil {
		c.logger.Error("failed to parse payment intent response",
			slog.String("error", err.Error()),
		)
		return "", model.NewPaymentFailedError()
	}
	if intent.ClientSecret == "" {
		return "", model.NewPaymentFailedError()
	}

	return intent.ClientSecret, nil
}
