package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, donation, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeConcurrentConflict  = "CONCURRENT_UPDATE_CONFLICT"
	ErrCodePartialWrite        = "PARTIAL_WRITE"
	ErrCodeDonationsPaused     = "DONATIONS_PAUSED"
	ErrCodeCampaignNotFound    = "CAMPAIGN_NOT_FOUND"
	ErrCodePetNotFound         = "PET_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists   = "USER_ALREADY_EXISTS"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodePaymentFailed       = "PAYMENT_FAILED"
)

// NewUnauthenticatedError は認証エラーを生成する。
// 資格情報の欠落・署名不正・期限切れはすべてこのエラーに集約される。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "ログインし直してから再度お試しください。",
	}
}

// NewForbiddenError は認可エラーを生成する。
// 有効な資格情報を持つが、ロールまたは所有権が不足している場合に使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分のアカウントのデータのみ操作できます。",
	}
}

// NewInvalidAmountError は0以下の金額に対するエラーを生成する。
func NewInvalidAmountError(amount int64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAmount,
		Message:  fmt.Sprintf("無効な金額です: %d", amount),
		Category: "validation",
		Action:   "1以上の金額を指定してください。",
	}
}

// NewInsufficientBalanceError は残高を超える返金に対するエラーを生成する。
func NewInsufficientBalanceError(balance, amount int64) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientBalance,
		Message:  fmt.Sprintf("返金額が残高を超えています: 残高 %d、返金額 %d", balance, amount),
		Category: "donation",
		Action:   "残高以下の金額を指定してください。",
	}
}

// NewConcurrentConflictError は残高更新の競合が解消できなかった場合のエラーを生成する。
func NewConcurrentConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeConcurrentConflict,
		Message:  "同時更新の競合により処理を完了できませんでした。",
		Category: "donation",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPartialWriteError は残高更新後の履歴書き込み失敗を表すエラーを生成する。
// 残高の更新自体はコミット済みであり、ロールバックされない。
func NewPartialWriteError() *APIError {
	return &APIError{
		Code:     ErrCodePartialWrite,
		Message:  "寄付は反映されましたが、履歴の記録に失敗しました。",
		Category: "donation",
		Action:   "寄付履歴に反映されていない場合は履歴の再登録をお試しください。",
	}
}

// NewDonationsPausedError は停止中キャンペーンへの寄付に対するエラーを生成する。
func NewDonationsPausedError() *APIError {
	return &APIError{
		Code:     ErrCodeDonationsPaused,
		Message:  "このキャンペーンは現在寄付を受け付けていません。",
		Category: "donation",
		Action:   "キャンペーンが再開されるまでお待ちください。",
	}
}

// NewCampaignNotFoundError はキャンペーン未検出エラーを生成する。
func NewCampaignNotFoundError(campaignID string) *APIError {
	return &APIError{
		Code:     ErrCodeCampaignNotFound,
		Message:  fmt.Sprintf("指定されたキャンペーンが見つかりません: %s", campaignID),
		Category: "donation",
		Action:   "キャンペーンIDを確認してください。",
	}
}

// NewPetNotFoundError はペット未検出エラーを生成する。
func NewPetNotFoundError(petID string) *APIError {
	return &APIError{
		Code:     ErrCodePetNotFound,
		Message:  fmt.Sprintf("指定されたペットが見つかりません: %s", petID),
		Category: "validation",
		Action:   "ペットIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidStatusError は無効な里親申請状態に対するエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な申請状態です: %s", status),
		Category: "validation",
		Action:   "状態には pending、accepted、rejected のいずれかを指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewPaymentFailedError は決済プロバイダ呼び出しの失敗エラーを生成する。
func NewPaymentFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentFailed,
		Message:  "決済情報の作成に失敗しました。",
		Category: "payment",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
