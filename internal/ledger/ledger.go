// Package ledger は寄付キャンペーン残高の増減ロジックを提供する。
//
// 残高（maxAmount）は複数のリクエストから同時に更新されうる唯一の共有状態であり、
// すべての増減はキャンペーンIDごとに直列化されなければならない。直列化は
// ストア層の条件付き更新（読み取り時の残高と一致する場合のみ更新が成立するCAS）と、
// 失敗時の読み直し・再試行で実現する。これにより2つの返金が同じ古い残高を見て
// 双方とも通過し、残高が負になる競合を防ぐ。
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/repository"
)

// maxAttempts はCAS競合時の読み直し・再試行の上限回数。
// 超過した場合はConcurrentUpdateConflictとして呼び出し元に返す。
const maxAttempts = 3

// Metrics はledgerが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordDonation(amount int64)
	RecordRefund(amount int64)
	RecordRefundRejected()
	RecordBalanceConflict()
	RecordPartialWrite()
}

// Updater はキャンペーン残高への寄付・返金の適用を行う。
type Updater struct {
	campaigns repository.CampaignRepository
	donations repository.DonationRepository
	metrics   Metrics
	logger    *slog.Logger
}

// NewUpdater はUpdaterを生成する。metricsはnilでもよい。
func NewUpdater(
	campaigns repository.CampaignRepository,
	donations repository.DonationRepository,
	metrics Metrics,
	logger *slog.Logger,
) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		campaigns: campaigns,
		donations: donations,
		metrics:   metrics,
		logger:    logger,
	}
}

// ApplyDonation はキャンペーン残高にamountを加算し、寄付履歴を記録する。
// 更新後の残高を返す。
//
// amountが0以下の場合はInvalidAmount、キャンペーンが寄付停止中の場合は
// DonationsPausedを返す。残高更新のコミット後に履歴の書き込みが失敗した場合、
// 残高はロールバックせずPartialWriteを返す（呼び出し側は履歴の再登録で回復する）。
func (u *Updater) ApplyDonation(ctx context.Context, campaignID, donorEmail string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.NewInvalidAmountError(amount)
	}

	var campaign *model.DonationCampaign
	newBalance, err := u.adjust(ctx, campaignID, func(c *model.DonationCampaign) (int64, error) {
		if !c.AcceptsDonations() {
			return 0, model.NewDonationsPausedError()
		}
		campaign = c
		return c.MaxAmount + amount, nil
	})
	if err != nil {
		return 0, err
	}

	if u.metrics != nil {
		u.metrics.RecordDonation(amount)
	}

	entry := &model.DonationHistoryEntry{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		PetName:    campaign.PetName,
		DonorEmail: donorEmail,
		OwnerEmail: campaign.OwnerEmail,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}
	if err := u.donations.Create(ctx, entry); err != nil {
		// 残高の加算はコミット済み。履歴のみ欠けた状態を呼び出し元へ通知する
		if u.metrics != nil {
			u.metrics.RecordPartialWrite()
		}
		u.logger.Error("donation history write failed after balance commit",
			slog.String("campaign_id", campaignID),
			slog.String("donor", donorEmail),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		return newBalance, model.NewPartialWriteError()
	}

	return newBalance, nil
}

// ApplyRefund はキャンペーン残高からamountを減算する。更新後の残高を返す。
//
// amountが0以下の場合はInvalidAmountを返す。減算後の残高が負になる場合は
// InsufficientBalanceを返し、残高は変更しない。
func (u *Updater) ApplyRefund(ctx context.Context, campaignID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.NewInvalidAmountError(amount)
	}

	newBalance, err := u.adjust(ctx, campaignID, func(c *model.DonationCampaign) (int64, error) {
		if c.MaxAmount < amount {
			if u.metrics != nil {
				u.metrics.RecordRefundRejected()
			}
			return 0, model.NewInsufficientBalanceError(c.MaxAmount, amount)
		}
		return c.MaxAmount - amount, nil
	})
	if err != nil {
		return 0, err
	}

	if u.metrics != nil {
		u.metrics.RecordRefund(amount)
	}

	return newBalance, nil
}

// adjust は読み取り・判定・条件付き更新のループを実行する。
// computeは現在のキャンペーンを受け取り、更新後の残高またはエラーを返す。
// CASが空振りした場合は読み直して再試行し、maxAttempts回失敗したら
// ConcurrentUpdateConflictを返す。
func (u *Updater) adjust(ctx context.Context, campaignID string, compute func(*model.DonationCampaign) (int64, error)) (int64, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		campaign, err := u.campaigns.FindByID(ctx, campaignID)
		if err != nil {
			return 0, fmt.Errorf("failed to read campaign balance: %w", err)
		}
		if campaign == nil {
			return 0, model.NewCampaignNotFoundError(campaignID)
		}

		newBalance, err := compute(campaign)
		if err != nil {
			return 0, err
		}

		ok, err := u.campaigns.UpdateBalance(ctx, campaignID, campaign.MaxAmount, newBalance)
		if err != nil {
			return 0, fmt.Errorf("failed to commit campaign balance: %w", err)
		}
		if ok {
			return newBalance, nil
		}

		// 読み取りから更新の間に残高が変わっていた。読み直して再試行する
		if u.metrics != nil {
			u.metrics.RecordBalanceConflict()
		}
		u.logger.Warn("campaign balance CAS conflict, retrying",
			slog.String("campaign_id", campaignID),
			slog.Int("attempt", attempt+1),
		)
	}

	return 0, model.NewConcurrentConflictError()
}
