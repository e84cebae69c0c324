// Package campaign は寄付キャンペーンと寄付履歴のドメインロジックを提供する。
// 残高の増減はledgerパッケージへ委譲し、このサービスは残高以外の
// CRUDと一覧取得を担う。
package campaign

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/petpals/internal/ledger"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/repository"
	"github.com/hitoshi/petpals/internal/security"
)

// defaultPageLimit は一覧取得時のデフォルトのページサイズ。
const defaultPageLimit = 10

// Page はページ指定を表す。Pageは1始まり。
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() (offset, limit int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit = p.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	return (page - 1) * limit, limit
}

// ListResult はページ取得の結果。Totalは総件数。
type ListResult struct {
	Campaigns []*model.DonationCampaign
	Total     int
}

// Service は寄付キャンペーンのサービス層。
type Service struct {
	campaignRepo repository.CampaignRepository
	donationRepo repository.DonationRepository
	updater      *ledger.Updater
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	campaignRepo repository.CampaignRepository,
	donationRepo repository.DonationRepository,
	updater *ledger.Updater,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		campaignRepo: campaignRepo,
		donationRepo: donationRepo,
		updater:      updater,
		sanitizer:    sanitizer,
	}
}

// CreateInput はキャンペーン作成・編集の入力。
type CreateInput struct {
	PetName          string
	ImageURL         string
	MaxAmount        int64
	LastDate         time.Time
	ShortDescription string
	LongDescription  string
	PauseStatus      bool
	UserCanDonate    bool
}

// Create はキャンペーンを新規作成する。ownerEmailには認証済みの
// メールアドレスを渡す。初期残高が負の場合はInvalidAmountを返す。
func (s *Service) Create(ctx context.Context, ownerEmail string, input CreateInput) (*model.DonationCampaign, error) {
	if input.MaxAmount < 0 {
		return nil, model.NewInvalidAmountError(input.MaxAmount)
	}

	now := time.Now()
	c := &model.DonationCampaign{
		ID:               uuid.New().String(),
		OwnerEmail:       ownerEmail,
		PetName:          input.PetName,
		ImageURL:         input.ImageURL,
		MaxAmount:        input.MaxAmount,
		LastDate:         input.LastDate,
		ShortDescription: s.sanitizer.Sanitize(input.ShortDescription),
		LongDescription:  s.sanitizer.Sanitize(input.LongDescription),
		PauseStatus:      input.PauseStatus,
		UserCanDonate:    input.UserCanDonate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return c, nil
}

// Get は指定IDのキャンペーンを返す。存在しない場合はCampaignNotFoundを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.DonationCampaign, error) {
	c, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if c == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}
	return c, nil
}

// List はキャンペーンのページ一覧を返す。
func (s *Service) List(ctx context.Context, page Page) (*ListResult, error) {
	offset, limit := page.normalize()
	campaigns, total, err := s.campaignRepo.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return &ListResult{Campaigns: campaigns, Total: total}, nil
}

// ListByOwner はオーナーのキャンペーン一覧を返す。
func (s *Service) ListByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationCampaign, error) {
	campaigns, err := s.campaignRepo.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns by owner: %w", err)
	}
	return campaigns, nil
}

// Suggest は指定ID以外のキャンペーンからランダムに最大limit件を返す。
// キャンペーン詳細画面の「他のキャンペーン」表示に使用する。
func (s *Service) Suggest(ctx context.Context, excludeID string, limit int) ([]*model.DonationCampaign, error) {
	campaigns, err := s.campaignRepo.ListExcluding(ctx, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns for suggestion: %w", err)
	}

	rand.Shuffle(len(campaigns), func(i, j int) {
		campaigns[i], campaigns[j] = campaigns[j], campaigns[i]
	})
	if limit > 0 && len(campaigns) > limit {
		campaigns = campaigns[:limit]
	}
	return campaigns, nil
}

// Update はキャンペーンの編集可能フィールドを上書き更新する。
// 残高はこの操作では変更されない。対象が存在しない場合はCampaignNotFoundを返す。
func (s *Service) Update(ctx context.Context, id string, input CreateInput) error {
	c := &model.DonationCampaign{
		ID:               id,
		PetName:          input.PetName,
		ImageURL:         input.ImageURL,
		LastDate:         input.LastDate,
		ShortDescription: s.sanitizer.Sanitize(input.ShortDescription),
		LongDescription:  s.sanitizer.Sanitize(input.LongDescription),
		PauseStatus:      input.PauseStatus,
		UserCanDonate:    input.UserCanDonate,
	}
	updated, err := s.campaignRepo.Update(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if updated == 0 {
		return model.NewCampaignNotFoundError(id)
	}
	return nil
}

// SetPause は一時停止フラグを更新する。対象が存在しない場合はCampaignNotFoundを返す。
func (s *Service) SetPause(ctx context.Context, id string, paused bool) error {
	updated, err := s.campaignRepo.UpdatePause(ctx, id, paused)
	if err != nil {
		return fmt.Errorf("failed to update pause status: %w", err)
	}
	if updated == 0 {
		return model.NewCampaignNotFoundError(id)
	}
	return nil
}

// Donate はキャンペーンに寄付を適用し、更新後の残高を返す。
func (s *Service) Donate(ctx context.Context, id, donorEmail string, amount int64) (int64, error) {
	return s.updater.ApplyDonation(ctx, id, donorEmail, amount)
}

// Refund はキャンペーンから返金を適用し、更新後の残高を返す。
func (s *Service) Refund(ctx context.Context, id string, amount int64) (int64, error) {
	return s.updater.ApplyRefund(ctx, id, amount)
}

// Delete は指定IDのキャンペーンを削除する。
// 存在しないIDの削除はエラーにしない（冪等削除）。削除行数を返す。
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	deleted, err := s.campaignRepo.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete campaign: %w", err)
	}
	return deleted, nil
}

// RecordHistory は寄付履歴エントリを直接登録する。
// PartialWrite後のリカバリ（履歴の再登録）に使用する。
func (s *Service) RecordHistory(ctx context.Context, entry *model.DonationHistoryEntry) (*model.DonationHistoryEntry, error) {
	if entry.Amount <= 0 {
		return nil, model.NewInvalidAmountError(entry.Amount)
	}
	entry.ID = uuid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.donationRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record donation history: %w", err)
	}
	return entry, nil
}

// HistoryByOwner はキャンペーンオーナー宛の寄付履歴を返す。
func (s *Service) HistoryByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationHistoryEntry, error) {
	entries, err := s.donationRepo.ListByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list donation history by owner: %w", err)
	}
	return entries, nil
}

// HistoryByDonor は寄付者自身の寄付履歴を返す。
func (s *Service) HistoryByDonor(ctx context.Context, donorEmail string) ([]*model.DonationHistoryEntry, error) {
	entries, err := s.donationRepo.ListByDonorEmail(ctx, donorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list donation history by donor: %w", err)
	}
	return entries, nil
}

// DeleteHistory は指定IDの寄付履歴エントリを削除する。削除行数を返す。
func (s *Service) DeleteHistory(ctx context.Context, id string) (int64, error) {
	deleted, err := s.donationRepo.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete donation history entry: %w", err)
	}
	return deleted, nil
}
