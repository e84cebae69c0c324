// Package adoption は里親申請のドメインロジックを提供する。
package adoption

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/repository"
)

// Service は里親申請のサービス層。
type Service struct {
	adoptionRepo repository.AdoptionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(adoptionRepo repository.AdoptionRepository) *Service {
	return &Service{adoptionRepo: adoptionRepo}
}

// CreateInput は里親申請の入力。
type CreateInput struct {
	PetID          string
	PetName        string
	OwnerEmail     string
	RequesterName  string
	RequesterEmail string
	Phone          string
	Address        string
}

// Create は里親申請を作成する。状態はpendingで開始する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.AdoptionRequest, error) {
	req := &model.AdoptionRequest{
		ID:             uuid.New().String(),
		PetID:          input.PetID,
		PetName:        input.PetName,
		OwnerEmail:     input.OwnerEmail,
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		Phone:          input.Phone,
		Address:        input.Address,
		Status:         model.AdoptionStatusPending,
		CreatedAt:      time.Now(),
	}
	if err := s.adoptionRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create adoption request: %w", err)
	}
	return req, nil
}

// ListByOwner は掲載者宛の申請一覧を返す。
func (s *Service) ListByOwner(ctx context.Context, ownerEmail string) ([]*model.AdoptionRequest, error) {
	reqs, err := s.adoptionRepo.ListByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list adoption requests: %w", err)
	}
	return reqs, nil
}

// SetStatus は申請状態を更新する。
// 無効な状態値はInvalidStatus、対象が存在しない場合は更新行数0のまま返す。
func (s *Service) SetStatus(ctx context.Context, id string, status model.AdoptionStatus) (int64, error) {
	if !model.IsValidAdoptionStatus(status) {
		return 0, model.NewInvalidStatusError(string(status))
	}
	updated, err := s.adoptionRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update adoption request status: %w", err)
	}
	return updated, nil
}

// Delete は指定IDの申請を削除する。
// 存在しないIDの削除はエラーにしない（冪等削除）。削除行数を返す。
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	deleted, err := s.adoptionRepo.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete adoption request: %w", err)
	}
	return deleted, nil
}
