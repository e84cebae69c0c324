// Package pet はペット掲載のドメインロジックを提供する。
package pet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// offset はOFFSET句に渡す値を計算する。不正な値はデフォルトに丸める。
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

// ListResult はページ取得の結果。Totalはフィルタ条件での総件数。
type ListResult struct {
	Pets  []*model.Pet
	Total int
}

// Service はペット掲載のサービス層。
type Service struct {
	petRepo   repository.PetRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(petRepo repository.PetRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{petRepo: petRepo, sanitizer: sanitizer}
}

// ListAll は全ペットのページ一覧を返す（管理者ダッシュボード用）。
func (s *Service) ListAll(ctx context.Context, page Page) (*ListResult, error) {
	offset, limit := page.normalize()
	pets, total, err := s.petRepo.ListPage(ctx, repository.PetFilter{}, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return &ListResult{Pets: pets, Total: total}, nil
}

// ListAvailable は里親未決定のペットのページ一覧を返す（公開一覧用）。
// 総件数も里親未決定のペットのみを数える。
func (s *Service) ListAvailable(ctx context.Context, page Page) (*ListResult, error) {
	offset, limit := page.normalize()
	pets, total, err := s.petRepo.ListPage(ctx, repository.PetFilter{NotAdoptedOnly: true}, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list available pets: %w", err)
	}
	return &ListResult{Pets: pets, Total: total}, nil
}

// ListByOwner は指定掲載者のペットのページ一覧を返す。
func (s *Service) ListByOwner(ctx context.Context, email string, page Page) (*ListResult, error) {
	offset, limit := page.normalize()
	pets, total, err := s.petRepo.ListPage(ctx, repository.PetFilter{Email: email}, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets by owner: %w", err)
	}
	return &ListResult{Pets: pets, Total: total}, nil
}

// ListByCategory はカテゴリの部分一致でペットを検索する。
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*model.Pet, error) {
	pets, err := s.petRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets by category: %w", err)
	}
	return pets, nil
}

// Search は名前またはカテゴリの部分一致でペットを検索する。
// 両方が指定された場合は名前を優先する。どちらも空の場合は空の結果を返す。
func (s *Service) Search(ctx context.Context, name, category string) ([]*model.Pet, error) {
	switch {
	case name != "":
		pets, err := s.petRepo.SearchByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to search pets by name: %w", err)
		}
		return pets, nil
	case category != "":
		pets, err := s.petRepo.ListByCategory(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("failed to search pets by category: %w", err)
		}
		return pets, nil
	default:
		return []*model.Pet{}, nil
	}
}

// Get は指定IDのペットを返す。存在しない場合はPetNotFoundを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Pet, error) {
	pet, err := s.petRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find pet: %w", err)
	}
	if pet == nil {
		return nil, model.NewPetNotFoundError(id)
	}
	return pet, nil
}

// CreateInput はペット登録・更新の入力。
type CreateInput struct {
	Email            string
	PetName          string
	PetAge           string
	PetCategory      string
	Location         string
	ImageURL         string
	ShortDescription string
	LongDescription  string
}

// Create はペットを新規登録する。説明文は保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Pet, error) {
	now := time.Now()
	pet := &model.Pet{
		ID:               uuid.New().String(),
		Email:            input.Email,
		PetName:          input.PetName,
		PetAge:           input.PetAge,
		PetCategory:      input.PetCategory,
		Location:         input.Location,
		ImageURL:         input.ImageURL,
		ShortDescription: s.sanitizer.Sanitize(input.ShortDescription),
		LongDescription:  s.sanitizer.Sanitize(input.LongDescription),
		Adopted:          false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.petRepo.Create(ctx, pet); err != nil {
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}
	return pet, nil
}

// Update は指定IDのペット情報を上書き更新する。
// 更新時はadoptedフラグをfalseに戻す（再掲載扱い）。更新行数を返す。
func (s *Service) Update(ctx context.Context, id string, input CreateInput) (int64, error) {
	pet := &model.Pet{
		ID:               id,
		Email:            input.Email,
		PetName:          input.PetName,
		PetAge:           input.PetAge,
		PetCategory:      input.PetCategory,
		Location:         input.Location,
		ImageURL:         input.ImageURL,
		ShortDescription: s.sanitizer.Sanitize(input.ShortDescription),
		LongDescription:  s.sanitizer.Sanitize(input.LongDescription),
		Adopted:          false,
	}
	updated, err := s.petRepo.Update(ctx, pet)
	if err != nil {
		return 0, fmt.Errorf("failed to update pet: %w", err)
	}
	if updated == 0 {
		return 0, model.NewPetNotFoundError(id)
	}
	return updated, nil
}

// SetAdopted は里親決定フラグを更新する。
// 対象が存在しない場合はPetNotFoundを返す。
func (s *Service) SetAdopted(ctx context.Context, id string, adopted bool) error {
	updated, err := s.petRepo.UpdateAdopted(ctx, id, adopted)
	if err != nil {
		return fmt.Errorf("failed to update adopted flag: %w", err)
	}
	if updated == 0 {
		return model.NewPetNotFoundError(id)
	}
	return nil
}

// Delete は指定IDのペットを削除する。
// 存在しないIDの削除はエラーにしない（冪等削除）。削除行数を返す。
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	deleted, err := s.petRepo.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pet: %w", err)
	}
	return deleted, nil
}
