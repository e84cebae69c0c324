// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/repository"
)

// Service はユーザー管理のサービス層。
// 初回サインイン時の登録とロール管理を提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string
	Name     string
	PhotoURL string
}

// RegisterIfAbsent はメールアドレスが未登録の場合のみユーザーを作成する。
// 既存ユーザーがいる場合は作成せず(false, 既存ユーザー)を返す。
// 「メールアドレスごとに高々1レコード」の不変条件はこの挿入前検索と
// DBの一意制約の両方で保証する。
func (s *Service) RegisterIfAbsent(ctx context.Context, input RegisterInput) (bool, *model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return false, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return false, existing, nil
	}

	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     input.Email,
		Name:      input.Name,
		PhotoURL:  input.PhotoURL,
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return true, user, nil
}

// List は全ユーザーを作成日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetRole は指定IDのユーザーのロールを変更する。
// 対象が存在しない場合はUserNotFoundを返す。
func (s *Service) SetRole(ctx context.Context, id string, role model.Role) error {
	if role != model.RoleUser && role != model.RoleAdmin {
		return &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  fmt.Sprintf("無効なロールです: %s", role),
			Category: "validation",
			Action:   "ロールには user または admin を指定してください。",
		}
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if updated == 0 {
		return model.NewUserNotFoundError()
	}

	slog.Info("user role updated",
		slog.String("user_id", id),
		slog.String("role", string(role)),
	)

	return nil
}

// Delete は指定IDのユーザーを削除する。
// 存在しないIDの削除はエラーにしない（冪等削除）。削除行数を返す。
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	deleted, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return deleted, nil
}
