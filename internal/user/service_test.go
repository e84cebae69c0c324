package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/petpals/internal/model"
)

// mockUserRepo はUserRepositoryのモック実装。
type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	listFn        func(ctx context.Context) ([]*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
	updateRoleFn  func(ctx context.Context, id string, role model.Role) (int64, error)
	deleteByIDFn  func(ctx context.Context, id string) (int64, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	return m.listFn(ctx)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFn(ctx, user)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (int64, error) {
	return m.updateRoleFn(ctx, id, role)
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	return m.deleteByIDFn(ctx, id)
}

func TestService_RegisterIfAbsent_CreatesNewUser(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	service := NewService(repo)

	isNew, u, err := service.RegisterIfAbsent(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Name:     "New User",
		PhotoURL: "https://example.com/p.png",
	})
	if err != nil {
		t.Fatalf("RegisterIfAbsent returned error: %v", err)
	}
	if !isNew {
		t.Error("isNew = false, want true")
	}
	if created == nil {
		t.Fatal("Create was not called")
	}
	if u.ID == "" {
		t.Error("ID should be generated")
	}
	// 新規ユーザーのロールは常に一般ユーザー
	if u.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", u.Role, model.RoleUser)
	}
}

func TestService_RegisterIfAbsent_ExistingUserIsNotDuplicated(t *testing.T) {
	existing := &model.User{ID: "u-1", Email: "existing@example.com", Role: model.RoleAdmin}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return existing, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			t.Error("Create should not be called for an existing email")
			return nil
		},
	}
	service := NewService(repo)

	isNew, u, err := service.RegisterIfAbsent(context.Background(), RegisterInput{Email: "existing@example.com"})
	if err != nil {
		t.Fatalf("RegisterIfAbsent returned error: %v", err)
	}
	if isNew {
		t.Error("isNew = true, want false")
	}
	// 既存レコードのロールは再登録で上書きされない
	if u.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", u.Role, model.RoleAdmin)
	}
}

func TestService_SetRole_RejectsUnknownRole(t *testing.T) {
	repo := &mockUserRepo{
		updateRoleFn: func(ctx context.Context, id string, role model.Role) (int64, error) {
			t.Error("UpdateRole should not be called for an invalid role")
			return 0, nil
		},
	}
	service := NewService(repo)

	err := service.SetRole(context.Background(), "u-1", model.Role("superadmin"))

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
	}
}

func TestService_SetRole_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		updateRoleFn: func(ctx context.Context, id string, role model.Role) (int64, error) {
			return 0, nil
		},
	}
	service := NewService(repo)

	err := service.SetRole(context.Background(), "missing", model.RoleAdmin)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

func TestService_Delete_IsIdempotent(t *testing.T) {
	repo := &mockUserRepo{
		deleteByIDFn: func(ctx context.Context, id string) (int64, error) {
			return 0, nil
		},
	}
	service := NewService(repo)

	deleted, err := service.Delete(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}
