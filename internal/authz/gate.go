// Package authz は認証済みアイデンティティに対する認可判定を提供する。
//
// 認可は認証の後段に位置する。未認証リクエストはミドルウェア層で401として
// 弾かれるため、このパッケージに到達した時点でメールアドレスは検証済みである。
// ロール参照を伴うのはRequireAdminのみで、無効なトークンに対して
// ロール情報の参照が発生しない順序をルーティング側が保証する。
package authz

import (
	"context"
	"fmt"

	"github.com/hitoshi/petpals/internal/model"
)

// RoleFinder はロール参照に必要なユーザー検索のインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type RoleFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Gate は管理者ルート・本人限定ルートの認可判定を行う。
type Gate struct {
	users RoleFinder
}

// NewGate はGateを生成する。
func NewGate(users RoleFinder) *Gate {
	return &Gate{users: users}
}

// RequireAdmin は認証済みメールアドレスのユーザーが管理者であることを要求する。
// ユーザーが存在しない、またはロールがadminでない場合はForbiddenを返す。
func (g *Gate) RequireAdmin(ctx context.Context, email string) error {
	user, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up role: %w", err)
	}
	if user == nil || !user.IsAdmin() {
		return model.NewForbiddenError()
	}
	return nil
}

// RequireSelf は認証済みメールアドレスと対象メールアドレスの一致を要求する。
// 「自分のデータのみ参照・操作できる」ルートで使用する。
func (g *Gate) RequireSelf(identityEmail, targetEmail string) error {
	if identityEmail != targetEmail {
		return model.NewForbiddenError()
	}
	return nil
}

// IsAdmin は指定メールアドレスのユーザーが管理者かを返す。
// ユーザーが存在しない場合はfalseを返す（エラーにはしない）。
func (g *Gate) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to look up role: %w", err)
	}
	return user != nil && user.IsAdmin(), nil
}
