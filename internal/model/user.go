// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーのアクセス制御ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーのロール。
	RoleUser Role = "user"
	// RoleAdmin は管理者のロール。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// メールアドレスを一意キーとし、初回サインイン時に作成される。
type User struct {
	ID        string
	Email     string
	Name      string
	PhotoURL  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin はユーザーが管理者ロールを持つかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
