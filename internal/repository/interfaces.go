// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/petpals/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時の降順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。emailの一意制約違反はエラーとして返る。
	Create(ctx context.Context, user *model.User) error

	// UpdateRole は指定IDのユーザーのロールを更新する。更新行数を返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (int64, error)

	// DeleteByID は指定IDのユーザーを削除する。削除行数を返す（0は冪等削除）。
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// PetFilter はペット一覧取得時の絞り込み条件。
type PetFilter struct {
	// NotAdoptedOnly がtrueの場合、里親未決定のペットのみを対象とする。
	NotAdoptedOnly bool
	// Email が空でない場合、掲載者のメールアドレスで絞り込む。
	Email string
}

// PetRepository はペットデータの永続化インターフェース。
type PetRepository interface {
	// FindByID は指定IDのペットを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Pet, error)

	// ListPage はフィルタ条件に合致するペットを作成日時の降順でページ取得し、
	// 同一条件での総件数を併せて返す。
	ListPage(ctx context.Context, filter PetFilter, offset, limit int) ([]*model.Pet, int, error)

	// ListByCategory はカテゴリの部分一致（大文字小文字無視）でペットを検索する。
	ListByCategory(ctx context.Context, category string) ([]*model.Pet, error)

	// SearchByName は名前の部分一致（大文字小文字無視）でペットを検索する。
	SearchByName(ctx context.Context, name string) ([]*model.Pet, error)

	// Create はペットを作成する。
	Create(ctx context.Context, pet *model.Pet) error

	// Update はペット情報を上書き更新する。更新行数を返す。
	Update(ctx context.Context, pet *model.Pet) (int64, error)

	// UpdateAdopted は里親決定フラグを更新する。更新行数を返す。
	UpdateAdopted(ctx context.Context, id string, adopted bool) (int64, error)

	// DeleteByID は指定IDのペットを削除する。削除行数を返す（0は冪等削除）。
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// CampaignRepository は寄付キャンペーンの永続化インターフェース。
type CampaignRepository interface {
	// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.DonationCampaign, error)

	// ListPage はキャンペーンを作成日時の降順でページ取得し、総件数を併せて返す。
	ListPage(ctx context.Context, offset, limit int) ([]*model.DonationCampaign, int, error)

	// ListByOwner はオーナーのキャンペーン一覧を作成日時の降順で返す。
	ListByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationCampaign, error)

	// ListExcluding は指定ID以外のキャンペーン一覧を返す。
	// おすすめ表示用の「自分以外」クエリに使用する。
	ListExcluding(ctx context.Context, excludeID string) ([]*model.DonationCampaign, error)

	// Create はキャンペーンを作成する。
	Create(ctx context.Context, c *model.DonationCampaign) error

	// Update はキャンペーンの編集可能フィールドを上書き更新する。更新行数を返す。
	// MaxAmountはこのメソッドでは更新しない。残高の変更はUpdateBalanceのみが行う。
	Update(ctx context.Context, c *model.DonationCampaign) (int64, error)

	// UpdatePause は一時停止フラグを更新する。更新行数を返す。
	UpdatePause(ctx context.Context, id string, paused bool) (int64, error)

	// UpdateBalance は残高の条件付き更新を行う。
	// 保存されている残高がoldBalanceと一致する場合のみnewBalanceへ更新し、
	// 一致して更新できた場合にtrueを返す。寄付・返金の直列化はこのCASに依存する。
	UpdateBalance(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error)

	// DeleteByID は指定IDのキャンペーンを削除する。削除行数を返す（0は冪等削除）。
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// DonationRepository は寄付履歴の永続化インターフェース。
// 履歴は不変レコードであり、更新操作は存在しない。
type DonationRepository interface {
	// Create は寄付履歴エントリを作成する。
	Create(ctx context.Context, entry *model.DonationHistoryEntry) error

	// ListByOwnerEmail はキャンペーンオーナー宛の寄付履歴を作成日時の降順で返す。
	ListByOwnerEmail(ctx context.Context, ownerEmail string) ([]*model.DonationHistoryEntry, error)

	// ListByDonorEmail は寄付者自身の寄付履歴を作成日時の降順で返す。
	ListByDonorEmail(ctx context.Context, donorEmail string) ([]*model.DonationHistoryEntry, error)

	// DeleteByID は指定IDの履歴エントリを削除する。削除行数を返す（0は冪等削除）。
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// AdoptionRepository は里親申請の永続化インターフェース。
type AdoptionRepository interface {
	// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AdoptionRequest, error)

	// ListByOwnerEmail は掲載者宛の申請一覧を作成日時の降順で返す。
	ListByOwnerEmail(ctx context.Context, ownerEmail string) ([]*model.AdoptionRequest, error)

	// Create は申請を作成する。
	Create(ctx context.Context, req *model.AdoptionRequest) error

	// UpdateStatus は申請状態を更新する。更新行数を返す。
	UpdateStatus(ctx context.Context, id string, status model.AdoptionStatus) (int64, error)

	// DeleteByID は指定IDの申請を削除する。削除行数を返す（0は冪等削除）。
	DeleteByID(ctx context.Context, id string) (int64, error)
}
