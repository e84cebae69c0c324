package model

import "time"

// DonationCampaign は寄付キャンペーンを表す。
// MaxAmount は現在の寄付残高であり、常に0以上でなければならない。
type DonationCampaign struct {
	ID               string
	OwnerEmail       string
	PetName          string
	ImageURL         string
	MaxAmount        int64 // 寄付残高（最小通貨単位）。不変条件: MaxAmount >= 0
	LastDate         time.Time
	ShortDescription string
	LongDescription  string
	PauseStatus      bool
	UserCanDonate    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AcceptsDonations はキャンペーンが寄付を受付可能な状態かを返す。
func (c *DonationCampaign) AcceptsDonations() bool {
	return !c.PauseStatus && c.UserCanDonate
}

// DonationHistoryEntry は1回の寄付イベントの不変レコードを表す。
// 作成後に更新されることはなく、IDによる削除のみ可能。
type DonationHistoryEntry struct {
	ID         string
	CampaignID string
	PetName    string
	DonorEmail string // 寄付したユーザー
	OwnerEmail string // キャンペーンのオーナー
	Amount     int64
	CreatedAt  time.Time
}
