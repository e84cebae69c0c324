package model

import "time"

// Pet は里親募集中のペットの掲載情報を表す。
type Pet struct {
	ID               string
	Email            string // 掲載者のメールアドレス
	PetName          string
	PetAge           string
	PetCategory      string
	Location         string
	ImageURL         string
	ShortDescription string
	LongDescription  string
	Adopted          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AdoptionStatus は里親申請の状態を表す。
type AdoptionStatus string

const (
	// AdoptionStatusPending は申請直後の未処理状態。
	AdoptionStatusPending AdoptionStatus = "pending"
	// AdoptionStatusAccepted は掲載者が承認した状態。
	AdoptionStatusAccepted AdoptionStatus = "accepted"
	// AdoptionStatusRejected は掲載者が却下した状態。
	AdoptionStatusRejected AdoptionStatus = "rejected"
)

// IsValidAdoptionStatus は里親申請状態として有効な値かを返す。
func IsValidAdoptionStatus(s AdoptionStatus) bool {
	switch s {
	case AdoptionStatusPending, AdoptionStatusAccepted, AdoptionStatusRejected:
		return true
	}
	return false
}

// AdoptionRequest はペットに対する里親申請を表す。
type AdoptionRequest struct {
	ID             string
	PetID          string
	PetName        string
	OwnerEmail     string // 掲載者のメールアドレス
	RequesterName  string
	RequesterEmail string
	Phone          string
	Address        string
	Status         AdoptionStatus
	CreatedAt      time.Time
}
