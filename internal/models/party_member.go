package models

import "time"

const (
	RoleLeader = "leader"
	RoleMember = "member"
)

// PartyMember rows keep ListPosition as a dense permutation 1..N per party,
// with the leader always at position 1. A user holds at most one membership
// at a time.
type PartyMember struct {
	TelegramID   int64     `gorm:"primaryKey;autoIncrement:false"`
	PartyID      uint      `gorm:"primaryKey;autoIncrement:false"`
	Role         string    `gorm:"not null;default:member"`
	ListPosition int       `gorm:"not null"`
	JoinedAt     time.Time `gorm:"not null"`

	// Relationships
	User  User  `gorm:"belongsTo:User;foreignKey:TelegramID;references:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Party Party `gorm:"foreignKey:PartyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
