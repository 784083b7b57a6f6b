package models

import "time"

// User is a chat-platform account that passed identity verification.
// Rows are never deleted, only deactivated, so foreign keys and the audit
// trail stay stable.
type User struct {
	TelegramID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Username      string    `gorm:"not null"`
	VerifiedAt    time.Time `gorm:"not null"`
	LastAuthCheck time.Time `gorm:"not null;index"`
	IsActive      bool      `gorm:"not null;default:true"`

	// Relationships
	Memberships  []PartyMember      `gorm:"foreignKey:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Applications []PartyApplication `gorm:"foreignKey:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
