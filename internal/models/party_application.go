package models

import "time"

const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// PartyApplication: one pending application per (user, party). Rejected is
// terminal; a rejected application can never become approved.
type PartyApplication struct {
	ID         uint      `gorm:"primaryKey"`
	TelegramID int64     `gorm:"not null;uniqueIndex:idx_applicant_party"`
	PartyID    uint      `gorm:"not null;uniqueIndex:idx_applicant_party"`
	Status     string    `gorm:"not null;default:pending"`
	AppliedAt  time.Time `gorm:"not null"`

	// Relationships
	User  User  `gorm:"belongsTo:User;foreignKey:TelegramID;references:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Party Party `gorm:"foreignKey:PartyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
