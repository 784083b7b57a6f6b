package models

import "time"

// Party lifecycle: created in the forming state with a registration
// deadline; the scheduler either registers it (enough members) or deletes it
// once the deadline passes. Registered never goes back to forming.
type Party struct {
	ID                   uint      `gorm:"primaryKey"`
	Name                 string    `gorm:"not null;uniqueIndex"`
	Ideology             string    `gorm:"not null"`
	Description          string
	PhotoFileID          string
	LeaderID             int64     `gorm:"not null;index"`
	InviteCode           string    `gorm:"not null;uniqueIndex"`
	Registered           bool      `gorm:"not null;default:false"`
	CreatedAt            time.Time `gorm:"not null"`
	RegistrationDeadline time.Time `gorm:"not null"`

	// MembersCount is denormalized and must always equal the number of
	// PartyMember rows; the store updates it in the same transaction as the
	// membership change.
	MembersCount int `gorm:"not null;default:1"`

	// Relationships
	Leader       User               `gorm:"foreignKey:LeaderID;references:TelegramID"`
	Members      []PartyMember      `gorm:"foreignKey:PartyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Applications []PartyApplication `gorm:"foreignKey:PartyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
