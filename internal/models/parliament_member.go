package models

import "time"

// ParliamentMember is a seat in the sitting parliament. The whole table is
// replaced atomically when an election closes; PartyID goes NULL if the
// elected party is later dissolved, the seat itself survives.
type ParliamentMember struct {
	TelegramID int64     `gorm:"primaryKey;autoIncrement:false"`
	PartyID    *uint     `gorm:"index"`
	TermStart  time.Time `gorm:"not null"`
	TermEnd    time.Time `gorm:"not null"`

	// Relationships
	User  User   `gorm:"belongsTo:User;foreignKey:TelegramID;references:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Party *Party `gorm:"foreignKey:PartyID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
