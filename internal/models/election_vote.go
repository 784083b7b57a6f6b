package models

import "time"

// ElectionVote is immutable once cast: the composite key enforces one vote
// per voter per election and there is no update path.
type ElectionVote struct {
	ElectionID uint      `gorm:"primaryKey;autoIncrement:false"`
	VoterID    int64     `gorm:"primaryKey;autoIncrement:false"`
	PartyID    uint      `gorm:"not null;index"`
	VotedAt    time.Time `gorm:"not null"`

	// Relationships
	Election Election `gorm:"foreignKey:ElectionID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Voter    User     `gorm:"foreignKey:VoterID;references:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Party    Party    `gorm:"foreignKey:PartyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
