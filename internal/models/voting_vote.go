package models

import "time"

const (
	ChoiceFor     = "for"
	ChoiceAgainst = "against"
)

// VotingVote: one vote per voter per ballot, no revote.
type VotingVote struct {
	VotingID uint      `gorm:"primaryKey;autoIncrement:false"`
	VoterID  int64     `gorm:"primaryKey;autoIncrement:false"`
	Choice   string    `gorm:"not null"`
	VotedAt  time.Time `gorm:"not null"`

	// Relationships
	Voting Voting `gorm:"foreignKey:VotingID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Voter  User   `gorm:"foreignKey:VoterID;references:TelegramID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
