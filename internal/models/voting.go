package models

import "time"

const (
	VotingPublic     = "public"
	VotingParliament = "parliament"

	VotingActive = "active"
	VotingClosed = "closed"
)

// Voting is a for/against ballot open either to all verified users or to
// sitting deputies only. VotesFor/VotesAgainst are denormalized counters
// updated in the same transaction as the VotingVote row. ReminderSent keeps
// the closing-soon notice one-shot across scheduler sweeps.
type Voting struct {
	ID               uint      `gorm:"primaryKey"`
	Title            string    `gorm:"not null"`
	Description      string
	Type             string    `gorm:"not null"`
	Status           string    `gorm:"not null;default:active;index"`
	CreatedBy        int64     `gorm:"not null"`
	StartDate        time.Time `gorm:"not null"`
	EndDate          time.Time `gorm:"not null"`
	ChannelMessageID int64
	VotesFor         int  `gorm:"not null;default:0"`
	VotesAgainst     int  `gorm:"not null;default:0"`
	ReminderSent     bool `gorm:"not null;default:false"`

	// Relationships
	Creator User         `gorm:"foreignKey:CreatedBy;references:TelegramID"`
	Votes   []VotingVote `gorm:"foreignKey:VotingID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
