package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ElectionActive = "active"
	ElectionClosed = "closed"
)

// Election is singleton-per-period: at most one row may be active. Results
// holds the frozen tally snapshot once the election closes.
type Election struct {
	ID               uint      `gorm:"primaryKey"`
	Status           string    `gorm:"not null;default:active;index"`
	StartDate        time.Time `gorm:"not null"`
	EndDate          time.Time `gorm:"not null"`
	ChannelMessageID int64
	Results          datatypes.JSON

	// Relationships
	Votes []ElectionVote `gorm:"foreignKey:ElectionID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
