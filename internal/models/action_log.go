package models

import "time"

// ActionLog is append-only; entries are never mutated or deleted.
type ActionLog struct {
	ID         uint      `gorm:"primaryKey"`
	TelegramID int64     `gorm:"index"`
	Action     string    `gorm:"not null"`
	Details    string
	CreatedAt  time.Time `gorm:"not null"`
}
