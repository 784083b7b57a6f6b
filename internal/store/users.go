package store

import (
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"gorm.io/gorm/clause"
)

// UpsertUser records a successful identity check. A returning user whose
// link was revoked and restored becomes active again with fresh timestamps.
func (s *Store) UpsertUser(telegramID int64, username string) error {
	now := time.Now()

	user := models.User{
		TelegramID:    telegramID,
		Username:      username,
		VerifiedAt:    now,
		LastAuthCheck: now,
		IsActive:      true,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "verified_at", "last_auth_check", "is_active",
		}),
	}).Create(&user).Error

	return mapErr(err)
}

func (s *Store) GetUser(telegramID int64) (*models.User, error) {
	var user models.User

	if err := s.db.First(&user, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, mapErr(err)
	}

	return &user, nil
}

// TouchAuthCheck refreshes the recheck timestamp after a passed sweep.
func (s *Store) TouchAuthCheck(telegramID int64) error {
	err := s.db.Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		Update("last_auth_check", time.Now()).Error

	return mapErr(err)
}

// DeactivateUser soft-deletes: the row stays for foreign keys and audit.
func (s *Store) DeactivateUser(telegramID int64) error {
	err := s.db.Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		Update("is_active", false).Error

	return mapErr(err)
}

// UsersForAuthRecheck returns active users whose last identity check is
// older than the cutoff.
func (s *Store) UsersForAuthRecheck(cutoff time.Time) ([]models.User, error) {
	var users []models.User

	err := s.db.
		Where("last_auth_check < ? AND is_active = ?", cutoff, true).
		Find(&users).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return users, nil
}

func (s *Store) CountUsers(active bool) (int64, error) {
	var count int64

	err := s.db.Model(&models.User{}).
		Where("is_active = ?", active).
		Count(&count).Error

	return count, mapErr(err)
}
