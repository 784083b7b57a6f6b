package store

import (
	"github.com/edenorcraft/politbot/internal/models"
)

// ParliamentMembers returns the sitting parliament with user and party rows
// preloaded, grouped by party.
func (s *Store) ParliamentMembers() ([]models.ParliamentMember, error) {
	var members []models.ParliamentMember

	err := s.db.Preload("User").Preload("Party").
		Order("party_id, telegram_id").
		Find(&members).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return members, nil
}

func (s *Store) IsDeputy(telegramID int64) (bool, error) {
	var count int64

	err := s.db.Model(&models.ParliamentMember{}).
		Where("telegram_id = ?", telegramID).
		Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}

	return count > 0, nil
}

func (s *Store) ParliamentCount() (int64, error) {
	var count int64

	err := s.db.Model(&models.ParliamentMember{}).Count(&count).Error

	return count, mapErr(err)
}

// ClearParliament vacates every seat (admin dissolution, or the precondition
// of starting a new election).
func (s *Store) ClearParliament() error {
	return mapErr(s.db.Where("1 = 1").Delete(&models.ParliamentMember{}).Error)
}
