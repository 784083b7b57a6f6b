package store

import (
	"fmt"
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
	"gorm.io/gorm"
)

// CreateParty inserts the party and its founding leader membership at
// position 1 in one transaction. Party names are unique case-insensitively,
// which the column index alone does not enforce on sqlite.
func (s *Store) CreateParty(party *models.Party) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.Party{}).
			Where("LOWER(name) = LOWER(?)", party.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return fmt.Errorf("party name %q: %w", party.Name, types.ErrConflict)
		}

		if err := tx.Create(party).Error; err != nil {
			return err
		}

		leader := models.PartyMember{
			TelegramID:   party.LeaderID,
			PartyID:      party.ID,
			Role:         models.RoleLeader,
			ListPosition: 1,
			JoinedAt:     time.Now(),
		}

		return tx.Create(&leader).Error
	})

	return mapErr(err)
}

func (s *Store) GetParty(partyID uint) (*models.Party, error) {
	var party models.Party

	if err := s.db.First(&party, partyID).Error; err != nil {
		return nil, mapErr(err)
	}

	return &party, nil
}

func (s *Store) GetPartyByInvite(code string) (*models.Party, error) {
	var party models.Party

	if err := s.db.First(&party, "invite_code = ?", code).Error; err != nil {
		return nil, mapErr(err)
	}

	return &party, nil
}

// GetUserParty returns the party the user is a member of, if any.
func (s *Store) GetUserParty(telegramID int64) (*models.Party, error) {
	var party models.Party

	err := s.db.
		Joins("JOIN party_members ON party_members.party_id = parties.id").
		Where("party_members.telegram_id = ?", telegramID).
		First(&party).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return &party, nil
}

// ListParties returns parties ordered by member count, largest first.
func (s *Store) ListParties(registeredOnly bool) ([]models.Party, error) {
	var parties []models.Party

	query := s.db.Order("members_count DESC")
	if registeredOnly {
		query = query.Where("registered = ?", true)
	}

	if err := query.Find(&parties).Error; err != nil {
		return nil, mapErr(err)
	}

	return parties, nil
}

// FormingPartiesPastDeadline is the scheduler's sweep query.
func (s *Store) FormingPartiesPastDeadline(now time.Time) ([]models.Party, error) {
	var parties []models.Party

	err := s.db.
		Where("registered = ? AND registration_deadline < ?", false, now).
		Find(&parties).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return parties, nil
}

func (s *Store) CountRegisteredParties() (int64, error) {
	var count int64

	err := s.db.Model(&models.Party{}).
		Where("registered = ?", true).
		Count(&count).Error

	return count, mapErr(err)
}

func (s *Store) UpdatePartyName(partyID uint, name string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.Party{}).
			Where("LOWER(name) = LOWER(?) AND id <> ?", name, partyID).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return fmt.Errorf("party name %q: %w", name, types.ErrConflict)
		}

		return tx.Model(&models.Party{}).
			Where("id = ?", partyID).
			Update("name", name).Error
	})

	return mapErr(err)
}

func (s *Store) SetPartyPhoto(partyID uint, fileID string) error {
	err := s.db.Model(&models.Party{}).
		Where("id = ?", partyID).
		Update("photo_file_id", fileID).Error

	return mapErr(err)
}

// RegisterParty flips forming to registered. Reports whether this call did
// the transition, so repeated sweeps stay no-ops.
func (s *Store) RegisterParty(partyID uint) (bool, error) {
	result := s.db.Model(&models.Party{}).
		Where("id = ? AND registered = ?", partyID, false).
		Update("registered", true)
	if result.Error != nil {
		return false, mapErr(result.Error)
	}

	return result.RowsAffected > 0, nil
}

// DeleteParty removes the party with its memberships and applications.
// Explicit deletes rather than relying on cascades so the transaction reads
// the same on every sqlite build.
func (s *Store) DeleteParty(partyID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("party_id = ?", partyID).Delete(&models.PartyMember{}).Error; err != nil {
			return err
		}

		if err := tx.Where("party_id = ?", partyID).Delete(&models.PartyApplication{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Party{}, partyID)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return types.ErrNotFound
		}

		return nil
	})

	return mapErr(err)
}
