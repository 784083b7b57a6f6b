package store

import (
	"fmt"
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
	"gorm.io/gorm"
)

// CreateApplication files a pending application. Conflict if the user
// already belongs to any party or has already applied to this one.
func (s *Store) CreateApplication(telegramID int64, partyID uint) (*models.PartyApplication, error) {
	app := models.PartyApplication{
		TelegramID: telegramID,
		PartyID:    partyID,
		Status:     models.ApplicationPending,
		AppliedAt:  time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var memberships int64

		err := tx.Model(&models.PartyMember{}).
			Where("telegram_id = ?", telegramID).
			Count(&memberships).Error
		if err != nil {
			return err
		}

		if memberships > 0 {
			return fmt.Errorf("already in a party: %w", types.ErrConflict)
		}

		return tx.Create(&app).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}

	return &app, nil
}

func (s *Store) GetApplication(appID uint) (*models.PartyApplication, error) {
	var app models.PartyApplication

	if err := s.db.Preload("User").First(&app, appID).Error; err != nil {
		return nil, mapErr(err)
	}

	return &app, nil
}

// PendingApplications returns a party's open applications, oldest first.
func (s *Store) PendingApplications(partyID uint) ([]models.PartyApplication, error) {
	var apps []models.PartyApplication

	err := s.db.Preload("User").
		Where("party_id = ? AND status = ?", partyID, models.ApplicationPending).
		Order("applied_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return apps, nil
}

// ApproveApplication admits the applicant at the end of the party list and
// bumps the member counter, all in one transaction. If the applicant joined
// another party since applying, the application is auto-rejected and the
// call reports Conflict; the rejection must commit, so it cannot ride on the
// error return of the transaction func.
func (s *Store) ApproveApplication(appID uint) error {
	var joinedElsewhere bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var app models.PartyApplication

		if err := tx.First(&app, appID).Error; err != nil {
			return err
		}

		if app.Status != models.ApplicationPending {
			return fmt.Errorf("application is %s: %w", app.Status, types.ErrConflict)
		}

		var memberships int64

		err := tx.Model(&models.PartyMember{}).
			Where("telegram_id = ?", app.TelegramID).
			Count(&memberships).Error
		if err != nil {
			return err
		}

		if memberships > 0 {
			joinedElsewhere = true

			return tx.Model(&models.PartyApplication{}).
				Where("id = ?", appID).
				Update("status", models.ApplicationRejected).Error
		}

		var count int64

		err = tx.Model(&models.PartyMember{}).
			Where("party_id = ?", app.PartyID).
			Count(&count).Error
		if err != nil {
			return err
		}

		member := models.PartyMember{
			TelegramID:   app.TelegramID,
			PartyID:      app.PartyID,
			Role:         models.RoleMember,
			ListPosition: int(count) + 1,
			JoinedAt:     time.Now(),
		}

		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		err = tx.Model(&models.PartyApplication{}).
			Where("id = ?", appID).
			Update("status", models.ApplicationApproved).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Party{}).
			Where("id = ?", app.PartyID).
			Update("members_count", gorm.Expr("members_count + 1")).Error
	})
	if err != nil {
		return mapErr(err)
	}

	if joinedElsewhere {
		return fmt.Errorf("applicant joined another party: %w", types.ErrConflict)
	}

	return nil
}

// RejectApplication marks a pending application rejected. Rejected is
// terminal, so only pending rows qualify.
func (s *Store) RejectApplication(appID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var app models.PartyApplication

		if err := tx.First(&app, appID).Error; err != nil {
			return err
		}

		if app.Status != models.ApplicationPending {
			return fmt.Errorf("application is %s: %w", app.Status, types.ErrConflict)
		}

		return tx.Model(&models.PartyApplication{}).
			Where("id = ?", appID).
			Update("status", models.ApplicationRejected).Error
	})

	return mapErr(err)
}
