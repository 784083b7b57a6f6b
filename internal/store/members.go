package store

import (
	"fmt"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
	"gorm.io/gorm"
)

// PartyMembers returns the party list in list order, leader first.
func (s *Store) PartyMembers(partyID uint) ([]models.PartyMember, error) {
	var members []models.PartyMember

	err := s.db.Preload("User").
		Where("party_id = ?", partyID).
		Order("list_position ASC").
		Find(&members).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return members, nil
}

func (s *Store) GetMember(telegramID int64, partyID uint) (*models.PartyMember, error) {
	var member models.PartyMember

	err := s.db.Preload("User").
		Where("telegram_id = ? AND party_id = ?", telegramID, partyID).
		First(&member).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return &member, nil
}

// RemoveMember deletes the membership and closes the position gap: every
// member after the removed slot moves up one. The renumbering is computed
// from the loaded rows and written as one batch inside the transaction, so
// the dense 1..N invariant holds at commit.
func (s *Store) RemoveMember(telegramID int64, partyID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member models.PartyMember

		err := tx.Where("telegram_id = ? AND party_id = ?", telegramID, partyID).
			First(&member).Error
		if err != nil {
			return err
		}

		if member.Role == models.RoleLeader {
			return fmt.Errorf("leader cannot be removed: %w", types.ErrForbidden)
		}

		if err := tx.Delete(&models.PartyMember{}, "telegram_id = ? AND party_id = ?", telegramID, partyID).Error; err != nil {
			return err
		}

		var rest []models.PartyMember

		err = tx.Where("party_id = ? AND list_position > ?", partyID, member.ListPosition).
			Order("list_position ASC").
			Find(&rest).Error
		if err != nil {
			return err
		}

		for _, m := range rest {
			err = tx.Model(&models.PartyMember{}).
				Where("telegram_id = ? AND party_id = ?", m.TelegramID, partyID).
				Update("list_position", m.ListPosition-1).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.Party{}).
			Where("id = ?", partyID).
			Update("members_count", gorm.Expr("members_count - 1")).Error
	})

	return mapErr(err)
}

// TransferLeadership demotes the current leader and promotes the new one in
// a single transaction; there is never a moment with zero or two leaders.
// List positions are untouched.
func (s *Store) TransferLeadership(partyID uint, newLeaderID int64) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var successor models.PartyMember

		err := tx.Where("telegram_id = ? AND party_id = ?", newLeaderID, partyID).
			First(&successor).Error
		if err != nil {
			return err
		}

		if successor.Role == models.RoleLeader {
			return fmt.Errorf("already the leader: %w", types.ErrConflict)
		}

		err = tx.Model(&models.PartyMember{}).
			Where("party_id = ? AND role = ?", partyID, models.RoleLeader).
			Update("role", models.RoleMember).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.PartyMember{}).
			Where("telegram_id = ? AND party_id = ?", newLeaderID, partyID).
			Update("role", models.RoleLeader).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Party{}).
			Where("id = ?", partyID).
			Update("leader_id", newLeaderID).Error
	})

	return mapErr(err)
}

// SwapPositions exchanges the members at two list positions. Position 1 is
// the leader's and never a valid side of a swap.
func (s *Store) SwapPositions(partyID uint, posA, posB int) error {
	if posA == posB || posA <= 1 || posB <= 1 {
		return fmt.Errorf("positions %d and %d: %w", posA, posB, types.ErrInvalid)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var a, b models.PartyMember

		if err := tx.Where("party_id = ? AND list_position = ?", partyID, posA).First(&a).Error; err != nil {
			return err
		}

		if err := tx.Where("party_id = ? AND list_position = ?", partyID, posB).First(&b).Error; err != nil {
			return err
		}

		err := tx.Model(&models.PartyMember{}).
			Where("telegram_id = ? AND party_id = ?", a.TelegramID, partyID).
			Update("list_position", posB).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.PartyMember{}).
			Where("telegram_id = ? AND party_id = ?", b.TelegramID, partyID).
			Update("list_position", posA).Error
	})

	return mapErr(err)
}
