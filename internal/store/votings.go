package store

import (
	"fmt"
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
	"gorm.io/gorm"
)

func (s *Store) CreateVoting(voting *models.Voting) error {
	return mapErr(s.db.Create(voting).Error)
}

func (s *Store) GetVoting(votingID uint) (*models.Voting, error) {
	var voting models.Voting

	if err := s.db.First(&voting, votingID).Error; err != nil {
		return nil, mapErr(err)
	}

	return &voting, nil
}

func (s *Store) ActiveVotings() ([]models.Voting, error) {
	var votings []models.Voting

	err := s.db.Where("status = ?", models.VotingActive).
		Order("start_date DESC").
		Find(&votings).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return votings, nil
}

// CastVotingVote records the vote and bumps the matching counter in the same
// transaction, keeping the counters equal to the vote rows at all times.
func (s *Store) CastVotingVote(votingID uint, voterID int64, choice string) error {
	if choice != models.ChoiceFor && choice != models.ChoiceAgainst {
		return fmt.Errorf("choice %q: %w", choice, types.ErrInvalid)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var voting models.Voting

		if err := tx.First(&voting, votingID).Error; err != nil {
			return err
		}

		if voting.Status != models.VotingActive {
			return fmt.Errorf("voting is closed: %w", types.ErrConflict)
		}

		vote := models.VotingVote{
			VotingID: votingID,
			VoterID:  voterID,
			Choice:   choice,
			VotedAt:  time.Now(),
		}

		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		column := "votes_for"
		if choice == models.ChoiceAgainst {
			column = "votes_against"
		}

		return tx.Model(&models.Voting{}).
			Where("id = ?", votingID).
			Update(column, gorm.Expr(column+" + 1")).Error
	})

	return mapErr(err)
}

func (s *Store) HasVoted(votingID uint, voterID int64) (bool, error) {
	var count int64

	err := s.db.Model(&models.VotingVote{}).
		Where("voting_id = ? AND voter_id = ?", votingID, voterID).
		Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}

	return count > 0, nil
}

// CloseVoting flips active to closed; reports whether this call did it.
func (s *Store) CloseVoting(votingID uint) (bool, error) {
	result := s.db.Model(&models.Voting{}).
		Where("id = ? AND status = ?", votingID, models.VotingActive).
		Update("status", models.VotingClosed)
	if result.Error != nil {
		return false, mapErr(result.Error)
	}

	return result.RowsAffected > 0, nil
}

// MarkReminderSent claims the one-shot closing-soon notice; reports whether
// this caller won the claim.
func (s *Store) MarkReminderSent(votingID uint) (bool, error) {
	result := s.db.Model(&models.Voting{}).
		Where("id = ? AND reminder_sent = ?", votingID, false).
		Update("reminder_sent", true)
	if result.Error != nil {
		return false, mapErr(result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (s *Store) CountVotings(status string) (int64, error) {
	var count int64

	err := s.db.Model(&models.Voting{}).
		Where("status = ?", status).
		Count(&count).Error

	return count, mapErr(err)
}

func (s *Store) SetVotingChannelMessage(votingID uint, messageID int64) error {
	err := s.db.Model(&models.Voting{}).
		Where("id = ?", votingID).
		Update("channel_message_id", messageID).Error

	return mapErr(err)
}
