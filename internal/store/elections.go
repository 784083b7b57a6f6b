package store

import (
	"fmt"
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActiveElection returns the single active election, or NotFound.
func (s *Store) ActiveElection() (*models.Election, error) {
	var election models.Election

	err := s.db.Where("status = ?", models.ElectionActive).
		Order("start_date DESC").
		First(&election).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return &election, nil
}

func (s *Store) GetElection(electionID uint) (*models.Election, error) {
	var election models.Election

	if err := s.db.First(&election, electionID).Error; err != nil {
		return nil, mapErr(err)
	}

	return &election, nil
}

// CreateElection opens a new election. Conflict if one is already active.
func (s *Store) CreateElection(end time.Time) (*models.Election, error) {
	election := models.Election{
		Status:    models.ElectionActive,
		StartDate: time.Now(),
		EndDate:   end,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var active int64

		err := tx.Model(&models.Election{}).
			Where("status = ?", models.ElectionActive).
			Count(&active).Error
		if err != nil {
			return err
		}

		if active > 0 {
			return fmt.Errorf("an election is already running: %w", types.ErrConflict)
		}

		return tx.Create(&election).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}

	return &election, nil
}

// CastElectionVote records an immutable vote. Conflict on a closed election
// or a repeat voter.
func (s *Store) CastElectionVote(electionID uint, voterID int64, partyID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var election models.Election

		if err := tx.First(&election, electionID).Error; err != nil {
			return err
		}

		if election.Status != models.ElectionActive {
			return fmt.Errorf("election is closed: %w", types.ErrConflict)
		}

		vote := models.ElectionVote{
			ElectionID: electionID,
			VoterID:    voterID,
			PartyID:    partyID,
			VotedAt:    time.Now(),
		}

		return tx.Create(&vote).Error
	})

	return mapErr(err)
}

func (s *Store) HasVotedInElection(electionID uint, voterID int64) (bool, error) {
	var count int64

	err := s.db.Model(&models.ElectionVote{}).
		Where("election_id = ? AND voter_id = ?", electionID, voterID).
		Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}

	return count > 0, nil
}

// PartyTally is one registered party's vote count in an election.
type PartyTally struct {
	PartyID uint
	Name    string
	Votes   int
}

// ElectionTallies counts votes per registered party, including parties with
// zero votes, most votes first.
func (s *Store) ElectionTallies(electionID uint) ([]PartyTally, error) {
	var tallies []PartyTally

	err := s.db.Model(&models.Party{}).
		Select("parties.id AS party_id, parties.name, COUNT(election_votes.voter_id) AS votes").
		Joins("LEFT JOIN election_votes ON election_votes.party_id = parties.id AND election_votes.election_id = ?", electionID).
		Where("parties.registered = ?", true).
		Group("parties.id").
		Order("votes DESC").
		Scan(&tallies).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return tallies, nil
}

func (s *Store) ElectionTotalVotes(electionID uint) (int64, error) {
	var count int64

	err := s.db.Model(&models.ElectionVote{}).
		Where("election_id = ?", electionID).
		Count(&count).Error

	return count, mapErr(err)
}

// CloseElectionAndSeat atomically freezes the results snapshot, marks the
// election closed, and replaces the entire parliament with the given seats.
// Reports whether this call performed the close; a second sweep seeing the
// same overdue election is a no-op.
func (s *Store) CloseElectionAndSeat(electionID uint, results datatypes.JSON, seats []models.ParliamentMember) (bool, error) {
	closed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Election{}).
			Where("id = ? AND status = ?", electionID, models.ElectionActive).
			Updates(map[string]interface{}{
				"status":  models.ElectionClosed,
				"results": results,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return nil
		}

		closed = true

		if err := tx.Where("1 = 1").Delete(&models.ParliamentMember{}).Error; err != nil {
			return err
		}

		if len(seats) == 0 {
			return nil
		}

		return tx.Create(&seats).Error
	})
	if err != nil {
		return false, mapErr(err)
	}

	return closed, nil
}

func (s *Store) SetElectionChannelMessage(electionID uint, messageID int64) error {
	err := s.db.Model(&models.Election{}).
		Where("id = ?", electionID).
		Update("channel_message_id", messageID).Error

	return mapErr(err)
}
