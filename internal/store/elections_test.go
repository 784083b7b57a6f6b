package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
)

func registeredParty(t *testing.T, s *Store, name string, leaderID int64) *models.Party {
	t.Helper()

	party := seedParty(t, s, name, leaderID)

	registered, err := s.RegisterParty(party.ID)
	require.NoError(t, err)
	require.True(t, registered)

	return party
}

func TestOnlyOneActiveElection(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateElection(time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = s.CreateElection(time.Now().Add(time.Hour))
	require.ErrorIs(t, err, types.ErrConflict)

	active, err := s.ActiveElection()
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
}

func TestActiveElectionNotFoundWhenNoneRunning(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ActiveElection()
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestCastElectionVoteIsImmutable(t *testing.T) {
	s := newTestStore(t)
	party := registeredParty(t, s, "Greens", 100)

	elect, err := s.CreateElection(time.Now().Add(time.Hour))
	require.NoError(t, err)

	seedUser(t, s, 500, "voter")
	require.NoError(t, s.CastElectionVote(elect.ID, 500, party.ID))

	err = s.CastElectionVote(elect.ID, 500, party.ID)
	require.ErrorIs(t, err, types.ErrConflict)

	voted, err := s.HasVotedInElection(elect.ID, 500)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestCastElectionVoteOnClosedElection(t *testing.T) {
	s := newTestStore(t)
	party := registeredParty(t, s, "Greens", 100)

	elect, err := s.CreateElection(time.Now().Add(time.Hour))
	require.NoError(t, err)

	closed, err := s.CloseElectionAndSeat(elect.ID, []byte(`{}`), nil)
	require.NoError(t, err)
	require.True(t, closed)

	seedUser(t, s, 500, "voter")
	require.ErrorIs(t, s.CastElectionVote(elect.ID, 500, party.ID), types.ErrConflict)
}

func TestElectionTalliesIncludeZeroVoteParties(t *testing.T) {
	s := newTestStore(t)
	greens := registeredParty(t, s, "Greens", 100)
	reds := registeredParty(t, s, "Reds", 200)
	seedParty(t, s, "Forming", 300)

	elect, err := s.CreateElection(time.Now().Add(time.Hour))
	require.NoError(t, err)

	for i, voter := range []int64{500, 501, 502} {
		seedUser(t, s, voter, "voter")
		target := greens.ID

		if i == 2 {
			target = reds.ID
		}

		require.NoError(t, s.CastElectionVote(elect.ID, voter, target))
	}

	tallies, err := s.ElectionTallies(elect.ID)
	require.NoError(t, err)
	require.Len(t, tallies, 2, "forming parties stay off the ballot")
	assert.Equal(t, "Greens", tallies[0].Name)
	assert.Equal(t, 2, tallies[0].Votes)
	assert.Equal(t, "Reds", tallies[1].Name)
	assert.Equal(t, 1, tallies[1].Votes)

	total, err := s.ElectionTotalVotes(elect.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestCloseElectionAndSeatReplacesParliament(t *testing.T) {
	s := newTestStore(t)
	greens := registeredParty(t, s, "Greens", 100)
	joinParty(t, s, greens.ID, 200, "deputy")

	elect, err := s.CreateElection(time.Now().Add(time.Hour))
	require.NoError(t, err)

	term := time.Now().Add(24 * time.Hour)
	seats := []models.ParliamentMember{
		{TelegramID: 100, PartyID: &greens.ID, TermStart: time.Now(), TermEnd: term},
		{TelegramID: 200, PartyID: &greens.ID, TermStart: time.Now(), TermEnd: term},
	}

	closed, err := s.CloseElectionAndSeat(elect.ID, []byte(`{"seats":2}`), seats)
	require.NoError(t, err)
	assert.True(t, closed)

	count, err := s.ParliamentCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deputy, err := s.IsDeputy(200)
	require.NoError(t, err)
	assert.True(t, deputy)

	again, err := s.CloseElectionAndSeat(elect.ID, []byte(`{}`), nil)
	require.NoError(t, err)
	assert.False(t, again, "second close must report no change")

	count, err = s.ParliamentCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "a repeated close must not clear the seats")
}
