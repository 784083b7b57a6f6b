package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
)

func TestRemoveMemberClosesPositionGap(t *testing.T) {
	s := newTestStore(t)
	party := seedParty(t, s, "Greens", 100)

	joinParty(t, s, party.ID, 200, "second")
	joinParty(t, s, party.ID, 300, "third")
	joinParty(t, s, party.ID, 400, "fourth")

	require.NoError(t, s.RemoveMember(300, party.ID))

	members, err := s.PartyMembers(party.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, []int{1, 2, 3}, positions(members))
	assert.Equal(t, int64(400), members[2].TelegramID)

	found, err := s.GetParty(party.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.MembersCount)
}

func TestRemoveMemberNeverRemovesLeader(t *testing.T) {
	s := newTestStore(t)
	party := seedParty(t, s, "Greens", 100)

	require.ErrorIs(t, s.RemoveMember(100, party.ID), types.ErrForbidden)
}

func TestTransferLeadershipKeepsExactlyOneLeader(t *testing.T) {
	s := newTestStore(t)
	party := seedParty(t, s, "Greens", 100)
	joinParty(t, s, party.ID, 200, "successor")

	require.NoError(t, s.TransferLeadership(party.ID, 200))

	members, err := s.PartyMembers(party.ID)
	require.NoError(t, err)

	leaders := 0

	for _, m := range members {
		if m.Role == models.RoleLeader {
			leaders++
			assert.Equal(t, int64(200), m.TelegramID)
		}
	}

	assert.Equal(t, 1, leaders)

	found, err := s.GetParty(party.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), found.LeaderID)
}

func TestTransferLeadershipRejectsNonMember(t *testing.T) {
	s := newTestStore(t)
	party := seedParty(t, s, "Greens", 100)

	require.ErrorIs(t, s.TransferLeadership(party.ID, 999), types.ErrNotFound)
	require.ErrorIs(t, s.TransferLeadership(party.ID, 100), types.ErrConflict)
}

func TestSwapPositions(t *testing.T) {
	s := newTestStore(t)
	party := seedParty(t, s, "Greens", 100)

	joinParty(t, s, party.ID, 200, "second")
	joinParty(t, s, party.ID, 300, "third")

	require.NoError(t, s.SwapPositions(party.ID, 2, 3))

	members, err := s.PartyMembers(party.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), members[1].TelegramID)
	assert.Equal(t, int64(200), members[2].TelegramID)
}

func TestSwapPositionsGuardsLeaderSlot(t *testing.T) {
	s := newTestStore(t)
	party := seedParty(t, s, "Greens", 100)
	joinParty(t, s, party.ID, 200, "second")

	require.ErrorIs(t, s.SwapPositions(party.ID, 1, 2), types.ErrInvalid)
	require.ErrorIs(t, s.SwapPositions(party.ID, 2, 2), types.ErrInvalid)
	require.ErrorIs(t, s.SwapPositions(party.ID, 2, 3), types.ErrNotFound)
}
