package politics

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenorcraft/politbot/db"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
)

type fakeNotifier struct {
	mu     sync.Mutex
	direct map[int64][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{direct: make(map[int64][]string)}
}

func (f *fakeNotifier) Send(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.direct[chatID] = append(f.direct[chatID], text)

	return nil
}

func (f *fakeNotifier) SendKeyboard(chatID int64, text string, _ *notify.InlineKeyboardMarkup) error {
	return f.Send(chatID, text)
}

func (f *fakeNotifier) Broadcast(string, *notify.InlineKeyboardMarkup) (int64, error) {
	return 0, nil
}

func (f *fakeNotifier) EditBroadcast(int64, string, *notify.InlineKeyboardMarkup) error {
	return nil
}

func (f *fakeNotifier) sentTo(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.direct[chatID])
}

func newTestManager(t *testing.T) (*Manager, *store.Store, *fakeNotifier) {
	t.Helper()

	conn, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	s := store.New(conn)
	notifier := newFakeNotifier()
	cfg := config.Config{
		BotUsername:         "politbot",
		MinPartyMembers:     3,
		PartyFormingMinutes: 10,
	}

	return NewManager(s, cfg, notifier), s, notifier
}

func verifiedUser(t *testing.T, s *store.Store, id int64, name string) {
	t.Helper()
	require.NoError(t, s.UpsertUser(id, name))
}

func join(t *testing.T, m *Manager, s *store.Store, partyID uint, leaderID, userID int64) {
	t.Helper()

	verifiedUser(t, s, userID, "member")

	app, err := m.Apply(userID, partyID)
	require.NoError(t, err)
	require.NoError(t, m.Approve(app.ID, leaderID))
}

func TestCreatePartyStartsForming(t *testing.T) {
	m, s, _ := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "trees first")
	require.NoError(t, err)
	assert.False(t, party.Registered)
	assert.NotEmpty(t, party.InviteCode)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), party.RegistrationDeadline, 5*time.Second)

	_, err = m.CreateParty(100, "Reds", "labour", "")
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestApproveIsLeaderOnly(t *testing.T) {
	m, s, _ := newTestManager(t)
	verifiedUser(t, s, 100, "founder")
	verifiedUser(t, s, 200, "applicant")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)

	app, err := m.Apply(200, party.ID)
	require.NoError(t, err)

	require.ErrorIs(t, m.Approve(app.ID, 200), types.ErrForbidden)
	require.NoError(t, m.Approve(app.ID, 100))
}

func TestApplyNotifiesLeader(t *testing.T) {
	m, s, notifier := newTestManager(t)
	verifiedUser(t, s, 100, "founder")
	verifiedUser(t, s, 200, "applicant")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)

	_, err = m.Apply(200, party.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.sentTo(100))
}

func TestLeaderCannotLeave(t *testing.T) {
	m, s, _ := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)

	require.ErrorIs(t, m.RemoveMember(party.ID, 100, 100), types.ErrForbidden)
}

func TestMemberCanLeaveButNotKick(t *testing.T) {
	m, s, _ := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)

	join(t, m, s, party.ID, 100, 200)
	join(t, m, s, party.ID, 100, 300)

	require.ErrorIs(t, m.RemoveMember(party.ID, 200, 300), types.ErrForbidden)
	require.NoError(t, m.RemoveMember(party.ID, 300, 300))

	_, err = s.GetUserParty(300)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestMoveMemberProtectsLeaderSlot(t *testing.T) {
	m, s, _ := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)

	join(t, m, s, party.ID, 100, 200)
	join(t, m, s, party.ID, 100, 300)

	require.ErrorIs(t, m.MoveMember(party.ID, 100, 2, true), types.ErrInvalid)

	require.NoError(t, m.MoveMember(party.ID, 100, 3, true))

	members, err := s.PartyMembers(party.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), members[1].TelegramID)
	assert.Equal(t, int64(200), members[2].TelegramID)
}

func TestTransferLeadershipIsLeaderOnly(t *testing.T) {
	m, s, _ := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)
	join(t, m, s, party.ID, 100, 200)

	require.ErrorIs(t, m.TransferLeadership(party.ID, 200, 200), types.ErrForbidden)
	require.NoError(t, m.TransferLeadership(party.ID, 100, 200))

	found, err := s.GetParty(party.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), found.LeaderID)
}

func TestDeletePartyTellsMembersFirst(t *testing.T) {
	m, s, notifier := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)
	join(t, m, s, party.ID, 100, 200)

	require.ErrorIs(t, m.DeleteParty(party.ID, 200), types.ErrForbidden)
	require.NoError(t, m.DeleteParty(party.ID, 100))

	assert.GreaterOrEqual(t, notifier.sentTo(200), 1)

	_, err = s.GetParty(party.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestSettleFormingPartyRegisters(t *testing.T) {
	m, s, notifier := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)

	join(t, m, s, party.ID, 100, 200)
	join(t, m, s, party.ID, 100, 300)

	current, err := s.GetParty(party.ID)
	require.NoError(t, err)

	before := notifier.sentTo(200)
	require.NoError(t, m.SettleFormingParty(*current))

	found, err := s.GetParty(party.ID)
	require.NoError(t, err)
	assert.True(t, found.Registered)
	assert.Equal(t, before+1, notifier.sentTo(200))

	// A second sweep seeing stale data must not notify again.
	require.NoError(t, m.SettleFormingParty(*current))
	assert.Equal(t, before+1, notifier.sentTo(200))
}

func TestSettleFormingPartyDissolves(t *testing.T) {
	m, s, notifier := newTestManager(t)
	verifiedUser(t, s, 100, "founder")

	party, err := m.CreateParty(100, "Greens", "ecology", "")
	require.NoError(t, err)
	join(t, m, s, party.ID, 100, 200)

	current, err := s.GetParty(party.ID)
	require.NoError(t, err)

	before200, before100 := notifier.sentTo(200), notifier.sentTo(100)
	require.NoError(t, m.SettleFormingParty(*current))

	_, err = s.GetParty(party.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, before200+1, notifier.sentTo(200))
	assert.Equal(t, before100+1, notifier.sentTo(100))
}
