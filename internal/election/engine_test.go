package election

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenorcraft/politbot/db"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
)

type fakeNotifier struct {
	mu         sync.Mutex
	direct     map[int64][]string
	broadcasts []string
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

func (f *fakeNotifier) Broadcast(text string, _ *notify.InlineKeyboardMarkup) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.broadcasts = append(f.broadcasts, text)

	return int64(len(f.broadcasts)), nil
}

func (f *fakeNotifier) EditBroadcast(int64, string, *notify.InlineKeyboardMarkup) error {
	return nil
}

func (f *fakeNotifier) broadcastCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.broadcasts)
}

func testConfig() config.Config {
	return config.Config{
		BotUsername:              "politbot",
		MinPartyMembers:          3,
		PartyFormingMinutes:      10,
		ParliamentSeats:          5,
		ElectionThresholdPercent: 5,
		TermMonths:               6,
		AuthRecheckDays:          30,
	}
}

func newTestEngine(t *testing.T) (*Engine, *store.Store, *fakeNotifier) {
	t.Helper()

	conn, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	s := store.New(conn)
	notifier := newFakeNotifier()

	return NewEngine(s, testConfig(), notifier), s, notifier
}

func seedRegisteredParty(t *testing.T, s *store.Store, name string, leaderID int64, memberIDs ...int64) *models.Party {
	t.Helper()

	require.NoError(t, s.UpsertUser(leaderID, name+"-leader"))

	party := &models.Party{
		Name:                 name,
		Ideology:             "centrism",
		LeaderID:             leaderID,
		InviteCode:           name + "-invite",
		CreatedAt:            time.Now(),
		RegistrationDeadline: time.Now().Add(10 * time.Minute),
		MembersCount:         1,
	}
	require.NoError(t, s.CreateParty(party))

	for _, id := range memberIDs {
		require.NoError(t, s.UpsertUser(id, "member"))

		app, err := s.CreateApplication(id, party.ID)
		require.NoError(t, err)
		require.NoError(t, s.ApproveApplication(app.ID))
	}

	registered, err := s.RegisterParty(party.ID)
	require.NoError(t, err)
	require.True(t, registered)

	return party
}

func TestStartNeedsTwoRegisteredParties(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	seedRegisteredParty(t, s, "Greens", 100)

	_, err := engine.Start(1, time.Hour)
	require.ErrorIs(t, err, types.ErrInvalid)
}

func TestStartAnnouncesAndDissolvesOldParliament(t *testing.T) {
	engine, s, notifier := newTestEngine(t)
	greens := seedRegisteredParty(t, s, "Greens", 100)
	seedRegisteredParty(t, s, "Reds", 200)

	term := time.Now().Add(24 * time.Hour)
	first, err := s.CreateElection(time.Now().Add(time.Minute))
	require.NoError(t, err)

	closed, err := s.CloseElectionAndSeat(first.ID, []byte(`{}`), []models.ParliamentMember{
		{TelegramID: 100, PartyID: &greens.ID, TermStart: time.Now(), TermEnd: term},
	})
	require.NoError(t, err)
	require.True(t, closed)

	elect, err := engine.Start(1, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.ElectionActive, elect.Status)
	assert.Equal(t, 1, notifier.broadcastCount())

	count, err := s.ParliamentCount()
	require.NoError(t, err)
	assert.Zero(t, count, "starting an election vacates the chamber")
}

func TestCastVoteRejectsFormingParty(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	seedRegisteredParty(t, s, "Greens", 100)
	seedRegisteredParty(t, s, "Reds", 200)

	require.NoError(t, s.UpsertUser(300, "founder"))

	forming := &models.Party{
		Name:                 "Forming",
		Ideology:             "none",
		LeaderID:             300,
		InviteCode:           "forming-invite",
		CreatedAt:            time.Now(),
		RegistrationDeadline: time.Now().Add(10 * time.Minute),
		MembersCount:         1,
	}
	require.NoError(t, s.CreateParty(forming))

	elect, err := engine.Start(1, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.UpsertUser(500, "voter"))
	require.ErrorIs(t, engine.CastVote(elect.ID, 500, forming.ID), types.ErrInvalid)
}

func TestCloseAndSeatFillsFromListTop(t *testing.T) {
	engine, s, notifier := newTestEngine(t)
	greens := seedRegisteredParty(t, s, "Greens", 100, 101, 102, 103)
	reds := seedRegisteredParty(t, s, "Reds", 200, 201)

	elect, err := engine.Start(1, time.Hour)
	require.NoError(t, err)

	// 4 votes Greens, 1 vote Reds, 5 seats: exact shares 3.2 and 0.8
	// floor to 3 and 0, leftovers land on the larger remainder first.
	voters := map[int64]uint{
		500: greens.ID, 501: greens.ID, 502: greens.ID, 503: greens.ID,
		504: reds.ID,
	}
	for voter, party := range voters {
		require.NoError(t, s.UpsertUser(voter, "voter"))
		require.NoError(t, engine.CastVote(elect.ID, voter, party))
	}

	require.NoError(t, engine.CloseAndSeat(elect.ID))

	deputies, err := s.ParliamentMembers()
	require.NoError(t, err)
	require.Len(t, deputies, 5)

	perParty := make(map[uint]int)

	for _, deputy := range deputies {
		require.NotNil(t, deputy.PartyID)
		perParty[*deputy.PartyID]++
	}

	assert.Equal(t, 4, perParty[greens.ID])
	assert.Equal(t, 1, perParty[reds.ID])

	// Greens got the leader plus the first three list members.
	leaderSeated, err := s.IsDeputy(100)
	require.NoError(t, err)
	assert.True(t, leaderSeated)

	closed, err := s.GetElection(elect.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ElectionClosed, closed.Status)
	assert.NotEmpty(t, closed.Results)

	broadcastsAfterClose := notifier.broadcastCount()
	require.NoError(t, engine.CloseAndSeat(elect.ID))
	assert.Equal(t, broadcastsAfterClose, notifier.broadcastCount(), "a repeated close must stay silent")
}

func TestCloseAndSeatUnderfilledList(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	greens := seedRegisteredParty(t, s, "Greens", 100, 101)
	seedRegisteredParty(t, s, "Reds", 200, 201)

	elect, err := engine.Start(1, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.UpsertUser(500, "voter"))
	require.NoError(t, engine.CastVote(elect.ID, 500, greens.ID))

	require.NoError(t, engine.CloseAndSeat(elect.ID))

	// Greens won all 5 seats but only has 2 members; the rest stay empty.
	count, err := s.ParliamentCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
