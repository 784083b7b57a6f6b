package scheduler

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenorcraft/politbot/db"
	"github.com/edenorcraft/politbot/internal/auth"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/election"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/politics"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/voting"
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

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store, *fakeNotifier) {
	t.Helper()

	conn, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	s := store.New(conn)
	notifier := newFakeNotifier()
	cfg := config.Config{
		BotUsername:              "politbot",
		MinPartyMembers:          2,
		PartyFormingMinutes:      10,
		ParliamentSeats:          5,
		ElectionThresholdPercent: 5,
		TermMonths:               6,
		AuthRecheckDays:          30,
	}

	parties := politics.NewManager(s, cfg, notifier)
	elections := election.NewEngine(s, cfg, notifier)
	votings := voting.NewEngine(s, cfg, notifier)
	checker := auth.NewChecker("http://127.0.0.1:9", "unused")

	return New(s, cfg, notifier, checker, parties, elections, votings), s, notifier
}

func formingParty(t *testing.T, s *store.Store, name string, leaderID int64, deadline time.Time, memberIDs ...int64) *models.Party {
	t.Helper()

	require.NoError(t, s.UpsertUser(leaderID, name+"-leader"))

	party := &models.Party{
		Name:                 name,
		Ideology:             "centrism",
		LeaderID:             leaderID,
		InviteCode:           name + "-invite",
		CreatedAt:            time.Now(),
		RegistrationDeadline: deadline,
		MembersCount:         1,
	}
	require.NoError(t, s.CreateParty(party))

	for _, id := range memberIDs {
		require.NoError(t, s.UpsertUser(id, "member"))

		app, err := s.CreateApplication(id, party.ID)
		require.NoError(t, err)
		require.NoError(t, s.ApproveApplication(app.ID))
	}

	return party
}

func TestSweepFormingPartiesSettlesOnlyOverdue(t *testing.T) {
	sched, s, _ := newTestScheduler(t)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	big := formingParty(t, s, "Big", 100, past, 101)
	small := formingParty(t, s, "Small", 200, past)
	fresh := formingParty(t, s, "Fresh", 300, future)

	require.NoError(t, sched.SweepFormingParties())

	registered, err := s.GetParty(big.ID)
	require.NoError(t, err)
	assert.True(t, registered.Registered)

	_, err = s.GetParty(small.ID)
	assert.Error(t, err, "an undersized party dissolves at the deadline")

	untouched, err := s.GetParty(fresh.ID)
	require.NoError(t, err)
	assert.False(t, untouched.Registered)
}

func TestSweepFormingPartiesIsIdempotent(t *testing.T) {
	sched, s, notifier := newTestScheduler(t)

	formingParty(t, s, "Big", 100, time.Now().Add(-time.Minute), 101)

	require.NoError(t, sched.SweepFormingParties())

	after := notifier.direct[101]
	require.NoError(t, sched.SweepFormingParties())
	assert.Equal(t, after, notifier.direct[101], "a second sweep must not re-notify")
}

func TestSweepBallotsClosesOverdueVoting(t *testing.T) {
	sched, s, notifier := newTestScheduler(t)

	require.NoError(t, s.UpsertUser(1, "chancellor"))

	overdue := &models.Voting{
		Title:     "Old question",
		Type:      models.VotingPublic,
		Status:    models.VotingActive,
		CreatedBy: 1,
		StartDate: time.Now().Add(-2 * time.Hour),
		EndDate:   time.Now().Add(-time.Minute),
	}
	require.NoError(t, s.CreateVoting(overdue))

	before := notifier.broadcastCount()
	require.NoError(t, sched.SweepBallots())

	found, err := s.GetVoting(overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VotingClosed, found.Status)
	assert.Equal(t, before+1, notifier.broadcastCount())

	require.NoError(t, sched.SweepBallots())
	assert.Equal(t, before+1, notifier.broadcastCount())
}

func TestSweepBallotsSendsReminderOnce(t *testing.T) {
	sched, s, notifier := newTestScheduler(t)

	require.NoError(t, s.UpsertUser(1, "chancellor"))

	closing := &models.Voting{
		Title:     "Closing soon",
		Type:      models.VotingPublic,
		Status:    models.VotingActive,
		CreatedBy: 1,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, s.CreateVoting(closing))

	before := notifier.broadcastCount()

	require.NoError(t, sched.SweepBallots())
	require.NoError(t, sched.SweepBallots())

	assert.Equal(t, before+1, notifier.broadcastCount())

	found, err := s.GetVoting(closing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VotingActive, found.Status)
	assert.True(t, found.ReminderSent)
}

func TestSweepBallotsClosesOverdueElection(t *testing.T) {
	sched, s, notifier := newTestScheduler(t)

	elect, err := s.CreateElection(time.Now().Add(-time.Minute))
	require.NoError(t, err)

	before := notifier.broadcastCount()
	require.NoError(t, sched.SweepBallots())

	found, err := s.GetElection(elect.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ElectionClosed, found.Status)
	assert.Equal(t, before+1, notifier.broadcastCount())
}
