package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenorcraft/politbot/db"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
)

func newTestGuard(t *testing.T, identity http.HandlerFunc) (*Guard, *store.Store) {
	t.Helper()

	conn, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	server := httptest.NewServer(identity)
	t.Cleanup(server.Close)

	s := store.New(conn)
	cfg := config.Config{AdminIDs: []int64{777}}
	checker := NewChecker(server.URL, "secret")

	return NewGuard(s, cfg, checker), s
}

func linkedAs(username string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Profile{Username: username})
	}
}

func notLinked(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func TestRequireUserRegistersOnFirstContact(t *testing.T) {
	guard, s := newTestGuard(t, linkedAs("steve"))

	user, err := guard.RequireUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "steve", user.Username)
	assert.True(t, user.IsActive)

	stored, err := s.GetUser(42)
	require.NoError(t, err)
	assert.Equal(t, "steve", stored.Username)
}

func TestRequireUserRejectsUnlinked(t *testing.T) {
	guard, _ := newTestGuard(t, notLinked)

	_, err := guard.RequireUser(context.Background(), 42)
	require.ErrorIs(t, err, types.ErrForbidden)
}

func TestRequireUserRechecksDeactivated(t *testing.T) {
	guard, s := newTestGuard(t, linkedAs("steve"))

	_, err := guard.RequireUser(context.Background(), 42)
	require.NoError(t, err)

	// A deactivated user who relinked passes again via a live check.
	require.NoError(t, s.DeactivateUser(42))

	user, err := guard.RequireUser(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, user.IsActive)
}

func TestRequireUserFailsClosedOnUpstreamOutage(t *testing.T) {
	guard, _ := newTestGuard(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := guard.RequireUser(context.Background(), 42)
	require.ErrorIs(t, err, types.ErrForbidden)
}

func TestRequireAdmin(t *testing.T) {
	guard, _ := newTestGuard(t, notLinked)

	require.NoError(t, guard.RequireAdmin(777))
	require.ErrorIs(t, guard.RequireAdmin(42), types.ErrForbidden)
}

func TestRequireDeputyWithoutSeat(t *testing.T) {
	guard, _ := newTestGuard(t, notLinked)

	require.ErrorIs(t, guard.RequireDeputy(42), types.ErrForbidden)
}

func TestRequirePartyLeader(t *testing.T) {
	guard, s := newTestGuard(t, linkedAs("steve"))

	_, err := guard.RequireUser(context.Background(), 42)
	require.NoError(t, err)

	_, err = guard.RequirePartyLeader(42)
	require.ErrorIs(t, err, types.ErrForbidden)

	party := &models.Party{
		Name:                 "Greens",
		Ideology:             "ecology",
		LeaderID:             42,
		InviteCode:           "greens-invite",
		CreatedAt:            time.Now(),
		RegistrationDeadline: time.Now().Add(time.Hour),
		MembersCount:         1,
	}
	require.NoError(t, s.CreateParty(party))

	led, err := guard.RequirePartyLeader(42)
	require.NoError(t, err)
	assert.Equal(t, party.ID, led.ID)
}
