package bot

import (
	"sync"
	"time"
)

// Multi-step flow states. A user is in at most one flow at a time; /cancel
// or 30 minutes of silence drops it.
const (
	StatePartyName        = "party_name"
	StatePartyIdeology    = "party_ideology"
	StatePartyDescription = "party_description"
	StatePartyRename      = "party_rename"
	StatePartyPhoto       = "party_photo"

	StateVotingTitle       = "voting_title"
	StateVotingDescription = "voting_description"
	StateVotingDuration    = "voting_duration"

	StateElectionDuration = "election_duration"
)

const sessionTTL = 30 * time.Minute

// Session is one user's in-flight guided flow.
type Session struct {
	State     string
	Data      map[string]string
	touchedAt time.Time
}

// Sessions is the in-memory per-user flow state. Losing it on restart is
// fine, users just restart the flow.
type Sessions struct {
	mu   sync.Mutex
	byID map[int64]*Session
	now  func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[int64]*Session), now: time.Now}
}

// Get returns the user's live session, expiring stale ones on the way.
func (s *Sessions) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[userID]
	if !ok {
		return nil, false
	}

	if s.now().Sub(sess.touchedAt) > sessionTTL {
		delete(s.byID, userID)
		return nil, false
	}

	sess.touchedAt = s.now()

	return sess, true
}

// Begin replaces whatever flow the user was in with a fresh one.
func (s *Sessions) Begin(userID int64, state string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		State:     state,
		Data:      make(map[string]string),
		touchedAt: s.now(),
	}
	s.byID[userID] = sess

	return sess
}

func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byID, userID)
}
