// Package election runs parliamentary elections: opening, vote intake, and
// the scheduler-driven close that tallies, apportions seats, and seats the
// new parliament atomically.
package election

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
)

type Engine struct {
	store    *store.Store
	cfg      config.Config
	notifier notify.Notifier
}

func NewEngine(s *store.Store, cfg config.Config, n notify.Notifier) *Engine {
	return &Engine{store: s, cfg: cfg, notifier: n}
}

// ResultSnapshot is the frozen tally stored on the closed election row.
type ResultSnapshot struct {
	TotalVotes int          `json:"total_votes"`
	Seats      int          `json:"seats"`
	Threshold  int          `json:"threshold_percent"`
	Parties    []Allocation `json:"parties"`
}

// Start opens an election. Needs at least two registered parties; only one
// election can run at a time. Seating a new parliament starts with a clean
// chamber, so any sitting parliament is dissolved here.
func (e *Engine) Start(actorID int64, duration time.Duration) (*models.Election, error) {
	registered, err := e.store.CountRegisteredParties()
	if err != nil {
		return nil, err
	}

	if registered < 2 {
		return nil, fmt.Errorf("need at least 2 registered parties, have %d: %w", registered, types.ErrInvalid)
	}

	if err := e.store.ClearParliament(); err != nil {
		return nil, err
	}

	elect, err := e.store.CreateElection(time.Now().Add(duration))
	if err != nil {
		return nil, err
	}

	parties, err := e.store.ListParties(true)
	if err != nil {
		return nil, err
	}

	var lines []string
	for i, party := range parties {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, party.Name, party.Ideology))
	}

	text := fmt.Sprintf(
		"🗳️ <b>PARLIAMENTARY ELECTION ANNOUNCED</b>\n\n"+
			"Voting is open for %s.\n"+
			"Seats: %d\nThreshold: %d%%\n\n"+
			"<b>Parties:</b>\n%s\n\n"+
			"Vote for a party, not a person — seats fill from the party lists.",
		duration.Round(time.Hour), e.cfg.ParliamentSeats, e.cfg.ElectionThresholdPercent,
		strings.Join(lines, "\n"),
	)

	markup := &notify.InlineKeyboardMarkup{
		InlineKeyboard: [][]notify.InlineKeyboardButton{{
			{Text: "🗳️ VOTE", URL: e.DeepLink(elect.ID)},
		}},
	}

	messageID, err := e.notifier.Broadcast(text, markup)
	if err != nil {
		log.Printf("Failed to announce election %d: %v", elect.ID, err)
	} else if messageID != 0 {
		if err := e.store.SetElectionChannelMessage(elect.ID, messageID); err != nil {
			log.Printf("Failed to record channel message for election %d: %v", elect.ID, err)
		}
	}

	if err := e.store.LogAction(actorID, "election_started", fmt.Sprintf("duration: %s", duration)); err != nil {
		log.Printf("Failed to log election start: %v", err)
	}

	return elect, nil
}

// DeepLink is the voting entry point published to the channel.
func (e *Engine) DeepLink(electionID uint) string {
	return fmt.Sprintf("https://t.me/%s?start=election_%d", e.cfg.BotUsername, electionID)
}

// CastVote records a single immutable vote for a registered party. The
// caller has already resolved the voter to a verified user.
func (e *Engine) CastVote(electionID uint, voterID int64, partyID uint) error {
	party, err := e.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if !party.Registered {
		return fmt.Errorf("party %s is not registered: %w", party.Name, types.ErrInvalid)
	}

	if err := e.store.CastElectionVote(electionID, voterID, partyID); err != nil {
		return err
	}

	if err := e.store.LogAction(voterID, "election_vote", party.Name); err != nil {
		log.Printf("Failed to log election vote: %v", err)
	}

	return nil
}

// CloseAndSeat tallies the election, apportions seats, and replaces the
// parliament in one atomic write. Scheduler-driven only. Idempotent: if
// another sweep already closed the election nothing happens.
func (e *Engine) CloseAndSeat(electionID uint) error {
	tallies, err := e.store.ElectionTallies(electionID)
	if err != nil {
		return err
	}

	candidates := make([]Candidate, 0, len(tallies))

	for _, t := range tallies {
		party, err := e.store.GetParty(t.PartyID)
		if err != nil {
			return err
		}

		candidates = append(candidates, Candidate{
			PartyID:   t.PartyID,
			Name:      t.Name,
			Votes:     t.Votes,
			CreatedAt: party.CreatedAt,
		})
	}

	allocations := AllocateSeats(candidates, e.cfg.ParliamentSeats, e.cfg.ElectionThresholdPercent)

	termStart := time.Now()
	termEnd := termStart.Add(time.Duration(e.cfg.TermMonths) * 30 * 24 * time.Hour)

	var seats []models.ParliamentMember

	for _, alloc := range allocations {
		if alloc.Seats == 0 {
			continue
		}

		members, err := e.store.PartyMembers(alloc.PartyID)
		if err != nil {
			return err
		}

		// Seats fill from the top of the party list; a list shorter than
		// its award just leaves those seats empty.
		take := alloc.Seats
		if take > len(members) {
			take = len(members)
		}

		partyID := alloc.PartyID

		for _, member := range members[:take] {
			seats = append(seats, models.ParliamentMember{
				TelegramID: member.TelegramID,
				PartyID:    &partyID,
				TermStart:  termStart,
				TermEnd:    termEnd,
			})
		}
	}

	total := 0
	for _, c := range candidates {
		total += c.Votes
	}

	snapshot := ResultSnapshot{
		TotalVotes: total,
		Seats:      e.cfg.ParliamentSeats,
		Threshold:  e.cfg.ElectionThresholdPercent,
		Parties:    allocations,
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	closed, err := e.store.CloseElectionAndSeat(electionID, raw, seats)
	if err != nil {
		return err
	}

	if !closed {
		return nil
	}

	var lines []string
	for _, alloc := range allocations {
		lines = append(lines, fmt.Sprintf("%s — %d votes, %d seats", alloc.Name, alloc.Votes, alloc.Seats))
	}

	text := fmt.Sprintf(
		"📊 <b>PARLIAMENTARY ELECTION RESULTS</b>\n\n"+
			"Votes cast: %d\n\n%s\n\n✅ The parliament is seated!",
		total, strings.Join(lines, "\n"),
	)

	if _, err := e.notifier.Broadcast(text, nil); err != nil {
		log.Printf("Failed to broadcast election results: %v", err)
	}

	if elect, err := e.store.GetElection(electionID); err == nil && elect.ChannelMessageID != 0 {
		announcement := "🔒 <b>THE POLLS ARE CLOSED</b>\n\nSee the results below."
		if err := e.notifier.EditBroadcast(elect.ChannelMessageID, announcement, nil); err != nil {
			log.Printf("Failed to edit election announcement: %v", err)
		}
	}

	log.Printf("Election %d closed, %d deputies seated", electionID, len(seats))

	return nil
}
