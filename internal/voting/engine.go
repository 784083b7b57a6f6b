// Package voting runs for/against ballots, either open to everyone or
// restricted to sitting deputies. Eligibility is checked at cast time only;
// a deputy who later loses the seat keeps the vote.
package voting

import (
	"fmt"
	"log"
	"time"

	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
)

const (
	MinDuration = time.Hour
	MaxDuration = 168 * time.Hour
)

type Engine struct {
	store    *store.Store
	cfg      config.Config
	notifier notify.Notifier
}

func NewEngine(s *store.Store, cfg config.Config, n notify.Notifier) *Engine {
	return &Engine{store: s, cfg: cfg, notifier: n}
}

// Open creates a ballot and announces it on the channel. The caller has
// already passed the admin guard.
func (e *Engine) Open(creatorID int64, title, description, votingType string, duration time.Duration) (*models.Voting, error) {
	if votingType != models.VotingPublic && votingType != models.VotingParliament {
		return nil, fmt.Errorf("voting type %q: %w", votingType, types.ErrInvalid)
	}

	if duration < MinDuration || duration > MaxDuration {
		return nil, fmt.Errorf("duration must be between 1 and 168 hours: %w", types.ErrInvalid)
	}

	voting := &models.Voting{
		Title:       title,
		Description: description,
		Type:        votingType,
		Status:      models.VotingActive,
		CreatedBy:   creatorID,
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(duration),
	}

	if err := e.store.CreateVoting(voting); err != nil {
		return nil, err
	}

	audience := "All verified players vote"
	kind := "👥 Public"

	if votingType == models.VotingParliament {
		audience = "Only parliament deputies vote"
		kind = "🏛️ Parliamentary"
	}

	text := fmt.Sprintf(
		"%s VOTE\n\n<b>%s</b>\n\n%s\n\n%s\nOpen for %d h.",
		kind, title, description, audience, int(duration.Hours()),
	)

	markup := &notify.InlineKeyboardMarkup{
		InlineKeyboard: [][]notify.InlineKeyboardButton{{
			{Text: "🗳️ VOTE", URL: e.DeepLink(voting.ID)},
		}},
	}

	messageID, err := e.notifier.Broadcast(text, markup)
	if err != nil {
		log.Printf("Failed to announce voting %d: %v", voting.ID, err)
	} else if messageID != 0 {
		if err := e.store.SetVotingChannelMessage(voting.ID, messageID); err != nil {
			log.Printf("Failed to record channel message for voting %d: %v", voting.ID, err)
		}
	}

	if err := e.store.LogAction(creatorID, "voting_created", title); err != nil {
		log.Printf("Failed to log voting creation: %v", err)
	}

	return voting, nil
}

func (e *Engine) DeepLink(votingID uint) string {
	return fmt.Sprintf("https://t.me/%s?start=vote_%d", e.cfg.BotUsername, votingID)
}

// Cast records one vote. Parliament-only ballots require a live seat at the
// moment of casting; double votes and closed ballots come back as Conflict.
func (e *Engine) Cast(votingID uint, voterID int64, choice string) error {
	voting, err := e.store.GetVoting(votingID)
	if err != nil {
		return err
	}

	if voting.Type == models.VotingParliament {
		deputy, err := e.store.IsDeputy(voterID)
		if err != nil {
			return err
		}

		if !deputy {
			return fmt.Errorf("deputies only: %w", types.ErrForbidden)
		}
	}

	if err := e.store.CastVotingVote(votingID, voterID, choice); err != nil {
		return err
	}

	if err := e.store.LogAction(voterID, "voting_vote", fmt.Sprintf("%s: %s", voting.Title, choice)); err != nil {
		log.Printf("Failed to log vote: %v", err)
	}

	return nil
}

// Outcome of a closed ballot: a tie loses.
func Outcome(voting models.Voting) string {
	if voting.VotesFor > voting.VotesAgainst {
		return "✅ PASSED"
	}

	return "❌ REJECTED"
}

// Close ends the ballot and broadcasts the tally. Scheduler-driven only;
// repeated calls on an already-closed ballot do nothing.
func (e *Engine) Close(votingID uint) error {
	closed, err := e.store.CloseVoting(votingID)
	if err != nil {
		return err
	}

	if !closed {
		return nil
	}

	voting, err := e.store.GetVoting(votingID)
	if err != nil {
		return err
	}

	total := voting.VotesFor + voting.VotesAgainst

	var forPct, againstPct float64
	if total > 0 {
		forPct = float64(voting.VotesFor) / float64(total) * 100
		againstPct = float64(voting.VotesAgainst) / float64(total) * 100
	}

	text := fmt.Sprintf(
		"📊 <b>VOTE RESULTS</b>\n\n%s\n\n"+
			"For: %d (%.1f%%)\nAgainst: %d (%.1f%%)\n\n<b>%s</b>",
		voting.Title, voting.VotesFor, forPct, voting.VotesAgainst, againstPct, Outcome(*voting),
	)

	if _, err := e.notifier.Broadcast(text, nil); err != nil {
		log.Printf("Failed to broadcast voting results: %v", err)
	}

	if voting.ChannelMessageID != 0 {
		announcement := fmt.Sprintf("🔒 <b>VOTE CLOSED</b>\n\n%s\n\nSee the results below.", voting.Title)
		if err := e.notifier.EditBroadcast(voting.ChannelMessageID, announcement, nil); err != nil {
			log.Printf("Failed to edit voting announcement: %v", err)
		}
	}

	log.Printf("Voting closed: %s (%s)", voting.Title, Outcome(*voting))

	return nil
}

// RemindClosing sends the one-shot "closing soon" notice once remaining
// time drops to an hour or less. The reminder flag is claimed in the store,
// so overlapping sweeps cannot re-send it.
func (e *Engine) RemindClosing(voting models.Voting, now time.Time) error {
	left := voting.EndDate.Sub(now)
	if left <= 0 || left > time.Hour {
		return nil
	}

	claimed, err := e.store.MarkReminderSent(voting.ID)
	if err != nil {
		return err
	}

	if !claimed {
		return nil
	}

	text := fmt.Sprintf("⏰ <b>Vote closes within an hour!</b>\n\n%s\n\nLast chance to vote!", voting.Title)

	if _, err := e.notifier.Broadcast(text, nil); err != nil {
		log.Printf("Failed to broadcast closing reminder: %v", err)
	}

	return nil
}
