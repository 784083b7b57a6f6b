// Package scheduler drives every time-based transition: party forming
// deadlines, ballot and election closes, and the periodic identity recheck.
// State machines never advance on user interaction alone; these sweeps are
// the only writers of deadline transitions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edenorcraft/politbot/internal/auth"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/election"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/politics"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
	"github.com/edenorcraft/politbot/internal/voting"
)

type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	cfg       config.Config
	notifier  notify.Notifier
	checker   *auth.Checker
	parties   *politics.Manager
	elections *election.Engine
	votings   *voting.Engine
}

func New(
	s *store.Store,
	cfg config.Config,
	n notify.Notifier,
	checker *auth.Checker,
	parties *politics.Manager,
	elections *election.Engine,
	votings *voting.Engine,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		store:     s,
		cfg:       cfg,
		notifier:  n,
		checker:   checker,
		parties:   parties,
		elections: elections,
		votings:   votings,
	}
}

// Start registers the recurring jobs and begins ticking.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func() error
	}{
		{"@every 5m", "party deadlines", s.SweepFormingParties},
		{"@every 10m", "ballot deadlines", s.SweepBallots},
		{"0 3 * * *", "identity recheck", s.SweepAuthRechecks},
	}

	for _, job := range jobs {
		job := job

		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := job.run(); err != nil {
				log.Printf("Sweep %s failed: %v", job.name, err)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
	}

	s.cron.Start()
	log.Println("Scheduler started")

	return nil
}

// Stop waits for any running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped")
}

// SweepFormingParties settles every forming party whose registration deadline
// has passed. Failures on one party never block the rest.
func (s *Scheduler) SweepFormingParties() error {
	parties, err := s.store.FormingPartiesPastDeadline(time.Now())
	if err != nil {
		return err
	}

	for _, party := range parties {
		if err := s.parties.SettleFormingParty(party); err != nil {
			log.Printf("Failed to settle party %d (%s): %v", party.ID, party.Name, err)
		}
	}

	return nil
}

// SweepBallots sends closing-soon reminders, closes overdue ballots, and
// closes the active election once its end date has passed.
func (s *Scheduler) SweepBallots() error {
	now := time.Now()

	votings, err := s.store.ActiveVotings()
	if err != nil {
		return err
	}

	for _, v := range votings {
		if now.After(v.EndDate) {
			if err := s.votings.Close(v.ID); err != nil {
				log.Printf("Failed to close voting %d: %v", v.ID, err)
			}

			continue
		}

		if !v.ReminderSent {
			if err := s.votings.RemindClosing(v, now); err != nil {
				log.Printf("Failed to remind for voting %d: %v", v.ID, err)
			}
		}
	}

	elect, err := s.store.ActiveElection()
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}

		return err
	}

	if now.After(elect.EndDate) {
		if err := s.elections.CloseAndSeat(elect.ID); err != nil {
			log.Printf("Failed to close election %d: %v", elect.ID, err)
		}
	}

	return nil
}

// SweepAuthRechecks re-verifies users not checked within the recheck window.
// A confirmed unlink deactivates the user and tells them; an unreachable
// identity service only logs, the user keeps access until a definite answer.
func (s *Scheduler) SweepAuthRechecks() error {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.AuthRecheckDays)

	users, err := s.store.UsersForAuthRecheck(cutoff)
	if err != nil {
		return err
	}

	for _, user := range users {
		s.recheckUser(user)
	}

	if len(users) > 0 {
		log.Printf("Identity recheck done for %d users", len(users))
	}

	return nil
}

func (s *Scheduler) recheckUser(user models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	linked, profile, err := s.checker.CheckPlayer(ctx, user.TelegramID)
	if err != nil {
		log.Printf("Identity recheck for %d skipped: %v", user.TelegramID, err)
		return
	}

	if linked {
		if profile != nil && profile.Username != "" && profile.Username != user.Username {
			if err := s.store.UpsertUser(user.TelegramID, profile.Username); err != nil {
				log.Printf("Failed to refresh user %d: %v", user.TelegramID, err)
			}

			return
		}

		if err := s.store.TouchAuthCheck(user.TelegramID); err != nil {
			log.Printf("Failed to stamp recheck for %d: %v", user.TelegramID, err)
		}

		return
	}

	if err := s.store.DeactivateUser(user.TelegramID); err != nil {
		log.Printf("Failed to deactivate user %d: %v", user.TelegramID, err)
		return
	}

	text := "⚠️ Your account link was not found. Political features are disabled until you relink and press /start."
	if err := s.notifier.Send(user.TelegramID, text); err != nil {
		log.Printf("Failed to notify deactivated user %d: %v", user.TelegramID, err)
	}

	log.Printf("User %d deactivated after failed identity recheck", user.TelegramID)
}
