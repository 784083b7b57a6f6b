package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
)

// Guard holds the explicit permission checks each entry point composes.
// Every check takes the actor and returns either the authorized subject or a
// Forbidden error with the reason; no implicit handler wrapping.
type Guard struct {
	store   *store.Store
	cfg     config.Config
	checker *Checker
}

func NewGuard(s *store.Store, cfg config.Config, checker *Checker) *Guard {
	return &Guard{store: s, cfg: cfg, checker: checker}
}

// RequireUser resolves the actor to a verified, active user. An unknown
// actor gets one live identity check; if it passes they are registered on
// the spot. Upstream failures count as not verified, never as a crash.
func (g *Guard) RequireUser(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := g.store.GetUser(telegramID)
	if err == nil && user.IsActive {
		return user, nil
	}

	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	linked, profile, checkErr := g.checker.CheckPlayer(ctx, telegramID)
	if checkErr != nil {
		log.Printf("Identity check for %d: %v", telegramID, checkErr)
	}

	if !linked {
		return nil, fmt.Errorf("account not linked: %w", types.ErrForbidden)
	}

	if err := g.store.UpsertUser(telegramID, profile.Username); err != nil {
		return nil, err
	}

	return g.store.GetUser(telegramID)
}

func (g *Guard) RequireAdmin(telegramID int64) error {
	if !g.cfg.IsAdmin(telegramID) {
		return fmt.Errorf("admin only: %w", types.ErrForbidden)
	}

	return nil
}

// RequirePartyLeader returns the party the actor leads.
func (g *Guard) RequirePartyLeader(telegramID int64) (*models.Party, error) {
	party, err := g.store.GetUserParty(telegramID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("not in a party: %w", types.ErrForbidden)
		}

		return nil, err
	}

	if party.LeaderID != telegramID {
		return nil, fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	return party, nil
}

func (g *Guard) RequireDeputy(telegramID int64) error {
	deputy, err := g.store.IsDeputy(telegramID)
	if err != nil {
		return err
	}

	if !deputy {
		return fmt.Errorf("deputies only: %w", types.ErrForbidden)
	}

	return nil
}
