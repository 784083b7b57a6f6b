// Package politics implements the party lifecycle: creation, applications,
// leadership, list ordering, and the forming -> registered/dissolved
// transition. The transition out of forming is applied only by the scheduler
// sweep, never synchronously on a membership change.
package politics

import (
	"fmt"
	"log"
	"time"

	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
	"github.com/google/uuid"
)

type Manager struct {
	store    *store.Store
	cfg      config.Config
	notifier notify.Notifier
}

func NewManager(s *store.Store, cfg config.Config, n notify.Notifier) *Manager {
	return &Manager{store: s, cfg: cfg, notifier: n}
}

// CreateParty founds a party in the forming state with the founder as leader
// at list position 1. The founder must not belong to any party.
func (m *Manager) CreateParty(founderID int64, name, ideology, description string) (*models.Party, error) {
	if _, err := m.store.GetUserParty(founderID); err == nil {
		return nil, fmt.Errorf("founder already in a party: %w", types.ErrConflict)
	}

	party := &models.Party{
		Name:                 name,
		Ideology:             ideology,
		Description:          description,
		LeaderID:             founderID,
		InviteCode:           uuid.NewString(),
		CreatedAt:            time.Now(),
		RegistrationDeadline: time.Now().Add(time.Duration(m.cfg.PartyFormingMinutes) * time.Minute),
		MembersCount:         1,
	}

	if err := m.store.CreateParty(party); err != nil {
		return nil, err
	}

	if err := m.store.LogAction(founderID, "party_created", party.Name); err != nil {
		log.Printf("Failed to log party creation: %v", err)
	}

	return party, nil
}

// Apply files a membership application and tells the leader.
func (m *Manager) Apply(userID int64, partyID uint) (*models.PartyApplication, error) {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return nil, err
	}

	app, err := m.store.CreateApplication(userID, partyID)
	if err != nil {
		return nil, err
	}

	user, err := m.store.GetUser(userID)
	if err == nil {
		text := fmt.Sprintf("📨 <b>New application</b>\n\n<b>%s</b> wants to join <b>%s</b>.", user.Username, party.Name)
		if err := m.notifier.Send(party.LeaderID, text); err != nil {
			log.Printf("Failed to notify leader %d: %v", party.LeaderID, err)
		}
	}

	return app, nil
}

// Approve admits the applicant. Leader-only. If the applicant has joined
// another party since applying, the application is auto-rejected and the
// Conflict is returned for the leader's screen.
func (m *Manager) Approve(appID uint, actorID int64) error {
	app, err := m.store.GetApplication(appID)
	if err != nil {
		return err
	}

	party, err := m.store.GetParty(app.PartyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	if err := m.store.ApproveApplication(appID); err != nil {
		return err
	}

	text := fmt.Sprintf("✅ <b>Application approved!</b>\n\nYou are now a member of <b>%s</b>. Welcome!", party.Name)
	if err := m.notifier.Send(app.TelegramID, text); err != nil {
		log.Printf("Failed to notify applicant %d: %v", app.TelegramID, err)
	}

	if err := m.store.LogAction(app.TelegramID, "joined_party", party.Name); err != nil {
		log.Printf("Failed to log join: %v", err)
	}

	return nil
}

// Reject declines a pending application. Leader-only; rejected is terminal.
func (m *Manager) Reject(appID uint, actorID int64) error {
	app, err := m.store.GetApplication(appID)
	if err != nil {
		return err
	}

	party, err := m.store.GetParty(app.PartyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	if err := m.store.RejectApplication(appID); err != nil {
		return err
	}

	text := fmt.Sprintf("❌ <b>Application declined</b>\n\nParty <b>%s</b> declined your application.", party.Name)
	if err := m.notifier.Send(app.TelegramID, text); err != nil {
		log.Printf("Failed to notify applicant %d: %v", app.TelegramID, err)
	}

	return nil
}

// TransferLeadership hands the party to an existing member. The swap is one
// atomic step: exactly one leader before and after.
func (m *Manager) TransferLeadership(partyID uint, actorID, newLeaderID int64) error {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	if err := m.store.TransferLeadership(partyID, newLeaderID); err != nil {
		return err
	}

	text := fmt.Sprintf("👑 <b>You lead the party now!</b>\n\nParty: <b>%s</b>", party.Name)
	if err := m.notifier.Send(newLeaderID, text); err != nil {
		log.Printf("Failed to notify new leader %d: %v", newLeaderID, err)
	}

	if err := m.store.LogAction(actorID, "leadership_transferred", party.Name); err != nil {
		log.Printf("Failed to log transfer: %v", err)
	}

	return nil
}

// RemoveMember kicks a member (leader-only) or lets a member leave
// (actor == target). The leader can never leave directly; they must
// transfer leadership or delete the party.
func (m *Manager) RemoveMember(partyID uint, actorID, targetID int64) error {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if actorID != targetID && party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	if targetID == party.LeaderID {
		return fmt.Errorf("leader must transfer leadership first: %w", types.ErrForbidden)
	}

	if err := m.store.RemoveMember(targetID, partyID); err != nil {
		return err
	}

	if actorID != targetID {
		text := fmt.Sprintf("🚪 You were removed from party <b>%s</b>.", party.Name)
		if err := m.notifier.Send(targetID, text); err != nil {
			log.Printf("Failed to notify removed member %d: %v", targetID, err)
		}
	}

	action := "left_party"
	if actorID != targetID {
		action = "kicked_from_party"
	}

	if err := m.store.LogAction(targetID, action, party.Name); err != nil {
		log.Printf("Failed to log removal: %v", err)
	}

	return nil
}

// MoveMember shifts the member at the given list position up or down by one
// slot. Position 1 belongs to the leader and is never a valid target.
func (m *Manager) MoveMember(partyID uint, actorID int64, position int, up bool) error {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	other := position + 1
	if up {
		other = position - 1
	}

	if other <= 1 || position <= 1 {
		return fmt.Errorf("cannot move into the leader slot: %w", types.ErrInvalid)
	}

	return m.store.SwapPositions(partyID, position, other)
}

// DeleteParty dissolves the party on the leader's order. Members are told
// before the delete commits; delivery failures do not block the delete.
func (m *Manager) DeleteParty(partyID uint, actorID int64) error {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	members, err := m.store.PartyMembers(partyID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("❌ <b>Party dissolved</b>\n\nThe leader dissolved party <b>%s</b>.", party.Name)
	notify.FanOut(m.notifier, memberIDs(members, actorID), text)

	if err := m.store.DeleteParty(partyID); err != nil {
		return err
	}

	if err := m.store.LogAction(actorID, "party_deleted", party.Name); err != nil {
		log.Printf("Failed to log deletion: %v", err)
	}

	return nil
}

// Rename changes the party name, keeping global case-insensitive uniqueness.
func (m *Manager) Rename(partyID uint, actorID int64, name string) error {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	return m.store.UpdatePartyName(partyID, name)
}

// SetPhoto stores the party's photo file reference. Leader-only.
func (m *Manager) SetPhoto(partyID uint, actorID int64, fileID string) error {
	party, err := m.store.GetParty(partyID)
	if err != nil {
		return err
	}

	if party.LeaderID != actorID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	return m.store.SetPartyPhoto(partyID, fileID)
}

// SettleFormingParty applies the deadline transition for one forming party:
// register it when it met the minimum, dissolve it otherwise. Idempotent:
// a party already registered or already deleted is a no-op, so overlapping
// sweeps cannot double-notify.
func (m *Manager) SettleFormingParty(party models.Party) error {
	if party.MembersCount >= m.cfg.MinPartyMembers {
		registered, err := m.store.RegisterParty(party.ID)
		if err != nil {
			return err
		}

		if !registered {
			return nil
		}

		members, err := m.store.PartyMembers(party.ID)
		if err != nil {
			return err
		}

		text := fmt.Sprintf(
			"🎉 <b>Party registered!</b>\n\nParty <b>%s</b> reached %d members and is now registered!",
			party.Name, party.MembersCount,
		)
		notify.FanOut(m.notifier, memberIDs(members, 0), text)

		log.Printf("Party registered: %s", party.Name)

		return nil
	}

	members, err := m.store.PartyMembers(party.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"❌ <b>Party dissolved</b>\n\nParty <b>%s</b> did not reach the minimum of %d members in time.",
		party.Name, m.cfg.MinPartyMembers,
	)
	notify.FanOut(m.notifier, memberIDs(members, 0), text)

	if err := m.store.DeleteParty(party.ID); err != nil {
		return err
	}

	log.Printf("Party dissolved: %s", party.Name)

	return nil
}

func memberIDs(members []models.PartyMember, exclude int64) []int64 {
	ids := make([]int64, 0, len(members))

	for _, member := range members {
		if exclude != 0 && member.TelegramID == exclude {
			continue
		}

		ids = append(ids, member.TelegramID)
	}

	return ids
}
