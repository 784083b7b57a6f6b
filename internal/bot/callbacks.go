package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/types"
)

func (b *Bot) handleCallback(ctx context.Context, cb CallbackQuery) {
	parsed, err := ParseCallback(cb.Data)
	if err != nil {
		log.Printf("Callback from %d: %v", cb.From.ID, err)
		b.answer(cb.ID, "", false)

		return
	}

	userID := cb.From.ID

	if err := b.dispatchCallback(ctx, userID, parsed); err != nil {
		b.answer(cb.ID, userMessage(err), true)
		return
	}

	b.answer(cb.ID, "", false)
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	if err := b.msg.AnswerCallback(callbackID, text, alert); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) dispatchCallback(ctx context.Context, userID int64, cb Callback) error {
	switch cb.Verb {
	case "menu:cancel":
		b.sessions.Clear(userID)
		b.reply(userID, "Cancelled.")

		return nil
	case "admin:stats", "admin:logs", "admin:election", "admin:voting", "admin:dissolve", "admin:dissolveok":
		return b.dispatchAdmin(userID, cb)
	}

	if _, err := b.guard.RequireUser(ctx, userID); err != nil {
		return err
	}

	switch cb.Verb {
	case "party:create":
		b.sessions.Begin(userID, StatePartyName)
		b.reply(userID, "1/3 — What is the party called? (3-50 characters)")

		return nil
	case "party:view":
		return b.viewParty(userID, cb)
	case "party:apply":
		return b.applyToParty(userID, cb)
	case "party:apps":
		return b.listApplications(userID, cb)
	case "app:approve", "app:reject":
		return b.decideApplication(userID, cb)
	case "party:members":
		return b.listMembers(userID, cb)
	case "member:up", "member:down":
		return b.moveMember(userID, cb)
	case "member:kick":
		return b.kickMember(userID, cb)
	case "member:lead":
		return b.confirmTransfer(userID, cb)
	case "member:leadok":
		return b.transferLeadership(userID, cb)
	case "party:leave":
		return b.confirmLeave(userID, cb)
	case "party:leaveok":
		return b.leaveParty(userID, cb)
	case "party:delete":
		return b.confirmDelete(userID, cb)
	case "party:deleteok":
		return b.deleteParty(userID, cb)
	case "party:rename":
		return b.beginRename(userID, cb)
	case "party:photo":
		return b.beginPhoto(userID, cb)
	case "election:vote":
		return b.confirmElectionVote(userID, cb)
	case "election:confirm":
		return b.castElectionVote(userID, cb)
	case "vote:view":
		return b.viewVoting(userID, cb)
	case "vote:cast":
		return b.confirmVotingVote(userID, cb)
	case "vote:confirm":
		return b.castVotingVote(userID, cb)
	default:
		log.Printf("Unknown callback verb %q from %d", cb.Verb, userID)
		return nil
	}
}

func (b *Bot) viewParty(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	party, err := b.store.GetParty(id)
	if err != nil {
		return err
	}

	b.sendPartyCard(userID, *party)

	return nil
}

func (b *Bot) applyToParty(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	if _, err := b.parties.Apply(userID, id); err != nil {
		return err
	}

	b.reply(userID, "📨 Application sent. The leader will review it.")

	return nil
}

func (b *Bot) listApplications(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	party, err := b.store.GetParty(id)
	if err != nil {
		return err
	}

	if party.LeaderID != userID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	apps, err := b.store.PendingApplications(id)
	if err != nil {
		return err
	}

	if len(apps) == 0 {
		b.reply(userID, "No pending applications.")
		return nil
	}

	for _, app := range apps {
		text := fmt.Sprintf("📨 <b>%s</b> applied on %s.", app.User.Username, app.AppliedAt.Format("02.01.2006"))
		b.replyKeyboard(userID, text, applicationKeyboard(app.ID))
	}

	return nil
}

func (b *Bot) decideApplication(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	if cb.Verb == "app:approve" {
		if err := b.parties.Approve(id, userID); err != nil {
			return err
		}

		b.reply(userID, "✅ Application approved.")

		return nil
	}

	if err := b.parties.Reject(id, userID); err != nil {
		return err
	}

	b.reply(userID, "❌ Application rejected.")

	return nil
}

func (b *Bot) listMembers(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	party, err := b.store.GetParty(id)
	if err != nil {
		return err
	}

	members, err := b.store.PartyMembers(id)
	if err != nil {
		return err
	}

	if party.LeaderID != userID {
		text := fmt.Sprintf("👥 <b>%s</b> list:\n", party.Name)
		for _, member := range members {
			text += fmt.Sprintf("%d. %s\n", member.ListPosition, memberName(member))
		}

		b.reply(userID, text)

		return nil
	}

	text := fmt.Sprintf("👥 <b>%s</b>\n\nThe list order decides who takes the party's seats.", party.Name)
	b.replyKeyboard(userID, text, membersKeyboard(*party, members))

	return nil
}

func (b *Bot) moveMember(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	pos, err := strconv.Atoi(cb.Arg(1))
	if err != nil {
		return fmt.Errorf("bad list position: %w", types.ErrInvalid)
	}

	if err := b.parties.MoveMember(id, userID, pos, cb.Verb == "member:up"); err != nil {
		return err
	}

	return b.listMembers(userID, Callback{Verb: "party:members", Args: cb.Args[:1]})
}

func (b *Bot) kickMember(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	target, err := cb.Int64Arg(1)
	if err != nil {
		return err
	}

	if err := b.parties.RemoveMember(id, userID, target); err != nil {
		return err
	}

	b.reply(userID, "🚪 Member removed.")

	return nil
}

func (b *Bot) confirmTransfer(userID int64, cb Callback) error {
	text := "👑 Hand over party leadership? You become a regular member."
	b.replyKeyboard(userID, text, confirmKeyboard("member:leadok", cb.Args...))

	return nil
}

func (b *Bot) transferLeadership(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	target, err := cb.Int64Arg(1)
	if err != nil {
		return err
	}

	if err := b.parties.TransferLeadership(id, userID, target); err != nil {
		return err
	}

	b.reply(userID, "👑 Leadership transferred.")

	return nil
}

func (b *Bot) confirmLeave(userID int64, cb Callback) error {
	b.replyKeyboard(userID, "🚪 Leave the party?", confirmKeyboard("party:leaveok", cb.Args...))
	return nil
}

func (b *Bot) leaveParty(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	if err := b.parties.RemoveMember(id, userID, userID); err != nil {
		return err
	}

	b.reply(userID, "🚪 You left the party.")

	return nil
}

func (b *Bot) confirmDelete(userID int64, cb Callback) error {
	text := "❌ Dissolve the party? All members lose their membership. This cannot be undone."
	b.replyKeyboard(userID, text, confirmKeyboard("party:deleteok", cb.Args...))

	return nil
}

func (b *Bot) deleteParty(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	if err := b.parties.DeleteParty(id, userID); err != nil {
		return err
	}

	b.reply(userID, "❌ The party is dissolved.")

	return nil
}

func (b *Bot) beginRename(userID int64, cb Callback) error {
	if err := b.requireLeaderOf(userID, cb); err != nil {
		return err
	}

	session := b.sessions.Begin(userID, StatePartyRename)
	session.Data["party_id"] = cb.Arg(0)
	b.reply(userID, "✏️ Send the new party name (3-50 characters):")

	return nil
}

func (b *Bot) beginPhoto(userID int64, cb Callback) error {
	if err := b.requireLeaderOf(userID, cb); err != nil {
		return err
	}

	session := b.sessions.Begin(userID, StatePartyPhoto)
	session.Data["party_id"] = cb.Arg(0)
	b.reply(userID, "🖼️ Send the new party photo:")

	return nil
}

func (b *Bot) requireLeaderOf(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	party, err := b.store.GetParty(id)
	if err != nil {
		return err
	}

	if party.LeaderID != userID {
		return fmt.Errorf("party leader only: %w", types.ErrForbidden)
	}

	return nil
}

func (b *Bot) confirmElectionVote(userID int64, cb Callback) error {
	id, err := cb.UintArg(1)
	if err != nil {
		return err
	}

	party, err := b.store.GetParty(id)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("🗳️ Vote for <b>%s</b>? The vote cannot be changed.", party.Name)
	b.replyKeyboard(userID, text, confirmKeyboard("election:confirm", cb.Args...))

	return nil
}

func (b *Bot) castElectionVote(userID int64, cb Callback) error {
	electionID, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	pID, err := cb.UintArg(1)
	if err != nil {
		return err
	}

	if err := b.elections.CastVote(electionID, userID, pID); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return fmt.Errorf("you already voted: %w", types.ErrConflict)
		}

		return err
	}

	b.reply(userID, "🗳️ Your vote is in. Results come out when the polls close.")

	return nil
}

func (b *Bot) viewVoting(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	b.showVoting(userID, id)

	return nil
}

func (b *Bot) confirmVotingVote(userID int64, cb Callback) error {
	choice := "for"
	if cb.Arg(1) == models.ChoiceAgainst {
		choice = "against"
	}

	text := fmt.Sprintf("Vote <b>%s</b>? The vote cannot be changed.", choice)
	b.replyKeyboard(userID, text, confirmKeyboard("vote:confirm", cb.Args...))

	return nil
}

func (b *Bot) castVotingVote(userID int64, cb Callback) error {
	id, err := cb.UintArg(0)
	if err != nil {
		return err
	}

	if err := b.votings.Cast(id, userID, cb.Arg(1)); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return fmt.Errorf("you already voted: %w", types.ErrConflict)
		}

		return err
	}

	b.reply(userID, "✅ Your vote is counted.")

	return nil
}

func (b *Bot) dispatchAdmin(userID int64, cb Callback) error {
	if err := b.guard.RequireAdmin(userID); err != nil {
		return err
	}

	switch cb.Verb {
	case "admin:stats":
		return b.sendStats(userID)
	case "admin:logs":
		return b.sendAuditLog(userID)
	case "admin:election":
		b.sessions.Begin(userID, StateElectionDuration)
		b.reply(userID, "🗳️ How many hours should the election run (1-168)?")

		return nil
	case "admin:voting":
		votingType := cb.Arg(0)
		if votingType != models.VotingPublic && votingType != models.VotingParliament {
			return fmt.Errorf("voting type %q: %w", votingType, types.ErrInvalid)
		}

		session := b.sessions.Begin(userID, StateVotingTitle)
		session.Data["type"] = votingType
		b.reply(userID, "1/3 — What is the vote called?")

		return nil
	case "admin:dissolve":
		text := "💥 Dissolve the parliament? All seats are vacated until the next election."
		b.replyKeyboard(userID, text, confirmKeyboard("admin:dissolveok"))

		return nil
	case "admin:dissolveok":
		return b.dissolveParliament(userID)
	default:
		return nil
	}
}

func (b *Bot) sendStats(userID int64) error {
	users, err := b.store.CountUsers(true)
	if err != nil {
		return err
	}

	parties, err := b.store.CountRegisteredParties()
	if err != nil {
		return err
	}

	deputies, err := b.store.ParliamentCount()
	if err != nil {
		return err
	}

	votings, err := b.store.CountVotings(models.VotingActive)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"📊 <b>Statistics</b>\n\nVerified users: %d\nRegistered parties: %d\nDeputies: %d\nActive votes: %d",
		users, parties, deputies, votings,
	)
	b.reply(userID, text)

	return nil
}

func (b *Bot) sendAuditLog(userID int64) error {
	logs, err := b.store.RecentLogs(20)
	if err != nil {
		return err
	}

	if len(logs) == 0 {
		b.reply(userID, "The audit log is empty.")
		return nil
	}

	text := "📜 <b>Recent actions</b>\n"
	for _, entry := range logs {
		text += fmt.Sprintf("\n%s — %d %s %s", entry.CreatedAt.Format("02.01 15:04"), entry.TelegramID, entry.Action, entry.Details)
	}

	b.reply(userID, text)

	return nil
}

func (b *Bot) dissolveParliament(userID int64) error {
	if err := b.store.ClearParliament(); err != nil {
		return err
	}

	if _, err := b.msg.Broadcast("💥 <b>The parliament is dissolved.</b>\n\nSeats stay empty until the next election.", nil); err != nil {
		log.Printf("Failed to broadcast dissolution: %v", err)
	}

	if err := b.store.LogAction(userID, "parliament_dissolved", ""); err != nil {
		log.Printf("Failed to log dissolution: %v", err)
	}

	b.reply(userID, "💥 Parliament dissolved.")

	return nil
}
