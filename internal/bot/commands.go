package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/types"
)

const helpText = "🏛️ <b>Political system</b>\n\n" +
	"/party — your party\n" +
	"/parties — registered parties\n" +
	"/parliament — sitting deputies\n" +
	"/votings — active votes\n" +
	"/cancel — abort the current dialog\n" +
	"/help — this message"

func (b *Bot) handleMessage(ctx context.Context, msg Message) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, text)
		return
	}

	if session, ok := b.sessions.Get(userID); ok {
		b.continueFlow(ctx, msg, session)
		return
	}

	b.reply(userID, helpText)
}

func (b *Bot) handleCommand(ctx context.Context, msg Message, text string) {
	userID := msg.From.ID

	command, payload := text, ""
	if idx := strings.IndexByte(text, ' '); idx > 0 {
		command, payload = text[:idx], strings.TrimSpace(text[idx+1:])
	}

	if idx := strings.IndexByte(command, '@'); idx > 0 {
		command = command[:idx]
	}

	switch command {
	case "/start":
		b.handleStart(ctx, userID, payload)
	case "/cancel":
		b.sessions.Clear(userID)
		b.reply(userID, "Dialog cancelled.")
	case "/help":
		b.reply(userID, helpText)
	case "/party":
		b.withUser(ctx, userID, b.showOwnParty)
	case "/parties":
		b.withUser(ctx, userID, b.showParties)
	case "/parliament":
		b.withUser(ctx, userID, b.showParliament)
	case "/votings":
		b.withUser(ctx, userID, b.showVotings)
	case "/admin":
		if err := b.guard.RequireAdmin(userID); err != nil {
			b.reply(userID, userMessage(err))
			return
		}

		b.replyKeyboard(userID, "🛠️ <b>Admin panel</b>", adminKeyboard())
	default:
		b.reply(userID, "Unknown command. "+helpText)
	}
}

// withUser runs the handler only for verified, active users.
func (b *Bot) withUser(ctx context.Context, userID int64, handler func(int64)) {
	if _, err := b.guard.RequireUser(ctx, userID); err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	handler(userID)
}

// handleStart greets, verifies, and resolves deep-link payloads coming from
// channel buttons and invite links.
func (b *Bot) handleStart(ctx context.Context, userID int64, payload string) {
	user, err := b.guard.RequireUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrForbidden) {
			b.reply(userID, "🔗 Your Telegram is not linked to a game account. Link it on the site, then press /start again.")
			return
		}

		b.reply(userID, userMessage(err))

		return
	}

	switch {
	case strings.HasPrefix(payload, "election_"):
		b.showElectionBallot(userID, strings.TrimPrefix(payload, "election_"))
	case strings.HasPrefix(payload, "vote_"):
		b.showVotingByRef(userID, strings.TrimPrefix(payload, "vote_"))
	case strings.HasPrefix(payload, "join_"):
		b.showInvitedParty(userID, strings.TrimPrefix(payload, "join_"))
	default:
		b.reply(userID, fmt.Sprintf("👋 Welcome, <b>%s</b>!\n\n%s", user.Username, helpText))
	}
}

func (b *Bot) showOwnParty(userID int64) {
	party, err := b.store.GetUserParty(userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			markup := markupOf(row(button("➕ Found a party", "party:create")))
			b.replyKeyboard(userID, "You are not in a party yet.", markup)

			return
		}

		b.reply(userID, userMessage(err))

		return
	}

	b.sendPartyCard(userID, *party)
}

func (b *Bot) sendPartyCard(userID int64, party models.Party) {
	status := "⏳ forming"
	if party.Registered {
		status = "✅ registered"
	}

	text := fmt.Sprintf(
		"🏛️ <b>%s</b>\n\nIdeology: %s\n%s\nMembers: %d\nStatus: %s",
		party.Name, party.Ideology, party.Description, party.MembersCount, status,
	)

	if !party.Registered {
		text += fmt.Sprintf(
			"\nDeadline: %s\n\nInvite link:\nhttps://t.me/%s?start=join_%s",
			party.RegistrationDeadline.Format("15:04 02.01.2006"), b.cfg.BotUsername, party.InviteCode,
		)
	}

	_, isMember := b.membership(userID, party.ID)
	b.replyKeyboard(userID, text, partyCardKeyboard(party, userID, isMember))
}

func (b *Bot) membership(userID int64, partyID uint) (*models.PartyMember, bool) {
	member, err := b.store.GetMember(userID, partyID)
	if err != nil {
		return nil, false
	}

	return member, true
}

func (b *Bot) showParties(userID int64) {
	parties, err := b.store.ListParties(true)
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	if len(parties) == 0 {
		b.reply(userID, "No registered parties yet. Found one with /party!")
		return
	}

	var rows [][]notify.InlineKeyboardButton
	for _, party := range parties {
		label := fmt.Sprintf("%s (%d members)", party.Name, party.MembersCount)
		rows = append(rows, row(button(label, "party:view", partyID(party.ID))))
	}

	b.replyKeyboard(userID, "🏛️ <b>Registered parties</b>", markupOf(rows...))
}

func (b *Bot) showParliament(userID int64) {
	deputies, err := b.store.ParliamentMembers()
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	if len(deputies) == 0 {
		b.reply(userID, "The parliament is not seated. Wait for the next election.")
		return
	}

	byParty := make(map[string][]string)

	var order []string

	for _, deputy := range deputies {
		name := "Independent"
		if deputy.Party != nil {
			name = deputy.Party.Name
		}

		if _, seen := byParty[name]; !seen {
			order = append(order, name)
		}

		byParty[name] = append(byParty[name], deputy.User.Username)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "🏛️ <b>Parliament</b> (%d deputies)\n", len(deputies))
	fmt.Fprintf(&sb, "Term ends: %s\n", deputies[0].TermEnd.Format("02.01.2006"))

	for _, name := range order {
		fmt.Fprintf(&sb, "\n<b>%s</b> — %d seats\n", name, len(byParty[name]))

		for _, deputy := range byParty[name] {
			fmt.Fprintf(&sb, "  • %s\n", deputy)
		}
	}

	b.reply(userID, sb.String())
}

func (b *Bot) showVotings(userID int64) {
	votings, err := b.store.ActiveVotings()
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	if len(votings) == 0 {
		b.reply(userID, "No active votes right now.")
		return
	}

	var rows [][]notify.InlineKeyboardButton
	for _, v := range votings {
		rows = append(rows, row(button(v.Title, "vote:view", partyID(v.ID))))
	}

	b.replyKeyboard(userID, "📋 <b>Active votes</b>", markupOf(rows...))
}

func (b *Bot) showElectionBallot(userID int64, ref string) {
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		b.reply(userID, "Broken election link.")
		return
	}

	elect, err := b.store.GetElection(uint(id))
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	if elect.Status != models.ElectionActive {
		b.reply(userID, "🗳️ This election is over.")
		return
	}

	voted, err := b.store.HasVotedInElection(elect.ID, userID)
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	if voted {
		b.reply(userID, "🗳️ You already voted in this election.")
		return
	}

	parties, err := b.store.ListParties(true)
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	text := fmt.Sprintf(
		"🗳️ <b>Parliamentary election</b>\n\nVoting closes %s.\nChoose a party:",
		elect.EndDate.Format("15:04 02.01.2006"),
	)
	b.replyKeyboard(userID, text, electionKeyboard(elect.ID, parties))
}

func (b *Bot) showVotingByRef(userID int64, ref string) {
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		b.reply(userID, "Broken vote link.")
		return
	}

	b.showVoting(userID, uint(id))
}

func (b *Bot) showVoting(userID int64, votingID uint) {
	v, err := b.store.GetVoting(votingID)
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	if v.Status != models.VotingActive {
		b.reply(userID, "This vote is closed.")
		return
	}

	voted, err := b.store.HasVoted(v.ID, userID)
	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	kind := "👥 Public vote"
	if v.Type == models.VotingParliament {
		kind = "🏛️ Parliamentary vote"
	}

	text := fmt.Sprintf(
		"%s\n\n<b>%s</b>\n\n%s\n\nCloses: %s",
		kind, v.Title, v.Description, v.EndDate.Format("15:04 02.01.2006"),
	)

	if voted {
		b.reply(userID, text+"\n\n✅ You already voted.")
		return
	}

	b.replyKeyboard(userID, text, votingKeyboard(v.ID))
}

func (b *Bot) showInvitedParty(userID int64, code string) {
	party, err := b.store.GetPartyByInvite(code)
	if err != nil {
		b.reply(userID, "This invite link is no longer valid.")
		return
	}

	b.sendPartyCard(userID, *party)
}

// continueFlow feeds the next message into the user's guided dialog.
func (b *Bot) continueFlow(ctx context.Context, msg Message, session *Session) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch session.State {
	case StatePartyName:
		if len([]rune(text)) < 3 || len([]rune(text)) > 50 {
			b.reply(userID, "The name must be 3 to 50 characters. Try again:")
			return
		}

		session.Data["name"] = text
		session.State = StatePartyIdeology
		b.reply(userID, "2/3 — What is the party's ideology?")
	case StatePartyIdeology:
		session.Data["ideology"] = text
		session.State = StatePartyDescription
		b.reply(userID, "3/3 — Describe the party in a sentence or two:")
	case StatePartyDescription:
		b.finishPartyCreation(userID, session, text)
	case StatePartyRename:
		b.finishRename(userID, session, text)
	case StatePartyPhoto:
		b.finishPhoto(userID, session, msg)
	case StateVotingTitle:
		session.Data["title"] = text
		session.State = StateVotingDescription
		b.reply(userID, "2/3 — Describe what is being decided:")
	case StateVotingDescription:
		session.Data["description"] = text
		session.State = StateVotingDuration
		b.reply(userID, "3/3 — How many hours should the vote run (1-168)?")
	case StateVotingDuration:
		b.finishVotingCreation(userID, session, text)
	case StateElectionDuration:
		b.finishElectionStart(userID, session, text)
	default:
		b.sessions.Clear(userID)
		b.reply(userID, helpText)
	}
}

func (b *Bot) finishPartyCreation(userID int64, session *Session, description string) {
	party, err := b.parties.CreateParty(userID, session.Data["name"], session.Data["ideology"], description)

	b.sessions.Clear(userID)

	if err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	text := fmt.Sprintf(
		"🎉 <b>Party founded!</b>\n\nGather %d members before %s or the party dissolves.\n\n"+
			"Invite link:\nhttps://t.me/%s?start=join_%s",
		b.cfg.MinPartyMembers, party.RegistrationDeadline.Format("15:04 02.01.2006"),
		b.cfg.BotUsername, party.InviteCode,
	)
	b.reply(userID, text)
}

func (b *Bot) finishRename(userID int64, session *Session, name string) {
	defer b.sessions.Clear(userID)

	if len([]rune(name)) < 3 || len([]rune(name)) > 50 {
		b.reply(userID, "The name must be 3 to 50 characters.")
		return
	}

	id, err := strconv.ParseUint(session.Data["party_id"], 10, 32)
	if err != nil {
		b.reply(userID, "Something went wrong. Start over from /party.")
		return
	}

	if err := b.parties.Rename(uint(id), userID, name); err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	b.reply(userID, fmt.Sprintf("✏️ The party is now called <b>%s</b>.", name))
}

func (b *Bot) finishPhoto(userID int64, session *Session, msg Message) {
	if len(msg.Photo) == 0 {
		b.reply(userID, "Send the photo as an image, not a file.")
		return
	}

	defer b.sessions.Clear(userID)

	id, err := strconv.ParseUint(session.Data["party_id"], 10, 32)
	if err != nil {
		b.reply(userID, "Something went wrong. Start over from /party.")
		return
	}

	// Telegram sends several sizes; the last one is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	if err := b.parties.SetPhoto(uint(id), userID, fileID); err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	b.reply(userID, "🖼️ Party photo updated.")
}

func (b *Bot) finishVotingCreation(userID int64, session *Session, text string) {
	hours, err := strconv.Atoi(text)
	if err != nil {
		b.reply(userID, "Enter a number of hours between 1 and 168:")
		return
	}

	votingType := session.Data["type"]
	title := session.Data["title"]
	description := session.Data["description"]

	b.sessions.Clear(userID)

	if _, err := b.votings.Open(userID, title, description, votingType, time.Duration(hours)*time.Hour); err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	b.reply(userID, fmt.Sprintf("📢 Vote <b>%s</b> is open for %d h.", title, hours))
}

func (b *Bot) finishElectionStart(userID int64, session *Session, text string) {
	hours, err := strconv.Atoi(text)
	if err != nil || hours < 1 || hours > 168 {
		b.reply(userID, "Enter a number of hours between 1 and 168:")
		return
	}

	b.sessions.Clear(userID)

	if _, err := b.elections.Start(userID, time.Duration(hours)*time.Hour); err != nil {
		b.reply(userID, userMessage(err))
		return
	}

	b.reply(userID, fmt.Sprintf("🗳️ Election announced, polls close in %d h.", hours))
}
