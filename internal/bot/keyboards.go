package bot

import (
	"fmt"
	"strconv"

	"github.com/edenorcraft/politbot/internal/models"
	"github.com/edenorcraft/politbot/internal/notify"
)

func button(text, verb string, args ...string) notify.InlineKeyboardButton {
	return notify.InlineKeyboardButton{Text: text, CallbackData: callbackData(verb, args...)}
}

func row(buttons ...notify.InlineKeyboardButton) []notify.InlineKeyboardButton {
	return buttons
}

func markupOf(rows ...[]notify.InlineKeyboardButton) *notify.InlineKeyboardMarkup {
	return &notify.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func partyID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// partyCardKeyboard shows the viewer's available actions on one party.
func partyCardKeyboard(party models.Party, viewerID int64, isMember bool) *notify.InlineKeyboardMarkup {
	id := partyID(party.ID)

	if party.LeaderID == viewerID {
		return markupOf(
			row(button("📨 Applications", "party:apps", id), button("👥 Members", "party:members", id)),
			row(button("✏️ Rename", "party:rename", id), button("🖼️ Photo", "party:photo", id)),
			row(button("❌ Dissolve party", "party:delete", id)),
		)
	}

	if isMember {
		return markupOf(row(button("🚪 Leave party", "party:leave", id)))
	}

	return markupOf(row(button("📝 Apply to join", "party:apply", id)))
}

// membersKeyboard lists members with leader controls per row: move within
// the list, kick, or hand over leadership. The leader's own row has none.
func membersKeyboard(party models.Party, members []models.PartyMember) *notify.InlineKeyboardMarkup {
	id := partyID(party.ID)

	var rows [][]notify.InlineKeyboardButton

	for _, member := range members {
		if member.TelegramID == party.LeaderID {
			continue
		}

		pos := strconv.Itoa(member.ListPosition)
		target := strconv.FormatInt(member.TelegramID, 10)
		label := fmt.Sprintf("%d. %s", member.ListPosition, memberName(member))

		rows = append(rows,
			row(button(label, "party:members", id)),
			row(
				button("⬆️", "member:up", id, pos),
				button("⬇️", "member:down", id, pos),
				button("👑", "member:lead", id, target),
				button("🚪", "member:kick", id, target),
			),
		)
	}

	rows = append(rows, row(button("« Back", "party:view", id)))

	return markupOf(rows...)
}

func applicationKeyboard(appID uint) *notify.InlineKeyboardMarkup {
	id := partyID(appID)

	return markupOf(row(
		button("✅ Approve", "app:approve", id),
		button("❌ Reject", "app:reject", id),
	))
}

func electionKeyboard(electionID uint, parties []models.Party) *notify.InlineKeyboardMarkup {
	eid := partyID(electionID)

	var rows [][]notify.InlineKeyboardButton

	for _, party := range parties {
		rows = append(rows, row(button(party.Name, "election:vote", eid, partyID(party.ID))))
	}

	return markupOf(rows...)
}

func votingKeyboard(votingID uint) *notify.InlineKeyboardMarkup {
	id := partyID(votingID)

	return markupOf(row(
		button("✅ For", "vote:cast", id, models.ChoiceFor),
		button("❌ Against", "vote:cast", id, models.ChoiceAgainst),
	))
}

func confirmKeyboard(yesVerb string, args ...string) *notify.InlineKeyboardMarkup {
	return markupOf(row(
		button("✅ Confirm", yesVerb, args...),
		button("« Cancel", "menu:cancel"),
	))
}

func adminKeyboard() *notify.InlineKeyboardMarkup {
	return markupOf(
		row(button("📊 Statistics", "admin:stats"), button("📜 Audit log", "admin:logs")),
		row(button("🗳️ Start election", "admin:election")),
		row(
			button("👥 Public vote", "admin:voting", models.VotingPublic),
			button("🏛️ Parliament vote", "admin:voting", models.VotingParliament),
		),
		row(button("💥 Dissolve parliament", "admin:dissolve")),
	)
}

func memberName(member models.PartyMember) string {
	if member.User.Username != "" {
		return member.User.Username
	}

	return strconv.FormatInt(member.TelegramID, 10)
}
