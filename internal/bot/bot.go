// Package bot is the Telegram-facing edge: it parses webhook updates,
// walks users through guided flows, and translates domain errors into
// answers on the user's screen.
package bot

import (
	"context"
	"errors"
	"log"

	"github.com/edenorcraft/politbot/internal/auth"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/election"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/politics"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/types"
	"github.com/edenorcraft/politbot/internal/voting"
)

// Messenger is the notifier plus the callback-answering surface only the
// bot edge needs.
type Messenger interface {
	notify.Notifier
	AnswerCallback(callbackID, text string, showAlert bool) error
}

type Bot struct {
	cfg       config.Config
	store     *store.Store
	msg       Messenger
	guard     *auth.Guard
	parties   *politics.Manager
	elections *election.Engine
	votings   *voting.Engine
	sessions  *Sessions
}

func New(
	cfg config.Config,
	s *store.Store,
	msg Messenger,
	guard *auth.Guard,
	parties *politics.Manager,
	elections *election.Engine,
	votings *voting.Engine,
) *Bot {
	return &Bot{
		cfg:       cfg,
		store:     s,
		msg:       msg,
		guard:     guard,
		parties:   parties,
		elections: elections,
		votings:   votings,
		sessions:  NewSessions(),
	}
}

// HandleUpdate routes one webhook update. Only private chats are served;
// channel posts and group noise are dropped.
func (b *Bot) HandleUpdate(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, *update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.Chat.Type == "private":
		b.handleMessage(ctx, *update.Message)
	}
}

// reply sends text to the user, logging delivery failures.
func (b *Bot) reply(chatID int64, text string) {
	if err := b.msg.Send(chatID, text); err != nil {
		log.Printf("Failed to reply to %d: %v", chatID, err)
	}
}

func (b *Bot) replyKeyboard(chatID int64, text string, markup *notify.InlineKeyboardMarkup) {
	if err := b.msg.SendKeyboard(chatID, text, markup); err != nil {
		log.Printf("Failed to reply to %d: %v", chatID, err)
	}
}

// userMessage flattens a domain error into one line for the user's screen.
func userMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrForbidden):
		return "🚫 " + rootCause(err)
	case errors.Is(err, types.ErrConflict):
		return "⚠️ " + rootCause(err)
	case errors.Is(err, types.ErrInvalid):
		return "❌ " + rootCause(err)
	case errors.Is(err, types.ErrNotFound):
		return "🔍 Not found."
	case errors.Is(err, types.ErrUpstreamUnavailable):
		return "⏳ The verification service is unavailable. Try again later."
	default:
		return "Something went wrong. Try again later."
	}
}

// rootCause strips the sentinel suffix fmt.Errorf("...: %w", sentinel) leaves.
func rootCause(err error) string {
	msg := err.Error()

	for _, sentinel := range []error{
		types.ErrForbidden, types.ErrConflict, types.ErrInvalid,
		types.ErrNotFound, types.ErrUpstreamUnavailable,
	} {
		suffix := ": " + sentinel.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}

	return msg
}
