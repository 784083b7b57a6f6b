// Package notify is the outbound edge: a thin Telegram Bot API client plus
// best-effort fan-out helpers. Delivery failures are logged and never abort
// the state change that triggered them.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notifier is what the managers and the scheduler need from the messaging
// layer; the concrete Telegram client satisfies it.
type Notifier interface {
	Send(chatID int64, text string) error
	SendKeyboard(chatID int64, text string, markup *InlineKeyboardMarkup) error
	Broadcast(text string, markup *InlineKeyboardMarkup) (int64, error)
	EditBroadcast(messageID int64, text string, markup *InlineKeyboardMarkup) error
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type editMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Telegram talks to api.telegram.org with a bounded timeout.
type Telegram struct {
	baseURL   string
	channelID int64
	client    *http.Client
}

func NewTelegram(token string, channelID int64) *Telegram {
	return &Telegram{
		baseURL:   "https://api.telegram.org/bot" + token,
		channelID: channelID,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Send(chatID int64, text string) error {
	return t.SendKeyboard(chatID, text, nil)
}

func (t *Telegram) SendKeyboard(chatID int64, text string, markup *InlineKeyboardMarkup) error {
	_, err := t.call("sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})

	return err
}

// Broadcast posts to the configured channel and returns the message ID for
// later edits. No-op when no channel is configured.
func (t *Telegram) Broadcast(text string, markup *InlineKeyboardMarkup) (int64, error) {
	if t.channelID == 0 {
		return 0, nil
	}

	resp, err := t.call("sendMessage", sendMessageRequest{
		ChatID:      t.channelID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
	if err != nil {
		return 0, err
	}

	return resp.Result.MessageID, nil
}

// EditBroadcast rewrites an earlier channel post, typically to strip the
// vote button once the window closes. No-op when no channel is configured.
func (t *Telegram) EditBroadcast(messageID int64, text string, markup *InlineKeyboardMarkup) error {
	if t.channelID == 0 {
		return nil
	}

	return t.EditMessageText(t.channelID, messageID, text, markup)
}

func (t *Telegram) EditMessageText(chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	_, err := t.call("editMessageText", editMessageRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})

	return err
}

func (t *Telegram) AnswerCallback(callbackID, text string, showAlert bool) error {
	_, err := t.call("answerCallbackQuery", answerCallbackRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	})

	return err
}

func (t *Telegram) call(method string, payload interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	resp, err := t.client.Post(t.baseURL+"/"+method, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse

	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if !parsed.OK {
		return nil, fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, parsed.Description)
	}

	return &parsed, nil
}

// FanOut delivers the same text to every recipient; one failed delivery
// never stops the rest.
func FanOut(n Notifier, recipients []int64, text string) {
	for _, id := range recipients {
		if err := n.Send(id, text); err != nil {
			log.Printf("Failed to notify %d: %v", id, err)
		}
	}
}
