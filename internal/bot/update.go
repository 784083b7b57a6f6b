package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Incoming webhook types, trimmed to the fields the bot reads.

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text"`
	Photo     []PhotoSize `json:"photo"`
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Callback is a parsed button press. Data is colon-separated: a two-segment
// verb plus arguments, e.g. "party:view:12" or "vote:cast:7:for".
type Callback struct {
	Verb string
	Args []string
}

func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Callback{}, fmt.Errorf("malformed callback data %q", data)
	}

	args := parts[2:]
	if len(args) == 0 {
		args = nil
	}

	return Callback{Verb: parts[0] + ":" + parts[1], Args: args}, nil
}

// Arg returns the i-th argument or an empty string.
func (c Callback) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}

	return ""
}

// UintArg parses the i-th argument as an entity ID.
func (c Callback) UintArg(i int) (uint, error) {
	n, err := strconv.ParseUint(c.Arg(i), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("callback argument %d is not an id: %w", i, err)
	}

	return uint(n), nil
}

// Int64Arg parses the i-th argument as a Telegram user ID.
func (c Callback) Int64Arg(i int) (int64, error) {
	n, err := strconv.ParseInt(c.Arg(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callback argument %d is not a user id: %w", i, err)
	}

	return n, nil
}

func callbackData(verb string, args ...string) string {
	if len(args) == 0 {
		return verb
	}

	return verb + ":" + strings.Join(args, ":")
}
