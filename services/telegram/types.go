package telegram

import (
	"errors"
	"rss-monitor/repositories/subscriptions"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

type MessageType int

const (
	MessageTypeUnknown     MessageType = -1
	MessageTypeWelcome     MessageType = 1
	MessageTypeHelp        MessageType = 2
	MessageTypeNoFeeds     MessageType = 3
	MessageTypeEmptyURL    MessageType = 4
	MessageTypeDuplicate   MessageType = 5
	MessageTypeNotFound    MessageType = 6
	MessageTypeUnavailable MessageType = 7
)

const (
	requestTimeout = 15 * time.Second
	// Telegram rejects messages longer than 4096 characters.
	maxMessageRunes = 3800
	truncatedSuffix = "\n…"
)

var (
	ErrTokenIsMissing         = errors.New("telegram token is missing")
	ErrBotNotInitialized      = errors.New("telegram bot  is not ready yet")
	ErrFailedToStartListening = errors.New("telegram bot can't start to listen command")
)

type Service interface {
	ListenAndDispatch() error
	Shutdown()
}

// messageSender is the part of the Bot API used to deliver notifications.
type messageSender interface {
	SendMessage(chatID int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
}

type Impl struct {
	bot     *gotgbot.Bot
	sender  messageSender
	updater *ext.Updater
	repo    subscriptions.Repository
}
