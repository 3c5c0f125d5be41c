package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"rss-monitor/models/constants"
	"rss-monitor/pkg/notifier"
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/utils/network"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/rs/zerolog/log"
)

func New(token string, repo subscriptions.Repository, proxyURL string) (*Impl, error) {
	if token == "" {
		return &Impl{}, ErrTokenIsMissing
	}

	client, err := network.NewHTTPClient(proxyURL)
	if err != nil {
		return &Impl{}, err
	}

	b, err := gotgbot.NewBot(token, &gotgbot.BotOpts{
		BotClient: &gotgbot.BaseBotClient{
			Client:             *client,
			DefaultRequestOpts: &gotgbot.RequestOpts{Timeout: requestTimeout},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Cannot reach Telegram")
		return &Impl{}, ErrBotNotInitialized
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Warn().Err(err).Msg("an error occurred while handling update")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})

	service := &Impl{bot: b, sender: b, repo: repo}
	dispatcher.AddHandler(handlers.NewCommand("start", service.startCmd))
	dispatcher.AddHandler(handlers.NewCommand("help", service.helpCmd))
	dispatcher.AddHandler(handlers.NewCommand("subscribe", service.subscribeCmd))
	dispatcher.AddHandler(handlers.NewCommand("unsubscribe", service.unsubscribeCmd))
	dispatcher.AddHandler(handlers.NewCommand("subscriptions", service.subscriptionsCmd))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *gotgbot.Message) bool {
		return message.Command(msg) && addressedTo(msg.Text, b.User.Username)
	}, service.helpCmd))

	service.updater = ext.NewUpdater(dispatcher, nil)

	return service, nil
}

func (service *Impl) ListenAndDispatch() error {
	err := service.updater.StartPolling(service.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return ErrFailedToStartListening
	}

	log.Info().Str(constants.LogUsername, service.bot.User.Username).Msg("Telegram bot is listening")
	service.updater.Idle()
	return nil
}

func (service *Impl) Shutdown() {
	if service.updater == nil {
		return
	}
	if err := service.updater.Stop(); err != nil {
		log.Error().Err(err).Msg("Cannot stop Telegram updater, continuing...")
	}
}

// Send posts a notification to its chat, mentioning the subscriber if any.
func (service *Impl) Send(ctx context.Context, n notifier.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := service.sender.SendMessage(n.ContainerID, renderNotification(n), &gotgbot.SendMessageOpts{
		ParseMode:          "HTML",
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", n.ContainerID, err)
	}

	return nil
}

func (service *Impl) startCmd(b *gotgbot.Bot, ctx *ext.Context) error {
	logCommand("start", ctx)
	return reply(b, ctx, getMessageFromMessageType(MessageTypeWelcome))
}

func (service *Impl) helpCmd(b *gotgbot.Bot, ctx *ext.Context) error {
	logCommand("help", ctx)
	return reply(b, ctx, getMessageFromMessageType(MessageTypeHelp))
}

func (service *Impl) subscribeCmd(b *gotgbot.Bot, ctx *ext.Context) error {
	logCommand("subscribe", ctx)
	if ctx.EffectiveUser == nil {
		return nil
	}

	msg := service.subscribe(ctx.EffectiveChat.Id, ctx.EffectiveUser.Id, displayName(ctx.EffectiveUser), commandArgument(ctx.EffectiveMessage.Text))
	return reply(b, ctx, msg)
}

func (service *Impl) unsubscribeCmd(b *gotgbot.Bot, ctx *ext.Context) error {
	logCommand("unsubscribe", ctx)
	if ctx.EffectiveUser == nil {
		return nil
	}

	msg := service.unsubscribe(ctx.EffectiveChat.Id, ctx.EffectiveUser.Id, commandArgument(ctx.EffectiveMessage.Text))
	return reply(b, ctx, msg)
}

func (service *Impl) subscriptionsCmd(b *gotgbot.Bot, ctx *ext.Context) error {
	logCommand("subscriptions", ctx)
	if ctx.EffectiveUser == nil {
		return nil
	}

	return reply(b, ctx, service.listSubscriptions(ctx.EffectiveChat.Id, ctx.EffectiveUser.Id))
}

func (service *Impl) subscribe(chatID, userID int64, name, url string) string {
	err := service.repo.Subscribe(chatID, userID, name, url)
	switch {
	case err == nil:
		return "✅ Subscribed: " + strings.TrimSpace(url) + "\n\nThe current entries will be sent at the next check, then only new ones."
	case errors.Is(err, subscriptions.ErrEmptyURL):
		return getMessageFromMessageType(MessageTypeEmptyURL)
	case errors.Is(err, subscriptions.ErrAlreadySubscribed):
		return getMessageFromMessageType(MessageTypeDuplicate)
	default:
		log.Error().Err(err).Int64(constants.LogContainerID, chatID).Int64(constants.LogSubscriberID, userID).Msg("error on subscribe")
		return getMessageFromMessageType(MessageTypeUnavailable)
	}
}

func (service *Impl) unsubscribe(chatID, userID int64, url string) string {
	err := service.repo.Unsubscribe(chatID, userID, url)
	switch {
	case err == nil:
		return "🗑 Unsubscribed: " + strings.TrimSpace(url)
	case errors.Is(err, subscriptions.ErrEmptyURL):
		return getMessageFromMessageType(MessageTypeEmptyURL)
	case errors.Is(err, subscriptions.ErrNotSubscribed):
		return getMessageFromMessageType(MessageTypeNotFound)
	default:
		log.Error().Err(err).Int64(constants.LogContainerID, chatID).Int64(constants.LogSubscriberID, userID).Msg("error on unsubscribe")
		return getMessageFromMessageType(MessageTypeUnavailable)
	}
}

func (service *Impl) listSubscriptions(chatID, userID int64) string {
	feeds, err := service.repo.GetFeedMap(chatID, userID)
	if err != nil {
		log.Error().Err(err).Int64(constants.LogContainerID, chatID).Int64(constants.LogSubscriberID, userID).Msg("error on list")
		return getMessageFromMessageType(MessageTypeUnavailable)
	}
	if len(feeds) == 0 {
		return getMessageFromMessageType(MessageTypeNoFeeds)
	}

	urls := feeds.URLs()
	sort.Strings(urls)
	return "📚 Your RSS subscriptions in this chat:\n" + strings.Join(urls, "\n")
}

func reply(b *gotgbot.Bot, ctx *ext.Context, text string) error {
	_, err := ctx.EffectiveMessage.Reply(b, text, &gotgbot.SendMessageOpts{
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{IsDisabled: true},
	})
	return err
}

func logCommand(cmd string, ctx *ext.Context) {
	event := log.Info().Str(constants.LogCommand, cmd).Int64(constants.LogContainerID, ctx.EffectiveChat.Id)
	if ctx.EffectiveUser != nil {
		event = event.Int64(constants.LogSubscriberID, ctx.EffectiveUser.Id).Str(constants.LogUsername, ctx.EffectiveUser.Username)
	}
	event.Msg("command received")
}

// commandArgument returns what follows the command word, e.g. the URL of
// "/subscribe@bot https://example.com/rss".
func commandArgument(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// addressedTo reports whether a command targets the bot called username,
// either explicitly with "/cmd@username" or with no bot suffix at all.
func addressedTo(text, username string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	_, target, found := strings.Cut(fields[0], "@")
	return !found || strings.EqualFold(target, username)
}

func displayName(user *gotgbot.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	if name == "" {
		name = strconv.FormatInt(user.Id, 10)
	}
	return name
}

func renderNotification(n notifier.Notification) string {
	body := truncate(n.Text, maxMessageRunes)
	text := html.EscapeString(body)
	if n.Mention != nil {
		name := n.Mention.Name
		if name == "" {
			name = strconv.FormatInt(n.Mention.ID, 10)
		}
		mention := fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, n.Mention.ID, html.EscapeString(name))
		text = mention + ", new entries in your RSS subscriptions:\n\n" + text
	}
	return text
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-len([]rune(truncatedSuffix))]) + truncatedSuffix
}

func getMessageFromMessageType(messageType MessageType) string {
	switch messageType {
	case MessageTypeHelp:
		msg := "🤖 RSS Monitor – Help Guide 📢\n\n"
		msg += "I check your RSS feeds regularly and post new entries in this chat.\n\n"
		msg += "📝 Commands available:\n"
		msg += "✅ /subscribe <url> – Follow a feed.\n"
		msg += "❌ /unsubscribe <url> – Stop following a feed.\n"
		msg += "📚 /subscriptions – List the feeds you follow in this chat.\n"
		msg += "💡 /help – Show this help message.\n"

		return msg

	case MessageTypeNoFeeds:
		return "📭 You have no RSS subscription in this chat yet. Use /subscribe <url> to add one."

	case MessageTypeEmptyURL:
		return "⚠️ The RSS URL is empty. Usage: /subscribe <url> or /unsubscribe <url>"

	case MessageTypeDuplicate:
		return "⚠️ You are already subscribed to this RSS feed."

	case MessageTypeNotFound:
		return "⚠️ You are not subscribed to this RSS feed. Use /subscriptions to see your feeds."

	case MessageTypeUnavailable:
		msg := "😔 Oops! Something Went Wrong\n\n"
		msg += "I couldn't save your request right now. Please try again in a moment."

		return msg

	default:
		msg := "👋 Hi! I'm RSS Monitor 🤖\n\n"
		msg += "Subscribe to RSS feeds and I'll post their new entries here, mentioning you.\n\n"
		msg += "✅ Type /subscribe <url> to follow a feed.\n"
		msg += "💬 Need help? Type /help for a list of commands."

		return msg
	}
}
