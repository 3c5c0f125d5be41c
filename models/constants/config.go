package constants

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	ConfigFileName = ".env"

	ExternalName = "RSS Monitor"
	Version      = "1.0.0"

	// TELEGRAM BOT
	TelegramBotToken = "TELEGRAM_BOT_TOKEN"

	// SQLITE_URL URL.
	SqliteURL = "SQLITE_URL"

	// Zerolog values from [trace, debug, info, warn, error, fatal, panic].
	LogLevel = "LOG_LEVEL"

	// Boolean; runs a polling pass at startup when true.
	Production = "PRODUCTION"

	// IANA name of the scheduler location.
	Timezone = "TIMEZONE"

	// Cron tab to health.
	HealthCronTab = "HEALTH_CRON_TAB"

	// Delay between two polling passes. Duration type.
	PollInterval = "POLL_INTERVAL"

	// Timeout of a single feed fetch, in seconds.
	RSSTimeout = "RSS_TIMEOUT"

	// User agent sent when fetching feeds.
	UserAgent = "USER_AGENT"

	// Optional proxy used for feeds and Telegram, e.g. http://127.0.0.1:7890.
	ProxyURL = "PROXY_URL"

	// Maximum number of entries rendered per notification.
	DigestLimit = "DIGEST_LIMIT"

	// Number of feeds checked in parallel during a pass.
	FetchConcurrency = "FETCH_CONCURRENCY"

	// Lifetime of a fetched feed in cache. Duration type.
	FeedCache = "FEED_CACHE"

	defaultTelegramBotToken = ""
	defaultSqliteURL        = "rss-monitor.db"
	defaultLogLevel         = zerolog.InfoLevel
	defaultProduction       = false
	defaultTimezone         = "UTC"
	defaultHealthCrontab    = "*/30 * * * *"
	defaultPollInterval     = 10 * time.Minute
	defaultRSSTimeout       = 30
	defaultUserAgent        = "rss-monitor/" + Version
	defaultProxyURL         = ""
	defaultDigestLimit      = 5
	defaultFetchConcurrency = 4
	defaultFeedCache        = 30 * time.Second
)

func GetDefaultConfigValues() map[string]any {
	return map[string]any{
		TelegramBotToken: defaultTelegramBotToken,
		SqliteURL:        defaultSqliteURL,
		LogLevel:         defaultLogLevel.String(),
		Production:       defaultProduction,
		Timezone:         defaultTimezone,
		HealthCronTab:    defaultHealthCrontab,
		PollInterval:     defaultPollInterval,
		RSSTimeout:       defaultRSSTimeout,
		UserAgent:        defaultUserAgent,
		ProxyURL:         defaultProxyURL,
		DigestLimit:      defaultDigestLimit,
		FetchConcurrency: defaultFetchConcurrency,
		FeedCache:        defaultFeedCache,
	}
}
