package constants

import "github.com/rs/zerolog"

const (
	LogFileName      = "fileName"
	LogFeedURL       = "feedURL"
	LogFeedNumber    = "feedNumber"
	LogEntryNumber   = "entryNumber"
	LogContainerID   = "containerID"
	LogSubscriberID  = "subscriberID"
	LogWatermark     = "watermark"
	LogCommand       = "cmd"
	LogUsername      = "username"
	LogFailedNumber  = "failedNumber"
	LogNotifyNumber  = "notifiedNumber"
	LogSubNumber     = "subscriptionNumber"
	LogAttempt       = "attempt"
	LogLevelFallback = zerolog.InfoLevel
)
