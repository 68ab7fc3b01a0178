package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(log Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		log.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 500 || statusCode == 0:
		log.ErrorWithFields("HTTP request server error", fields)
	default:
		log.WarnWithFields("HTTP request client error", fields)
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(log Logger, limiter string, waitedMs int64) {
	log.WithFields(map[string]interface{}{
		"limiter":   limiter,
		"waited_ms": waitedMs,
		"action":    "rate_limited",
	}).Debug("Rate limit reached, waited for a token")
}

// LogPageFetched logs one follower page at debug level
func LogPageFetched(log Logger, account string, page, count int, next string) {
	log.WithFields(map[string]interface{}{
		"account":  account,
		"page":     page,
		"count":    count,
		"has_next": next != "",
	}).Debug("Follower page fetched")
}

// LogFetchProgress logs follower pagination progress for one account
func LogFetchProgress(log Logger, account string, page, fetched int) {
	log.WithFields(map[string]interface{}{
		"account": account,
		"page":    page,
		"fetched": fetched,
	}).Info("Fetching followers")
}

// LogTargetResult logs the outcome of one target
func LogTargetResult(log Logger, account, status string, added int, err error) {
	l := log.WithFields(map[string]interface{}{
		"account": account,
		"status":  status,
		"added":   added,
	})

	switch {
	case err != nil && status == "skipped":
		l.WithError(err).Warn("Target skipped")
	case status == "canceled":
		l.Warn("Target canceled")
	case status == "partial":
		l.WithError(err).Warn(fmt.Sprintf("Synced %d new followers from a partial fetch", added))
	case err != nil:
		l.WithError(err).Error("Target failed")
	case added == 0:
		l.Info("No new followers to sync")
	default:
		l.Info(fmt.Sprintf("Synced %d new followers", added))
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
