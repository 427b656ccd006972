// Package errreport wires Sentry error reporting.
package errreport

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/yatube/config"
)

// Init 配置了 DSN 时初始化 Sentry，返回是否启用
func Init(cfg config.SentryConfig, release string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, fmt.Errorf("init sentry: %w", err)
	}
	return true, nil
}

// Flush waits up to timeout for queued events.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
