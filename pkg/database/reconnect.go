package database

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// ReconnectPlugin pings the pool before statements, at most once per
// checkInterval, and retries the ping when the connection looks lost.
type ReconnectPlugin struct {
	logger        *slog.Logger
	maxRetries    int
	retryDelay    time.Duration
	checkInterval time.Duration

	lastCheck  atomic.Int64
	reconnects atomic.Int64
}

// NewReconnectPlugin creates a reconnect plugin with the default policy.
func NewReconnectPlugin(logger *slog.Logger) *ReconnectPlugin {
	return &ReconnectPlugin{
		logger:        logger,
		maxRetries:    3,
		retryDelay:    500 * time.Millisecond,
		checkInterval: 5 * time.Second,
	}
}

// Name implements gorm.Plugin.
func (p *ReconnectPlugin) Name() string {
	return "reconnect_plugin"
}

// Initialize registers the health check ahead of every statement kind.
func (p *ReconnectPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		register func(string, func(*gorm.DB)) error
		name     string
	}{
		{cb.Query().Before("gorm:query").Register, "reconnect:before_query"},
		{cb.Create().Before("gorm:create").Register, "reconnect:before_create"},
		{cb.Update().Before("gorm:update").Register, "reconnect:before_update"},
		{cb.Delete().Before("gorm:delete").Register, "reconnect:before_delete"},
		{cb.Row().Before("gorm:row").Register, "reconnect:before_row"},
		{cb.Raw().Before("gorm:raw").Register, "reconnect:before_raw"},
	}

	for _, hook := range hooks {
		if err := hook.register(hook.name, p.beforeStatement); err != nil {
			return err
		}
	}
	return nil
}

func (p *ReconnectPlugin) beforeStatement(db *gorm.DB) {
	now := time.Now().UnixNano()
	last := p.lastCheck.Load()
	if now-last < int64(p.checkInterval) || !p.lastCheck.CompareAndSwap(last, now) {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	if err := sqlDB.Ping(); err != nil && isConnectionError(err) {
		p.logger.Warn("database connection lost, attempting to reconnect", slog.String("error", err.Error()))
		if !p.attemptReconnect(sqlDB) {
			p.logger.Error("database reconnection failed after retries")
		}
	}
}

var connectionErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"connection timed out",
	"eof",
	"bad connection",
	"invalid connection",
	"closed network connection",
	"connection lost",
	"server closed",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (p *ReconnectPlugin) attemptReconnect(sqlDB *sql.DB) bool {
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		time.Sleep(p.retryDelay * time.Duration(attempt))

		if err := sqlDB.Ping(); err == nil {
			total := p.reconnects.Add(1)
			p.logger.Info("database reconnection successful", slog.Int64("total_reconnects", total))
			return true
		}

		p.logger.Warn("reconnection attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", p.maxRetries),
		)
	}
	return false
}

// Reconnects returns the number of successful reconnections.
func (p *ReconnectPlugin) Reconnects() int64 {
	return p.reconnects.Load()
}
