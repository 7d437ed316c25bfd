package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger adapts zerolog to gorm's logger interface.
type GormLogger struct {
	logger        zerolog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger creates a gorm logger that writes through zerolog.
// Statement traces are emitted at debug level, slow queries at warn.
func NewGormLogger(logger zerolog.Logger, slowThreshold time.Duration) *GormLogger {
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &GormLogger{
		logger:        logger.With().Str("component", "gorm").Logger(),
		level:         gormlogger.Warn,
		slowThreshold: slowThreshold,
	}
}

// LogMode returns a copy of the logger with the given level.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace logs a finished statement. Record-not-found is expected control flow
// for lookups and is not reported as an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query failed")
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
	}
}
