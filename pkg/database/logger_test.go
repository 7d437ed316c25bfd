package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func trace(l gormlogger.Interface, elapsed time.Duration, err error) {
	l.Trace(context.Background(), time.Now().Add(-elapsed), func() (string, int64) {
		return "SELECT 1", 1
	}, err)
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf), 50*time.Millisecond)

	trace(l, time.Millisecond, nil)
	assert.Empty(t, buf.String())

	trace(l, time.Millisecond, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	trace(l, time.Millisecond, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	buf.Reset()

	trace(l, 100*time.Millisecond, nil)
	assert.Contains(t, buf.String(), "slow query")
	buf.Reset()

	trace(l.LogMode(gormlogger.Silent), time.Millisecond, errors.New("boom"))
	assert.Empty(t, buf.String())

	trace(l.LogMode(gormlogger.Info), time.Millisecond, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&Config{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}
