package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingAvatarService struct {
	sweeps atomic.Int32
}

func (c *countingAvatarService) GetAvatar(context.Context, string) (string, error) { return "", nil }

func (c *countingAvatarService) DeleteAvatar(context.Context, string) error { return nil }

func (c *countingAvatarService) SweepOrphans(context.Context, time.Duration) (int, error) {
	c.sweeps.Add(1)
	return 0, nil
}

func TestRunSweeper_TicksUntilCanceled(t *testing.T) {
	svc := &countingAvatarService{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		runSweeper(ctx, svc, 5*time.Millisecond, time.Minute, zerolog.Nop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return svc.sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
