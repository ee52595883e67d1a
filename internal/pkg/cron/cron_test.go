package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
)

type countingCleaner struct {
	mu     sync.Mutex
	calls  int
	dryRun []bool
	err    error
}

func (c *countingCleaner) CleanupExpired(_ context.Context, dryRun bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.dryRun = append(c.dryRun, dryRun)
	return 2, c.err
}

func (c *countingCleaner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (i *countingInvalidator) InvalidateAnalytics(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	return nil
}

func (i *countingInvalidator) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// soonClock 让"下一次零点"总在 20ms 之后
type soonClock struct{}

func (soonClock) Now() time.Time { return time.Now() }

func (soonClock) NextReset(now time.Time) time.Time { return now.Add(20 * time.Millisecond) }

// farClock 下一次零点在一天之后
type farClock struct{}

func (farClock) Now() time.Time { return time.Now() }

func (farClock) NextReset(now time.Time) time.Time { return now.Add(24 * time.Hour) }

func TestService_RunNow(t *testing.T) {
	cleaner := &countingCleaner{}
	s := NewService(cleaner, nil, farClock{}, logging.Discard())

	n, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []bool{false}, cleaner.dryRun)

	cleaner.err = errors.New("db gone")
	_, err = s.RunNow(context.Background())
	assert.Error(t, err)
}

func TestService_PeriodicCleanup(t *testing.T) {
	cleaner := &countingCleaner{}
	s := NewService(cleaner, nil, farClock{}, logging.Discard())
	s.interval = 10 * time.Millisecond

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return cleaner.count() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestService_MidnightInvalidatesAnalytics(t *testing.T) {
	inv := &countingInvalidator{}
	s := NewService(&countingCleaner{}, inv, soonClock{}, logging.Discard())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return inv.count() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestService_StopIsIdempotent(t *testing.T) {
	s := NewService(&countingCleaner{}, nil, farClock{}, logging.Discard())
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestService_NilCleanerSkipsCleanup(t *testing.T) {
	inv := &countingInvalidator{}
	s := NewService(nil, inv, soonClock{}, logging.Discard())
	s.interval = 5 * time.Millisecond

	n, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	s.Start()
	assert.Eventually(t, func() bool { return inv.count() >= 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}
