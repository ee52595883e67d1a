package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
	"github.com/qs3c/ramadan_bot_server/internal/testutil"
)

func TestRequeuer_RunOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	q := queue.NewQueue(rdb, "flyer_test")
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	user := testutil.TestUser(t, db)
	gen := testutil.TestGeneration(t, db, user.ID)
	stale := testutil.TestFlyerJob(t, db, user.ID, gen.ID, model.FlyerJobQueued, func(j *model.FlyerJob) {
		j.CreatedAt = now.Add(-time.Hour)
	})
	testutil.TestFlyerJob(t, db, user.ID, gen.ID, model.FlyerJobQueued, func(j *model.FlyerJob) {
		j.CreatedAt = now.Add(-time.Minute)
	})

	r := NewRequeuer(repository.NewFlyerJobRepository(db), q, logging.Discard())
	r.now = func() time.Time { return now }

	ctx := context.Background()
	assert.Equal(t, 1, r.RunOnce(ctx))

	msg, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, stale.ID, msg.JobID)
	assert.Equal(t, gen.ID, msg.GenerationID)
	assert.Equal(t, user.ID, msg.UserID)

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestRequeuer_StartStopsOnCancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := NewRequeuer(repository.NewFlyerJobRepository(db), queue.NewQueue(rdb, "flyer_test"), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("requeuer did not stop")
	}
}

func TestRequeuer_RunOnceReleasesStuckProcessing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	q := queue.NewQueue(rdb, "flyer_test")
	jobRepo := repository.NewFlyerJobRepository(db)
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	user := testutil.TestUser(t, db)
	gen := testutil.TestGeneration(t, db, user.ID)
	crashed := testutil.TestFlyerJob(t, db, user.ID, gen.ID, model.FlyerJobQueued, func(j *model.FlyerJob) {
		j.CreatedAt = now.Add(-2 * time.Hour)
	})
	running := testutil.TestFlyerJob(t, db, user.ID, gen.ID, model.FlyerJobQueued, func(j *model.FlyerJob) {
		j.CreatedAt = now.Add(-2 * time.Hour)
	})

	ok, err := jobRepo.Claim(crashed.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = jobRepo.Claim(running.ID, now.Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	r := NewRequeuer(jobRepo, q, logging.Discard())
	r.now = func() time.Time { return now }

	ctx := context.Background()
	assert.Equal(t, 1, r.RunOnce(ctx))

	found, err := jobRepo.GetByID(crashed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FlyerJobQueued, found.Status)

	found, err = jobRepo.GetByID(running.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FlyerJobProcessing, found.Status)

	msg, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, crashed.ID, msg.JobID)

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}
