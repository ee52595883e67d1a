package handler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/flyer"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/storage"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
	"github.com/qs3c/ramadan_bot_server/internal/service"
	"github.com/qs3c/ramadan_bot_server/internal/testutil"
)

func setupFlyerRouter(t *testing.T, withQueue bool) (*gin.Engine, *gorm.DB, *queue.Queue, *model.User) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	renderer, err := flyer.NewRenderer("", 300, 300)
	require.NoError(t, err)
	store, err := storage.NewLocal(t.TempDir(), "/flyers")
	require.NoError(t, err)

	var q *queue.Queue
	var jobQueue service.JobQueue
	if withQueue {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		q = queue.NewQueue(client, "flyer:jobs")
		jobQueue = q
	}

	s := service.NewFlyerService(
		repository.NewGenerationRepository(db),
		repository.NewFlyerJobRepository(db),
		renderer, jobQueue, store, logging.Discard(),
	)
	h := NewFlyerHandler(s)
	user := testutil.TestUser(t, db, testutil.WithName("Maryam"))

	router := gin.New()
	router.Use(asUser(user.ID, model.RoleUser))
	router.GET("/generations/:id/flyer", h.Download)
	router.POST("/generations/:id/share", h.Share)
	router.GET("/flyer-jobs/:id", h.GetJob)

	return router, db, q, user
}

func TestFlyerHandler_Download(t *testing.T) {
	router, db, _, user := setupFlyerRouter(t, false)
	gen := testutil.TestGeneration(t, db, user.ID, testutil.WithTopic("Night Prayer"), testutil.WithDay(27))

	w := performRequest(router, "GET", fmt.Sprintf("/generations/%d/flyer", gen.ID), nil)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ramadan-day-27-night-prayer.png"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestFlyerHandler_Download_NotOwner(t *testing.T) {
	router, db, _, _ := setupFlyerRouter(t, false)
	other := testutil.TestUser(t, db)
	gen := testutil.TestGeneration(t, db, other.ID)

	w := performRequest(router, "GET", fmt.Sprintf("/generations/%d/flyer", gen.ID), nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}

func TestFlyerHandler_ShareAndStatus(t *testing.T) {
	router, db, q, user := setupFlyerRouter(t, true)
	gen := testutil.TestGeneration(t, db, user.ID)

	var share dto.ShareResponse
	decodeData(t, performRequest(router, "POST", fmt.Sprintf("/generations/%d/share", gen.ID), nil), &share)
	assert.Equal(t, model.FlyerJobQueued, share.Status)

	msg, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, share.JobID, msg.JobID)
	assert.Equal(t, gen.ID, msg.GenerationID)

	var status dto.FlyerJobStatus
	decodeData(t, performRequest(router, "GET", fmt.Sprintf("/flyer-jobs/%d", share.JobID), nil), &status)
	assert.Equal(t, model.FlyerJobQueued, status.Status)
	assert.Equal(t, gen.ID, status.GenerationID)
}

func TestFlyerHandler_GetJob_OtherUser(t *testing.T) {
	router, db, _, _ := setupFlyerRouter(t, true)
	other := testutil.TestUser(t, db)
	gen := testutil.TestGeneration(t, db, other.ID)
	job := testutil.TestFlyerJob(t, db, other.ID, gen.ID, model.FlyerJobCompleted)

	w := performRequest(router, "GET", fmt.Sprintf("/flyer-jobs/%d", job.ID), nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}

func TestFlyerHandler_Share_NoQueue(t *testing.T) {
	router, db, _, user := setupFlyerRouter(t, false)
	gen := testutil.TestGeneration(t, db, user.ID)

	w := performRequest(router, "POST", fmt.Sprintf("/generations/%d/share", gen.ID), nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeServerError, resp.Code)
	assert.Equal(t, service.ErrShareUnavailable.Error(), resp.Message)
}
