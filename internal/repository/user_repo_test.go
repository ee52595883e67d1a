package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/testutil"
)

func TestUserRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	user := &model.User{Name: "Fatima", PinHash: "hash", Role: model.RoleUser}
	require.NoError(t, repo.Create(user))

	assert.NotZero(t, user.ID)
	assert.Equal(t, "fatima", user.NameKey)
}

func TestUserRepository_Create_DuplicateNameDifferentCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	require.NoError(t, repo.Create(&model.User{Name: "Yusuf", PinHash: "h", Role: model.RoleUser}))
	err := repo.Create(&model.User{Name: "YUSUF", PinHash: "h", Role: model.RoleUser})
	assert.Error(t, err)
}

func TestUserRepository_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	created := testutil.TestUser(t, db)

	found, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.Name, found.Name)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(99999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_GetByNameFold(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	created := testutil.TestUser(t, db, testutil.WithName("Abdul Rahman"))

	for _, name := range []string{"Abdul Rahman", "abdul rahman", "  ABDUL RAHMAN "} {
		found, err := repo.GetByNameFold(name)
		require.NoError(t, err, name)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "Abdul Rahman", found.Name)
	}

	_, err := repo.GetByNameFold("Abdul")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_TouchLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	user := testutil.TestUser(t, db)
	at := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

	require.NoError(t, repo.TouchLogin(user.ID, at))

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.True(t, at.Equal(*found.LastLogin))
}

func TestUserRepository_ApplyGeneration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)
	genRepo := NewGenerationRepository(db)

	user := testutil.TestUser(t, db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	user.Streak = 3
	user.LastGenerationDate = &now
	gen := &model.Generation{UserID: user.ID, Topic: "Gratitude", Day: 2, Message: "Be thankful.", CreatedAt: now}

	require.NoError(t, repo.ApplyGeneration(user, gen))
	assert.NotZero(t, gen.ID)

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Streak)
	assert.Equal(t, 1, found.GenerationCount)
	require.NotNil(t, found.LastGenerationDate)
	assert.True(t, now.Equal(*found.LastGenerationDate))

	count, err := genRepo.CountByUserBetween(user.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_ApplyGeneration_RollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	user := testutil.TestUser(t, db)
	user.Streak = 5

	// 主键冲突使插入失败
	existing := testutil.TestGeneration(t, db, user.ID)
	err := repo.ApplyGeneration(user, &model.Generation{ID: existing.ID, UserID: user.ID, Topic: "x", Day: 1})
	require.Error(t, err)

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Streak)
	assert.Equal(t, 0, found.GenerationCount)
}

func TestUserRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	never := testutil.TestUser(t, db, testutil.WithName("never"))
	older := testutil.TestUser(t, db, testutil.WithName("older"), testutil.WithLastLogin(base))
	newer := testutil.TestUser(t, db, testutil.WithName("newer"), testutil.WithLastLogin(base.Add(time.Hour)))

	users, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, newer.ID, users[0].ID)
	assert.Equal(t, older.ID, users[1].ID)
	assert.Equal(t, never.ID, users[2].ID)

	users, err = repo.List(1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	testutil.TestUser(t, db)
	testutil.TestUser(t, db, testutil.WithBanned())
	testutil.TestUser(t, db, testutil.WithBanned())

	total, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	banned, err := repo.CountBanned()
	require.NoError(t, err)
	assert.Equal(t, int64(2), banned)
}

func TestUserRepository_SetRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	user := testutil.TestUser(t, db)

	require.NoError(t, repo.SetRateLimit(user.ID, 5))

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.RateLimitOverride)
	assert.Equal(t, 5, *found.RateLimitOverride)

	err = repo.SetRateLimit(99999, 5)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_SetBanned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	user := testutil.TestUser(t, db)

	require.NoError(t, repo.SetBanned(user.ID, true))
	found, _ := repo.GetByID(user.ID)
	assert.True(t, found.IsBanned)

	require.NoError(t, repo.SetBanned(user.ID, false))
	found, _ = repo.GetByID(user.ID)
	assert.False(t, found.IsBanned)

	err := repo.SetBanned(99999, true)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
