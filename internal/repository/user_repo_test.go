package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func TestUserRepository_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)

	created := testutil.TestUser(t, db, testutil.WithBalance(300))

	found, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, found.Email)
	assert.Equal(t, int64(300), found.Balance)

	locked, err := repo.GetByIDForUpdate(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, locked.ID)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)

	_, err := repo.GetByID(99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db)

	err := repo.UpdateFields(user.ID, map[string]interface{}{"balance": 42, "banned": true})
	require.NoError(t, err)

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), found.Balance)
	assert.True(t, found.Banned)
}

func TestUserRepository_IncrementTraffic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db, testutil.WithTraffic(10, 20))

	require.NoError(t, repo.IncrementTraffic(user.ID, 5, 7))
	require.NoError(t, repo.IncrementTraffic(user.ID, 1, 1))

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(16), found.U)
	assert.Equal(t, int64(28), found.D)
}

func TestUserRepository_CountActiveByPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	plan := testutil.TestPlan(t, db)
	other := testutil.TestPlan(t, db)

	testutil.TestUser(t, db, testutil.WithPlan(plan), testutil.WithExpiry(now.Add(time.Hour)))
	// 永不过期
	testutil.TestUser(t, db, testutil.WithPlan(plan))
	// 已过期
	testutil.TestUser(t, db, testutil.WithPlan(plan), testutil.WithExpiry(now.Add(-time.Hour)))
	testutil.TestUser(t, db, testutil.WithPlan(other))

	count, err := repo.CountActiveByPlan(plan.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
