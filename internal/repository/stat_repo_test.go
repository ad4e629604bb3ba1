package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func TestStatRepository_AddUserStat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewStatRepository(db)
	const recordAt = 1716163200

	require.NoError(t, repo.AddUserStat(&model.StatUser{UserID: 1, ServerRate: 1, U: 10, D: 20, RecordAt: recordAt}))
	require.NoError(t, repo.AddUserStat(&model.StatUser{UserID: 1, ServerRate: 1, U: 1, D: 2, RecordAt: recordAt}))
	require.NoError(t, repo.AddUserStat(&model.StatUser{UserID: 1, ServerRate: 2, U: 5, D: 5, RecordAt: recordAt}))
	require.NoError(t, repo.AddUserStat(&model.StatUser{UserID: 1, ServerRate: 1, U: 7, D: 7, RecordAt: recordAt + 86400}))

	stats, err := repo.ListUserStats(recordAt)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byRate := map[float64]model.StatUser{}
	for _, s := range stats {
		byRate[s.ServerRate] = s
	}
	assert.Equal(t, int64(11), byRate[1].U)
	assert.Equal(t, int64(22), byRate[1].D)
	assert.Equal(t, int64(5), byRate[2].U)
}

func TestStatRepository_AddServerStat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewStatRepository(db)
	const recordAt = 1716163200

	require.NoError(t, repo.AddServerStat(&model.StatServer{ServerID: 1, ServerType: model.ServerTypeVmess, U: 1, D: 1, RecordAt: recordAt}))
	require.NoError(t, repo.AddServerStat(&model.StatServer{ServerID: 1, ServerType: model.ServerTypeVmess, U: 2, D: 3, RecordAt: recordAt}))
	require.NoError(t, repo.AddServerStat(&model.StatServer{ServerID: 1, ServerType: model.ServerTypeTrojan, U: 9, D: 9, RecordAt: recordAt}))

	stats, err := repo.ListServerStats(recordAt)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	for _, s := range stats {
		if s.ServerType == model.ServerTypeVmess {
			assert.Equal(t, int64(3), s.U)
			assert.Equal(t, int64(4), s.D)
		}
	}
}

func TestServerRepository_GetByTypeAndID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewServerRepository(db)
	server := testutil.TestServer(t, db, model.ServerTypeShadowsocks, 0.5)

	found, err := repo.GetByTypeAndID(model.ServerTypeShadowsocks, server.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.5, found.Rate)

	_, err = repo.GetByTypeAndID(model.ServerTypeVless, server.ID)
	assert.Error(t, err)
}

func TestServerRepository_Create_FalseFlags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewServerRepository(db)
	server := &model.Server{Type: model.ServerTypeVmess, Name: "hidden", Rate: 0, Show: false}
	require.NoError(t, repo.Create(server))

	found, err := repo.GetByTypeAndID(model.ServerTypeVmess, server.ID)
	require.NoError(t, err)
	assert.False(t, found.Show)
	assert.Zero(t, found.Rate)
}

func TestPlanRepository_Create_FalseFlags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPlanRepository(db)
	plan := &model.Plan{Name: "closed", GroupID: 1, TransferEnable: 10, Show: false, Sell: false, Renew: false}
	require.NoError(t, repo.Create(plan))

	found, err := repo.GetByID(plan.ID)
	require.NoError(t, err)
	assert.False(t, found.Show)
	assert.False(t, found.Sell)
	assert.False(t, found.Renew)
}

func TestStore_Transaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	store := NewStore(db)
	user := testutil.TestUser(t, db, testutil.WithBalance(100))

	err := store.Transaction(context.Background(), func(tx *Store) error {
		if err := tx.Users.UpdateFields(user.ID, map[string]interface{}{"balance": 0}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	found, err := store.Users.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), found.Balance)
}
