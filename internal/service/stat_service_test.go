package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/stat"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func TestStatService_Flush(t *testing.T) {
	env := setupEnv(t)
	client, mr := testutil.SetupTestRedis(t)
	svc := NewStatService(env.store, client)
	ctx := context.Background()

	window := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	acc := stat.New(client, window)

	require.NoError(t, acc.StatUser(ctx, 1, 7, 100, 200))
	require.NoError(t, acc.StatUser(ctx, 2, 7, 10, 20))
	require.NoError(t, acc.StatServer(ctx, 3, "trojan", 110, 220))

	require.NoError(t, svc.Flush(ctx, window))

	users, err := env.store.Stats.ListUserStats(window.Unix())
	require.NoError(t, err)
	require.Len(t, users, 2)
	rates := []float64{users[0].ServerRate, users[1].ServerRate}
	assert.ElementsMatch(t, []float64{1, 2}, rates)

	servers, err := env.store.Stats.ListServerStats(window.Unix())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, model.ServerTypeTrojan, servers[0].ServerType)
	assert.Equal(t, int64(110), servers[0].U)
	assert.Equal(t, int64(220), servers[0].D)

	// 窗口已清空
	assert.False(t, mr.Exists("stat_user_1716163200"))
	assert.False(t, mr.Exists("stat_server_1716163200"))

	// 同一窗口再次写入时累加到已有记录
	require.NoError(t, acc.StatServer(ctx, 3, "trojan", 1, 2))
	require.NoError(t, svc.Flush(ctx, window))

	servers, err = env.store.Stats.ListServerStats(window.Unix())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, int64(111), servers[0].U)
	assert.Equal(t, int64(222), servers[0].D)
}

func TestStatService_Flush_EmptyWindow(t *testing.T) {
	env := setupEnv(t)
	client, _ := testutil.SetupTestRedis(t)
	svc := NewStatService(env.store, client)

	window := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Flush(context.Background(), window))

	users, err := env.store.Stats.ListUserStats(window.Unix())
	require.NoError(t, err)
	assert.Empty(t, users)
}
