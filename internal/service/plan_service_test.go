package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func TestPlanService_HaveCapacity_Unlimited(t *testing.T) {
	env := setupEnv(t)

	plan := testutil.TestPlan(t, env.db)
	testutil.TestUser(t, env.db, testutil.WithPlan(plan))

	ok, err := env.plans.HaveCapacity(env.store, plan)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlanService_HaveCapacity_Limit(t *testing.T) {
	env := setupEnv(t)
	now := time.Now()
	env.setNow(now)

	plan := testutil.TestPlan(t, env.db, testutil.WithCapacity(2))

	testutil.TestUser(t, env.db, testutil.WithPlan(plan), testutil.WithExpiry(now.Add(24*time.Hour)))
	// 已过期用户不占容量
	testutil.TestUser(t, env.db, testutil.WithPlan(plan), testutil.WithExpiry(now.Add(-24*time.Hour)))

	ok, err := env.plans.HaveCapacity(env.store, plan)
	require.NoError(t, err)
	assert.True(t, ok)

	// 永不过期用户占用容量
	testutil.TestUser(t, env.db, testutil.WithPlan(plan))

	ok, err = env.plans.HaveCapacity(env.store, plan)
	require.NoError(t, err)
	assert.False(t, ok)
}
