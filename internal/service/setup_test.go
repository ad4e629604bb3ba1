package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/pkg/pubsub"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []*queue.OrderJob
	err  error
}

func (f *fakeDispatcher) Push(_ context.Context, job *queue.OrderJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*pubsub.OrderEvent
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, event *pubsub.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	db          *gorm.DB
	store       *repository.Store
	cfg         *config.Config
	users       *UserService
	plans       *PlanService
	coupons     *CouponService
	fulfillment *FulfillmentService
	orders      *OrderService
	dispatcher  *fakeDispatcher
	publisher   *fakePublisher
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	store := repository.NewStore(db)
	cfg := &config.Config{Billing: config.DefaultBilling()}

	env := &testEnv{
		db:         db,
		store:      store,
		cfg:        cfg,
		dispatcher: &fakeDispatcher{},
		publisher:  &fakePublisher{},
	}
	env.users = NewUserService(store, cfg)
	env.plans = NewPlanService()
	env.coupons = NewCouponService(store)
	env.fulfillment = NewFulfillmentService(store, env.users, env.dispatcher, env.publisher)
	env.orders = NewOrderService(store, cfg, env.users, env.plans, env.coupons, env.fulfillment)
	return env
}

// setNow 固定所有服务的当前时间
func (e *testEnv) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.users.now = clock
	e.plans.now = clock
	e.coupons.now = clock
	e.fulfillment.now = clock
	e.orders.now = clock
}
