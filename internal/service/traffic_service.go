package service

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/metrics"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/pkg/stat"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

// trafficChunkSize 每个入账任务最多携带的用户数
const trafficChunkSize = 1000

var ErrServerNotFound = errors.Mark(errors.New("节点不存在"), billing.ErrNotFound)

// TrafficDispatcher 投递流量入账任务
type TrafficDispatcher interface {
	Push(ctx context.Context, job *queue.TrafficJob) error
}

type TrafficService struct {
	store      *repository.Store
	redis      *redis.Client
	dispatcher TrafficDispatcher
	now        func() time.Time
}

func NewTrafficService(store *repository.Store, redisClient *redis.Client, dispatcher TrafficDispatcher) *TrafficService {
	return &TrafficService{
		store:      store,
		redis:      redisClient,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// GetServer 按类型与 ID 查找上报节点
func (s *TrafficService) GetServer(ctx context.Context, serverType model.ServerType, id int64) (*model.Server, error) {
	server, err := s.store.WithContext(ctx).Servers.GetByTypeAndID(serverType, id)
	if err != nil {
		return nil, notFound(err, ErrServerNotFound)
	}
	return server, nil
}

// Fetch 接收节点上报的流量：先计入当日统计窗口，再按批投递入账任务。
// data 的键为用户 ID，值为 [上行, 下行] 字节数。
func (s *TrafficService) Fetch(ctx context.Context, server *model.Server, data map[int64][2]int64) error {
	if len(data) == 0 {
		return nil
	}

	acc := stat.New(s.redis, stat.DayStart(s.now()))
	serverType := string(server.Type)

	userIDs := lo.Keys(data)
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, uid := range userIDs {
		v := data[uid]
		if err := acc.StatUser(ctx, server.Rate, uid, v[0], v[1]); err != nil {
			return errors.Wrap(err, "stat user traffic")
		}
		if err := acc.StatServer(ctx, server.ID, serverType, v[0], v[1]); err != nil {
			return errors.Wrap(err, "stat server traffic")
		}
		metrics.TrafficBytes.WithLabelValues(serverType, "u").Add(float64(v[0]))
		metrics.TrafficBytes.WithLabelValues(serverType, "d").Add(float64(v[1]))
	}

	for _, chunk := range lo.Chunk(userIDs, trafficChunkSize) {
		job := &queue.TrafficJob{
			ServerID:   server.ID,
			ServerType: serverType,
			Rate:       server.Rate,
			Deltas: lo.Map(chunk, func(uid int64, _ int) queue.TrafficDelta {
				return queue.TrafficDelta{UserID: uid, U: data[uid][0], D: data[uid][1]}
			}),
		}
		if err := s.dispatcher.Push(ctx, job); err != nil {
			return errors.Wrap(err, "dispatch traffic job")
		}
	}

	log.WithFields(log.Fields{
		"server_id":   server.ID,
		"server_type": serverType,
		"users":       len(userIDs),
	}).Debug("traffic fetched")
	return nil
}

// ApplyTrafficJob 按节点倍率累加用户已用流量，同一批在一个事务内提交
func (s *TrafficService) ApplyTrafficJob(ctx context.Context, job *queue.TrafficJob) error {
	rate := decimal.NewFromFloat(job.Rate)
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		for _, delta := range job.Deltas {
			u := decimal.NewFromInt(delta.U).Mul(rate).Round(0).IntPart()
			d := decimal.NewFromInt(delta.D).Mul(rate).Round(0).IntPart()
			if err := tx.Users.IncrementTraffic(delta.UserID, u, d); err != nil {
				return errors.Wrapf(err, "increment traffic of user %d", delta.UserID)
			}
		}
		return nil
	})
}
