package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/stat"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

type StatService struct {
	store *repository.Store
	redis *redis.Client
}

func NewStatService(store *repository.Store, redisClient *redis.Client) *StatService {
	return &StatService{
		store: store,
		redis: redisClient,
	}
}

// Flush 将统计窗口中的流量累加写入数据库，成功后清空该窗口
func (s *StatService) Flush(ctx context.Context, window time.Time) error {
	acc := stat.New(s.redis, window)

	users, err := acc.GetStatUser(ctx)
	if err != nil {
		return errors.Wrap(err, "read user stats")
	}
	servers, err := acc.GetStatServer(ctx)
	if err != nil {
		return errors.Wrap(err, "read server stats")
	}
	if len(users) == 0 && len(servers) == 0 {
		return nil
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		for _, u := range users {
			if err := tx.Stats.AddUserStat(&model.StatUser{
				UserID:     u.UserID,
				ServerRate: u.ServerRate,
				U:          u.U,
				D:          u.D,
				RecordAt:   u.RecordAt,
			}); err != nil {
				return errors.Wrap(err, "save user stat")
			}
		}
		for _, sv := range servers {
			if err := tx.Stats.AddServerStat(&model.StatServer{
				ServerID:   sv.ServerID,
				ServerType: model.ServerType(sv.ServerType),
				U:          sv.U,
				D:          sv.D,
				RecordAt:   sv.RecordAt,
			}); err != nil {
				return errors.Wrap(err, "save server stat")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := acc.ClearStatUser(ctx); err != nil {
		return errors.Wrap(err, "clear user stats")
	}
	if err := acc.ClearStatServer(ctx); err != nil {
		return errors.Wrap(err, "clear server stats")
	}

	log.WithFields(log.Fields{
		"record_at": acc.StartAt(),
		"users":     len(users),
		"servers":   len(servers),
	}).Info("stat window flushed")
	return nil
}
