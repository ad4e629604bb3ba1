package stat

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// UserStat 用户在某倍率下的流量汇总
type UserStat struct {
	RecordAt   int64   `json:"record_at"`
	ServerRate float64 `json:"server_rate"`
	UserID     int64   `json:"user_id"`
	U          int64   `json:"u"`
	D          int64   `json:"d"`
}

// ServerStat 节点流量汇总
type ServerStat struct {
	RecordAt   int64  `json:"record_at"`
	ServerID   int64  `json:"server_id"`
	ServerType string `json:"server_type"`
	U          int64  `json:"u"`
	D          int64  `json:"d"`
}

// Accumulator 以 Redis 有序集合累计一个统计窗口内的流量。
// 成员格式：用户 {rate}_{uid}_{u|d}，节点 {type}_{id}_{u|d}。
type Accumulator struct {
	client    *redis.Client
	startAt   int64
	userKey   string
	serverKey string
}

// DayStart 统计窗口按本地自然日划分
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func New(client *redis.Client, startAt time.Time) *Accumulator {
	ts := startAt.Unix()
	return &Accumulator{
		client:    client,
		startAt:   ts,
		userKey:   fmt.Sprintf("stat_user_%d", ts),
		serverKey: fmt.Sprintf("stat_server_%d", ts),
	}
}

// StartAt 窗口起始时间戳
func (a *Accumulator) StartAt() int64 {
	return a.startAt
}

// StatServer 累加节点流量
func (a *Accumulator) StatServer(ctx context.Context, serverID int64, serverType string, u, d int64) error {
	pipe := a.client.TxPipeline()
	pipe.ZIncrBy(ctx, a.serverKey, float64(u), fmt.Sprintf("%s_%d_u", serverType, serverID))
	pipe.ZIncrBy(ctx, a.serverKey, float64(d), fmt.Sprintf("%s_%d_d", serverType, serverID))
	_, err := pipe.Exec(ctx)
	return err
}

// StatUser 累加用户在指定倍率下的流量
func (a *Accumulator) StatUser(ctx context.Context, rate float64, userID int64, u, d int64) error {
	r := formatRate(rate)
	pipe := a.client.TxPipeline()
	pipe.ZIncrBy(ctx, a.userKey, float64(u), fmt.Sprintf("%s_%d_u", r, userID))
	pipe.ZIncrBy(ctx, a.userKey, float64(d), fmt.Sprintf("%s_%d_d", r, userID))
	_, err := pipe.Exec(ctx)
	return err
}

// GetStatUser 读取窗口内所有用户汇总，按用户与倍率排序
func (a *Accumulator) GetStatUser(ctx context.Context) ([]UserStat, error) {
	return a.userStats(ctx, 0)
}

// GetStatUserByUserID 读取单个用户在各倍率下的汇总
func (a *Accumulator) GetStatUserByUserID(ctx context.Context, userID int64) ([]UserStat, error) {
	return a.userStats(ctx, userID)
}

func (a *Accumulator) userStats(ctx context.Context, onlyUser int64) ([]UserStat, error) {
	members, err := a.client.ZRangeWithScores(ctx, a.userKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	index := make(map[string]*UserStat)
	for _, z := range members {
		rate, uid, dir, ok := splitMember(z.Member)
		if !ok {
			continue
		}
		userID, err := strconv.ParseInt(uid, 10, 64)
		if err != nil {
			continue
		}
		if onlyUser != 0 && userID != onlyUser {
			continue
		}
		serverRate, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			continue
		}

		key := rate + "_" + uid
		s, exists := index[key]
		if !exists {
			s = &UserStat{RecordAt: a.startAt, ServerRate: serverRate, UserID: userID}
			index[key] = s
		}
		addDirection(&s.U, &s.D, dir, z.Score)
	}

	stats := make([]UserStat, 0, len(index))
	for _, s := range index {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].UserID != stats[j].UserID {
			return stats[i].UserID < stats[j].UserID
		}
		return stats[i].ServerRate < stats[j].ServerRate
	})
	return stats, nil
}

// GetStatServer 读取窗口内所有节点汇总
func (a *Accumulator) GetStatServer(ctx context.Context) ([]ServerStat, error) {
	members, err := a.client.ZRangeWithScores(ctx, a.serverKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	index := make(map[string]*ServerStat)
	for _, z := range members {
		serverType, sid, dir, ok := splitMember(z.Member)
		if !ok {
			continue
		}
		serverID, err := strconv.ParseInt(sid, 10, 64)
		if err != nil {
			continue
		}

		key := serverType + "_" + sid
		s, exists := index[key]
		if !exists {
			s = &ServerStat{RecordAt: a.startAt, ServerID: serverID, ServerType: serverType}
			index[key] = s
		}
		addDirection(&s.U, &s.D, dir, z.Score)
	}

	stats := make([]ServerStat, 0, len(index))
	for _, s := range index {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ServerType != stats[j].ServerType {
			return stats[i].ServerType < stats[j].ServerType
		}
		return stats[i].ServerID < stats[j].ServerID
	})
	return stats, nil
}

func (a *Accumulator) ClearStatUser(ctx context.Context) error {
	return a.client.Del(ctx, a.userKey).Err()
}

func (a *Accumulator) ClearStatServer(ctx context.Context) error {
	return a.client.Del(ctx, a.serverKey).Err()
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func splitMember(member interface{}) (string, string, string, bool) {
	s, ok := member.(string)
	if !ok {
		return "", "", "", false
	}
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func addDirection(u, d *int64, dir string, score float64) {
	switch dir {
	case "u":
		*u += int64(score)
	case "d":
		*d += int64(score)
	}
}
