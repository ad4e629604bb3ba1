package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

type StatRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) *StatRepository {
	return &StatRepository{db: db}
}

// AddUserStat 按 (user_id, server_rate, record_at) 累加，不存在时新建
func (r *StatRepository) AddUserStat(stat *model.StatUser) error {
	res := r.db.Model(&model.StatUser{}).
		Where("user_id = ? AND server_rate = ? AND record_at = ?", stat.UserID, stat.ServerRate, stat.RecordAt).
		Updates(map[string]interface{}{
			"u": gorm.Expr("u + ?", stat.U),
			"d": gorm.Expr("d + ?", stat.D),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.Create(stat).Error
}

// AddServerStat 按 (server_id, server_type, record_at) 累加
func (r *StatRepository) AddServerStat(stat *model.StatServer) error {
	res := r.db.Model(&model.StatServer{}).
		Where("server_id = ? AND server_type = ? AND record_at = ?", stat.ServerID, stat.ServerType, stat.RecordAt).
		Updates(map[string]interface{}{
			"u": gorm.Expr("u + ?", stat.U),
			"d": gorm.Expr("d + ?", stat.D),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.Create(stat).Error
}

func (r *StatRepository) ListUserStats(recordAt int64) ([]model.StatUser, error) {
	var stats []model.StatUser
	err := r.db.Where("record_at = ?", recordAt).Order("user_id ASC").Find(&stats).Error
	return stats, err
}

func (r *StatRepository) ListServerStats(recordAt int64) ([]model.StatServer, error) {
	var stats []model.StatServer
	err := r.db.Where("record_at = ?", recordAt).Order("server_id ASC").Find(&stats).Error
	return stats, err
}
