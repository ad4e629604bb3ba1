package model

import (
	"time"
)

// StatUser 用户按倍率汇总的流量记录
type StatUser struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_stat_user" json:"user_id"`
	ServerRate float64   `gorm:"not null;uniqueIndex:idx_stat_user" json:"server_rate"`
	U          int64     `gorm:"column:u;default:0" json:"u"`
	D          int64     `gorm:"column:d;default:0" json:"d"`
	RecordAt   int64     `gorm:"not null;uniqueIndex:idx_stat_user" json:"record_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (StatUser) TableName() string {
	return "stat_users"
}

// StatServer 节点流量记录
type StatServer struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	ServerID   int64      `gorm:"not null;uniqueIndex:idx_stat_server" json:"server_id"`
	ServerType ServerType `gorm:"size:20;not null;uniqueIndex:idx_stat_server" json:"server_type"`
	U          int64      `gorm:"column:u;default:0" json:"u"`
	D          int64      `gorm:"column:d;default:0" json:"d"`
	RecordAt   int64      `gorm:"not null;uniqueIndex:idx_stat_server" json:"record_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (StatServer) TableName() string {
	return "stat_servers"
}
